package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"id-recon/internal/ratelimit/metrics"
	"id-recon/internal/ratelimit/models"
	"id-recon/internal/ratelimit/ports"
	dErrors "id-recon/pkg/domain-errors"
	"id-recon/pkg/platform/circuit"
	"id-recon/pkg/platform/httputil"
	"id-recon/pkg/requestcontext"
)

// Middleware limits requests per client IP. A failing store never blocks
// traffic: the request is admitted, or answered by the fallback store once
// the breaker has opened.
type Middleware struct {
	store    ports.BucketStore
	fallback *fallbackLimiter
	limit    models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
	now      func() time.Time
}

type Option func(*Middleware)

// WithDisabled admits every request.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// WithFallback answers checks from store while the primary store is failing.
func WithFallback(store ports.BucketStore, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		if store == nil {
			return
		}
		if breaker == nil {
			breaker = circuit.New("ratelimit")
		}
		m.fallback = &fallbackLimiter{store: store, breaker: breaker}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		if now != nil {
			m.now = now
		}
	}
}

func New(store ports.BucketStore, limit models.Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limit:  limit,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit returns middleware enforcing the configured budget per client IP on
// the named route.
func (m *Middleware) Limit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			result, degraded := m.check(ctx, models.IPKey(route, ip))
			if result == nil {
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			m.metrics.ObserveDecision(route, result.Allowed)

			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"route", route,
					"limit", result.Limit,
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(m.now())))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check returns nil when neither store could answer.
func (m *Middleware) check(ctx context.Context, key string) (*models.Result, bool) {
	result, err := m.store.Allow(ctx, key, m.limit.Requests, m.limit.Window)
	if err != nil {
		m.metrics.IncrementLimiterErrors()
		m.logger.ErrorContext(ctx, "rate limit check failed", "error", err)
		if m.fallback == nil {
			return nil, false
		}
		useFallback, change := m.fallback.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit store degraded, using in-memory fallback",
				"breaker", m.fallback.breaker.Name(),
			)
		}
		if !useFallback {
			return nil, false
		}
		return m.fallbackCheck(ctx, key)
	}

	if m.fallback == nil {
		return result, false
	}
	usePrimary, change := m.fallback.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit store recovered",
			"breaker", m.fallback.breaker.Name(),
		)
	}
	if !usePrimary {
		return m.fallbackCheck(ctx, key)
	}
	return result, false
}

func (m *Middleware) fallbackCheck(ctx context.Context, key string) (*models.Result, bool) {
	m.metrics.IncrementFallbackChecks()
	result, err := m.fallback.store.Allow(ctx, key, m.limit.Requests, m.limit.Window)
	if err != nil {
		m.logger.ErrorContext(ctx, "fallback rate limit check failed", "error", err)
		return nil, false
	}
	return result, true
}

// fallbackLimiter pairs a process-local store with the breaker deciding when
// to use it.
type fallbackLimiter struct {
	store   ports.BucketStore
	breaker *circuit.Breaker
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
