package outbox

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultRelayInterval = time.Second
	defaultRelayBatch    = 100
)

// Source hands pending entries to fn and marks them published when fn
// succeeds.
type Source interface {
	Drain(ctx context.Context, limit int, fn func(ctx context.Context, entries []Entry) error) (int, error)
}

// Publisher delivers entries to the message bus. It must either deliver
// every entry or return an error.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
}

// Relay periodically moves pending outbox entries to a Publisher.
type Relay struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	metrics   *Metrics
	interval  time.Duration
	batchSize int
}

type RelayOption func(*Relay)

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewRelay(source Source, publisher Publisher, opts ...RelayOption) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  defaultRelayInterval,
		batchSize: defaultRelayBatch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx is cancelled. Publish failures are
// logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "outbox relay started",
		"interval", r.interval.String(),
		"batch_size", r.batchSize,
	)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "outbox flush failed", "error", err)
			}
		}
	}
}

// Flush drains full batches until the source runs dry and returns the number
// of entries published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.source.Drain(ctx, r.batchSize, func(ctx context.Context, entries []Entry) error {
			if err := r.publisher.Publish(ctx, entries); err != nil {
				r.metrics.IncFailed(len(entries))
				return err
			}
			return nil
		})
		if err != nil {
			return total, err
		}
		r.metrics.IncPublished(n)
		total += n
		if n < r.batchSize {
			return total, nil
		}
	}
}
