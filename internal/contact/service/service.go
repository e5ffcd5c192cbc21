// Package service reconciles customer observations into identities.
//
// One Identify call runs closure resolution, merge and materialization inside a
// single store transaction and retries the whole unit of work when the store
// reports a serialization conflict.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"id-recon/internal/contact/metrics"
	"id-recon/internal/contact/models"
	"id-recon/internal/contact/ports"
	"id-recon/internal/outbox"
	dErrors "id-recon/pkg/domain-errors"
	"id-recon/pkg/platform/sentinel"
	"id-recon/pkg/requestcontext"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 10 * time.Millisecond
	defaultMaxBackoff     = 200 * time.Millisecond
)

// Type aliases for shared interfaces.
type (
	StoreTx   = ports.ContactStoreTx
	Store     = ports.ContactStore
	EventSink = ports.EventSink
)

type Service struct {
	tx             StoreTx
	events         EventSink
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEvents records identity events in the same unit of work as the
// contact changes.
func WithEvents(sink EventSink) Option {
	return func(s *Service) {
		s.events = sink
	}
}

// WithMaxAttempts bounds how many times a conflicting unit of work runs.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(s *Service) {
		if initial > 0 {
			s.initialBackoff = initial
		}
		if maxInterval > 0 {
			s.maxBackoff = maxInterval
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(tx StoreTx, opts ...Option) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("contact store transaction runner is required")
	}
	svc := &Service{
		tx:             tx,
		logger:         slog.Default(),
		tracer:         otel.Tracer("id-recon/contact"),
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// reconciliation is the outcome of one committed unit of work.
type reconciliation struct {
	view        *models.Consolidated
	outcome     models.Outcome
	closureSize int
	demoted     int
}

// Identify reconciles one observation and returns the consolidated identity it
// belongs to.
func (s *Service) Identify(ctx context.Context, req models.IdentifyRequest) (*models.Consolidated, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "contact.Identify", trace.WithAttributes(
		attribute.Bool("request.has_email", req.Email != ""),
		attribute.Bool("request.has_phone", req.PhoneNumber != ""),
	))
	defer span.End()

	start := time.Now()
	requestID := requestcontext.RequestID(ctx)

	var result *reconciliation
	attempt := 0
	operation := func() error {
		attempt++
		res, err := s.identifyOnce(ctx, req)
		if err == nil {
			result = res
			return nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			if attempt < s.maxAttempts {
				s.metrics.IncrementConflictRetries()
				s.logger.DebugContext(ctx, "reconciliation conflict, retrying",
					"request_id", requestID,
					"attempt", attempt,
					"error", err,
				)
			}
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(s.newBackOff(), uint64(s.maxAttempts-1)), ctx))
	if err != nil {
		translated := translateError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(translated)))
		s.logFailure(ctx, requestID, attempt, err, translated)
		return nil, translated
	}

	span.SetAttributes(
		attribute.Int64("contact.primary_id", result.view.PrimaryContactID),
		attribute.String("contact.outcome", string(result.outcome)),
		attribute.Int("contact.closure_size", result.closureSize),
		attribute.Int("reconcile.attempts", attempt),
	)
	s.metrics.ObserveIdentify(result.outcome, result.closureSize, result.demoted, time.Since(start))
	s.logger.InfoContext(ctx, "contact identified",
		"request_id", requestID,
		"primary_contact_id", result.view.PrimaryContactID,
		"outcome", string(result.outcome),
		"closure_size", result.closureSize,
		"attempts", attempt,
	)
	return result.view, nil
}

func (s *Service) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff
	b.MaxInterval = s.maxBackoff
	b.MaxElapsedTime = 0
	return b
}

// identifyOnce runs one full reconciliation inside a single transaction.
func (s *Service) identifyOnce(ctx context.Context, req models.IdentifyRequest) (*reconciliation, error) {
	var out *reconciliation
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		res, events, err := s.reconcileInTx(ctx, store, req)
		if err != nil {
			return err
		}
		if s.events != nil && len(events) > 0 {
			if err := s.events.Append(ctx, events...); err != nil {
				return fmt.Errorf("record identity events: %w", err)
			}
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) reconcileInTx(ctx context.Context, store Store, req models.IdentifyRequest) (*reconciliation, []outbox.Event, error) {
	now := requestcontext.Now(ctx)
	requestID := requestcontext.RequestID(ctx)
	stamp := func(e outbox.Event) outbox.Event {
		e.RequestID = requestID
		return e
	}

	resolveCtx, span := s.tracer.Start(ctx, "contact.resolveClosure")
	closure, err := resolveClosure(resolveCtx, store, req.Email, req.PhoneNumber)
	span.SetAttributes(attribute.Int("contact.closure_size", len(closure)))
	span.End()
	if err != nil {
		return nil, nil, err
	}

	if len(closure) == 0 {
		c, err := startIdentity(ctx, store, req)
		if err != nil {
			return nil, nil, err
		}
		return &reconciliation{
			view:    models.Consolidate(c.ID, []*models.Contact{c}),
			outcome: models.OutcomeCreated,
		}, []outbox.Event{stamp(outbox.NewEvent(outbox.TypeCreated, c.ID, c.ID, now))}, nil
	}

	mergeCtx, span := s.tracer.Start(ctx, "contact.reconcile")
	merged, err := reconcile(mergeCtx, store, closure)
	span.End()
	if err != nil {
		return nil, nil, err
	}
	primary := merged.primary

	var events []outbox.Event
	for _, id := range merged.demoted {
		e := outbox.NewEvent(outbox.TypeMerged, primary.ID, id, now)
		e.Repointed = merged.repointed[id]
		events = append(events, stamp(e))
	}

	materializeCtx, span := s.tracer.Start(ctx, "contact.ensureRepresented")
	inserted, err := ensureRepresented(materializeCtx, store, merged.members, req, primary)
	span.End()
	if err != nil {
		return nil, nil, err
	}
	if inserted != nil {
		events = append(events, stamp(outbox.NewEvent(outbox.TypeLinked, primary.ID, inserted.ID, now)))
	}

	family, err := store.FindByLinkedIDOrID(ctx, primary.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load identity %d: %w", primary.ID, err)
	}

	outcome := models.OutcomeMatched
	switch {
	case len(merged.demoted) > 0:
		outcome = models.OutcomeMerged
	case inserted != nil:
		outcome = models.OutcomeLinked
	}

	return &reconciliation{
		view:        models.Consolidate(primary.ID, family),
		outcome:     outcome,
		closureSize: len(closure),
		demoted:     len(merged.demoted),
	}, events, nil
}

// Verify checks every stored contact against the linkage invariants.
func (s *Service) Verify(ctx context.Context) ([]models.Violation, error) {
	var violations []models.Violation
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		all, err := store.ListAll(ctx)
		if err != nil {
			return err
		}
		violations = models.VerifyLinkage(all)
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return violations, nil
}

// translateError maps store and context failures onto domain codes.
func translateError(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "reconciliation timed out")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "contact store is busy, retry the request")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeInternal, "contact store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reconcile contact")
	}
}

func (s *Service) logFailure(ctx context.Context, requestID string, attempts int, cause, translated error) {
	code := dErrors.CodeOf(translated)
	if code == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "reconciliation failed",
			"request_id", requestID,
			"attempts", attempts,
			"error", cause,
		)
		return
	}
	s.logger.WarnContext(ctx, "reconciliation failed",
		"request_id", requestID,
		"attempts", attempts,
		"code", string(code),
		"error", cause,
	)
}
