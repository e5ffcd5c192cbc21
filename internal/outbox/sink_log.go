package outbox

import (
	"context"
	"log/slog"

	txcontext "id-recon/pkg/platform/tx"
)

// LogSink writes events to the log instead of storing them. Used when the
// backend has no outbox table. Events are logged only after their unit of
// work commits.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, events ...Event) error {
	txcontext.OnCommit(ctx, func() { s.log(ctx, events) })
	return nil
}

func (s *LogSink) log(ctx context.Context, events []Event) {
	for _, e := range events {
		s.logger.InfoContext(ctx, "identity event",
			"event_id", e.ID.String(),
			"event_type", string(e.Type),
			"primary_contact_id", e.PrimaryContactID,
			"contact_id", e.ContactID,
			"repointed", e.Repointed,
			"request_id", e.RequestID,
		)
	}
}
