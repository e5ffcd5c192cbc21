package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	pgplatform "id-recon/internal/platform/postgres"
	txcontext "id-recon/pkg/platform/tx"
)

const aggregateContact = "contact"

// PostgresStore persists events in the outbox table. Append joins the
// transaction carried by ctx so events commit with the contact changes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, events ...Event) error {
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	exec := s.execer(ctx)
	for _, e := range events {
		entry, err := entryFromEvent(e)
		if err != nil {
			return err
		}
		if _, err := exec.ExecContext(ctx, query,
			entry.ID,
			aggregateContact,
			entry.AggregateID,
			string(entry.EventType),
			entry.Payload,
			entry.CreatedAt,
		); err != nil {
			return pgplatform.ClassifyError("insert outbox entry", err)
		}
	}
	return nil
}

// Drain claims up to limit pending entries with FOR UPDATE SKIP LOCKED, hands
// them to fn, and marks them published in the same transaction. Concurrent
// relays never claim the same rows. When fn fails the claim is released.
func (s *PostgresStore) Drain(ctx context.Context, limit int, fn func(ctx context.Context, entries []Entry) error) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, pgplatform.ClassifyError("begin outbox drain", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, pgplatform.ClassifyError("claim outbox entries", err)
	}
	var entries []Entry
	for rows.Next() {
		var e Entry
		var eventType string
		if err := rows.Scan(&e.ID, &e.AggregateID, &eventType, &e.Payload, &e.CreatedAt); err != nil {
			rows.Close()
			return 0, pgplatform.ClassifyError("scan outbox entry", err)
		}
		e.EventType = EventType(eventType)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, pgplatform.ClassifyError("iterate outbox entries", err)
	}
	rows.Close()

	if len(entries) == 0 {
		return 0, nil
	}
	if err := fn(ctx, entries); err != nil {
		return 0, err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID.String()
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`,
		time.Now(), pq.Array(ids),
	); err != nil {
		return 0, pgplatform.ClassifyError("mark outbox entries published", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, pgplatform.ClassifyError("commit outbox drain", err)
	}
	return len(entries), nil
}

// Pending counts unpublished entries.
func (s *PostgresStore) Pending(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&n); err != nil {
		return 0, pgplatform.ClassifyError("count pending outbox entries", err)
	}
	return n, nil
}
