package store

import (
	"context"
	"database/sql"
	"time"

	"id-recon/internal/contact/ports"
	pgplatform "id-recon/internal/platform/postgres"
	dErrors "id-recon/pkg/domain-errors"
	txcontext "id-recon/pkg/platform/tx"
)

// PostgresTx runs units of work in SERIALIZABLE transactions. The open
// transaction travels in the context handed to fn so the outbox store joins it.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTxRunner(db *sql.DB, opts ...TxOption) *PostgresTx {
	return &PostgresTx{db: db, timeout: applyTxOptions(opts)}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.ContactStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := boundContext(ctx, t.timeout)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return pgplatform.ClassifyError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	txCtx, hooks := txcontext.WithCommitHooks(txcontext.WithTx(ctx, tx))
	if err := fn(txCtx, NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return pgplatform.ClassifyError("commit transaction", err)
	}
	hooks.Run()
	return nil
}
