package store

import (
	"context"
	"database/sql"
	"time"

	"id-recon/internal/contact/ports"
	dErrors "id-recon/pkg/domain-errors"
	txcontext "id-recon/pkg/platform/tx"
)

// SQLiteTx runs units of work in immediate-mode SQLite transactions.
type SQLiteTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLiteTxRunner(db *sql.DB, opts ...TxOption) *SQLiteTx {
	return &SQLiteTx{db: db, timeout: applyTxOptions(opts)}
}

func (t *SQLiteTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.ContactStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := boundContext(ctx, t.timeout)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return classifySQLite("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	txCtx, hooks := txcontext.WithCommitHooks(ctx)
	if err := fn(txCtx, NewSQLiteTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifySQLite("commit transaction", err)
	}
	hooks.Run()
	return nil
}
