package store

import (
	"context"
	"sync"
	"time"

	"id-recon/internal/contact/ports"
	dErrors "id-recon/pkg/domain-errors"
	txcontext "id-recon/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// InMemoryTx serializes units of work over an InMemoryStore with one coarse
// lock. A failed unit of work restores the store to its state before fn ran
// and drops the commit hooks registered through ctx.
type InMemoryTx struct {
	mu      sync.Mutex
	store   *InMemoryStore
	timeout time.Duration
}

func NewInMemoryTx(store *InMemoryStore, opts ...TxOption) *InMemoryTx {
	return &InMemoryTx{store: store, timeout: applyTxOptions(opts)}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.ContactStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := boundContext(ctx, t.timeout)
	defer cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	snap := t.store.snapshot()
	txCtx, hooks := txcontext.WithCommitHooks(ctx)
	if err := fn(txCtx, t.store); err != nil {
		t.store.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		t.store.restore(snap)
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	hooks.Run()
	return nil
}

// TxOption configures a transaction runner.
type TxOption func(*time.Duration)

// WithTxTimeout bounds units of work whose context carries no deadline.
func WithTxTimeout(d time.Duration) TxOption {
	return func(timeout *time.Duration) {
		*timeout = d
	}
}

func applyTxOptions(opts []TxOption) time.Duration {
	var timeout time.Duration
	for _, opt := range opts {
		opt(&timeout)
	}
	return timeout
}

// boundContext applies timeout (or the default) when ctx has no deadline.
func boundContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
