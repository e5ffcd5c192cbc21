package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	contactmetrics "id-recon/internal/contact/metrics"
	"id-recon/internal/contact/ports"
	"id-recon/internal/contact/service"
	contactstore "id-recon/internal/contact/store"
	"id-recon/internal/outbox"
	"id-recon/internal/platform/config"
	"id-recon/internal/platform/postgres"
	httptransport "id-recon/internal/transport/http"
)

// backend is the storage side of the process for the configured driver.
type backend struct {
	tx     ports.ContactStoreTx
	events ports.EventSink
	// outbox is nil when events are only logged.
	outbox  outbox.Source
	health  map[string]httptransport.HealthCheck
	closers []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// openBackend opens the contact store for cfg.Database.Driver. relayEvents
// selects a durable outbox over a log sink where the driver offers a choice.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, relayEvents bool) (*backend, error) {
	txOpts := []contactstore.TxOption{contactstore.WithTxTimeout(cfg.Reconcile.TxTimeout)}
	b := &backend{health: map[string]httptransport.HealthCheck{}}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		if cfg.Database.MigrateOnStart {
			if _, err := postgres.Migrate(ctx, db, logger); err != nil {
				_ = b.Close()
				return nil, err
			}
		}
		store := outbox.NewPostgresStore(db)
		b.tx = contactstore.NewPostgresTxRunner(db, txOpts...)
		b.events = store
		b.outbox = store
		b.health["database"] = pingCheck(db)

	case config.DriverSQLite:
		db, err := contactstore.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.tx = contactstore.NewSQLiteTxRunner(db, txOpts...)
		b.events = outbox.NewLogSink(logger)
		b.health["database"] = pingCheck(db)

	case config.DriverMemory:
		b.tx = contactstore.NewInMemoryTx(contactstore.NewInMemoryStore(), txOpts...)
		if relayEvents {
			store := outbox.NewInMemoryStore()
			b.events = store
			b.outbox = store
		} else {
			b.events = outbox.NewLogSink(logger)
		}

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	logger.InfoContext(ctx, "contact store ready", "driver", cfg.Database.Driver)
	return b, nil
}

func pingCheck(db *sql.DB) httptransport.HealthCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// newContactService builds the reconciliation service. reg may be nil for
// one-shot commands.
func newContactService(cfg *config.Config, b *backend, logger *slog.Logger, reg prometheus.Registerer) (*service.Service, error) {
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithEvents(b.events),
		service.WithMaxAttempts(cfg.Reconcile.MaxAttempts),
		service.WithBackoff(cfg.Reconcile.InitialBackoff, cfg.Reconcile.MaxBackoff),
	}
	if reg != nil {
		opts = append(opts, service.WithMetrics(contactmetrics.New(reg)))
	}
	return service.New(b.tx, opts...)
}
