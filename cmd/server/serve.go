package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	contacthandler "id-recon/internal/contact/handler"
	"id-recon/internal/outbox"
	"id-recon/internal/platform/httpserver"
	"id-recon/internal/platform/kafka"
	"id-recon/internal/platform/metrics"
	"id-recon/internal/platform/redis"
	ratelimitmetrics "id-recon/internal/ratelimit/metrics"
	ratelimit "id-recon/internal/ratelimit/middleware"
	ratelimitmodels "id-recon/internal/ratelimit/models"
	"id-recon/internal/ratelimit/ports"
	"id-recon/internal/ratelimit/store/bucket"
	httptransport "id-recon/internal/transport/http"
	"id-recon/pkg/platform/circuit"
)

const bucketSweepInterval = time.Minute

func newServeCommand(root *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if migrate {
				root.cfg.Database.MigrateOnStart = true
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, root)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, root *rootOptions) error {
	cfg, log := root.cfg, root.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	kafkaClient, err := kafka.NewClient(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafka.EnsureTopic(ctx, kafkaClient, cfg.Kafka); err != nil {
			return err
		}
	}

	b, err := openBackend(ctx, cfg, log, kafkaClient != nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Error("failed to close contact store", "error", err)
		}
	}()

	redisClient, err := redis.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		b.health["redis"] = redisClient.Health
	}

	svc, err := newContactService(cfg, b, log, reg)
	if err != nil {
		return err
	}

	var handlerOpts []contacthandler.Option
	var localBuckets *bucket.InMemoryBucketStore
	if cfg.RateLimit.Enabled {
		localBuckets = bucket.NewInMemoryBucketStore()
		var primary ports.BucketStore = localBuckets
		var limiterOpts []ratelimit.Option
		limiterOpts = append(limiterOpts, ratelimit.WithMetrics(ratelimitmetrics.New(reg)))
		if redisClient != nil {
			primary = bucket.NewRedisBucketStore(redisClient.Client)
			limiterOpts = append(limiterOpts, ratelimit.WithFallback(localBuckets, circuit.New("ratelimit-redis")))
		}
		limiter := ratelimit.New(primary, ratelimitmodels.Limit{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		}, log, limiterOpts...)
		handlerOpts = append(handlerOpts, contacthandler.WithGuard(limiter.Limit("identify")))
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Contacts:       contacthandler.New(svc, log, handlerOpts...),
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		HealthChecks:   b.health,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if kafkaClient != nil && b.outbox != nil {
		relay := outbox.NewRelay(b.outbox, outbox.NewKafkaPublisher(kafkaClient, cfg.Kafka.Topic),
			outbox.WithLogger(log),
			outbox.WithMetrics(outbox.NewMetrics(reg)),
			outbox.WithInterval(cfg.Kafka.RelayInterval),
			outbox.WithBatchSize(cfg.Kafka.RelayBatchSize),
		)
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	if localBuckets != nil {
		g.Go(func() error {
			ticker := time.NewTicker(bucketSweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					localBuckets.Sweep()
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
