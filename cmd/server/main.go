package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"famtree/internal/changefeed"
	historyhandler "famtree/internal/history/handler"
	historymetrics "famtree/internal/history/metrics"
	historyservice "famtree/internal/history/service"
	historystore "famtree/internal/history/store"
	httpapi "famtree/internal/http"
	jwttoken "famtree/internal/jwt_token"
	ownerhandler "famtree/internal/owner/handler"
	ownerservice "famtree/internal/owner/service"
	ownerstore "famtree/internal/owner/store"
	personhandler "famtree/internal/person/handler"
	personmetrics "famtree/internal/person/metrics"
	personservice "famtree/internal/person/service"
	"famtree/internal/platform/config"
	"famtree/internal/platform/httpserver"
	"famtree/internal/platform/logger"
	"famtree/internal/platform/metrics"
	"famtree/internal/platform/ownerlock"
	"famtree/internal/platform/postgres"
	"famtree/internal/platform/redis"
	"famtree/pkg/platform/tx"
)

// ownerBackend is what both the owner and the graph services need from the
// owner store.
type ownerBackend interface {
	ownerservice.Store
	personservice.Store
}

// main wires configuration, stores and services, then serves HTTP until a
// shutdown signal arrives.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := metrics.NewRegistry()
	checks := map[string]httpapi.HealthCheck{}

	var (
		owners  ownerBackend
		changes historyservice.Store
		runner  tx.Runner = tx.NopRunner{}
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer closeDB(db, log)
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		owners = ownerstore.NewPostgres(db)
		changes = historystore.NewPostgres(db)
		runner = tx.NewSQLRunner(db)
		checks["postgres"] = db.PingContext
		log.Info("using postgres stores")
	} else {
		owners = ownerstore.NewInMemory()
		changes = historystore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var locker ownerlock.Locker = ownerlock.NewSharded(cfg.RequestTimeout)
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		locker = redisClient.OwnerLocker(cfg.LockTTL, cfg.RequestTimeout)
		checks["redis"] = redisClient.Health
		log.Info("using redis owner lock")
	}

	var publisher personservice.ChangePublisher = changefeed.Nop{}
	if cfg.Kafka.Enabled() {
		client, err := changefeed.NewClient(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.PublishTimeout)
		if err != nil {
			return fmt.Errorf("kafka client: %w", err)
		}
		defer client.Close()
		if err := changefeed.EnsureTopic(ctx, client, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return fmt.Errorf("ensure change feed topic: %w", err)
		}
		publisher = changefeed.NewPublisher(client, cfg.Kafka.Topic, log)
		checks["kafka"] = client.Ping
		log.Info("change feed enabled", "topic", cfg.Kafka.Topic)
	}

	hm := historymetrics.New(reg)
	persons := personservice.New(owners,
		personservice.WithLogger(log),
		personservice.WithMetrics(personmetrics.New(reg)),
		personservice.WithRecorder(historyservice.NewRecorder(changes, hm)),
		personservice.WithPublisher(publisher),
		personservice.WithTxRunner(runner),
		personservice.WithStoreTimeout(cfg.StoreTimeout),
		personservice.WithPublishTimeout(cfg.Kafka.PublishTimeout),
	)
	history := historyservice.New(changes, persons,
		historyservice.WithLogger(log),
		historyservice.WithMetrics(hm),
	)
	ownerSvc := ownerservice.New(owners, ownerservice.WithLogger(log))

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:    log,
		Validator: jwttoken.NewJWTServiceAdapter(tokens),
		Registry:  reg,
		Owners:    ownerhandler.New(ownerSvc, locker, log),
		Persons:   personhandler.New(persons, log),
		History:   historyhandler.New(history, log),
		Checks:    checks,

		RequestTimeout: cfg.RequestTimeout,
	})
	srv := httpserver.New(cfg.Addr, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting famtree", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Warn("failed to close database", "error", err)
	}
}
