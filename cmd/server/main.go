package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/subosito/gotenv"

	"github.com/warebase/backoffice/internal/config"
	"github.com/warebase/backoffice/internal/domain/catalog"
	"github.com/warebase/backoffice/internal/domain/ledger"
	"github.com/warebase/backoffice/internal/infra/db"
	httpx "github.com/warebase/backoffice/internal/infra/http"
	"github.com/warebase/backoffice/internal/infra/logger"
	"github.com/warebase/backoffice/internal/infra/recorder"
	"github.com/warebase/backoffice/internal/report"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// secondary store only: the ledger stays correct without it
		log.Warn("redis unavailable, movement/audit trail degraded", "err", err)
	}

	store := ledger.NewPgStore(pool, time.Duration(cfg.Ledger.LockTimeoutMS)*time.Millisecond)
	movements := recorder.NewMovementRecorder(rdb, log)
	audit := recorder.NewAuditRecorder(rdb, log)
	engine := ledger.NewEngine(store, movements, audit, log)
	queries := ledger.NewQueryService(pool)
	api := httpx.NewAPI(engine, queries, movements, log)
	cat := httpx.NewCatalogAPI(catalog.NewRepo(pool))

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, api, cat, report.NewExporter(queries), log)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	waitShutdown(ctx, srv, log)
}

func waitShutdown(ctx context.Context, srv *httpx.Server, log *slog.Logger) {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
