package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/billing-api/internal/billing"
	"github.com/noah-isme/billing-api/internal/config"
	"github.com/noah-isme/billing-api/internal/jobs"
	"github.com/noah-isme/billing-api/internal/obs"
	"github.com/noah-isme/billing-api/internal/tax"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics("billing", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool := mustInitDatabase(ctx, cfg, logger)
	cancel()
	defer pool.Close()

	policy := tax.NewPolicy()
	for label, rate := range cfg.TaxRates {
		if err := policy.Register(label, rate); err != nil {
			logger.Fatal().Err(err).Str("label", label).Msg("register tax rate")
		}
	}

	svc := &billing.Service{
		Store:     &billing.PgStore{DB: pool},
		Taxes:     policy,
		Currency:  cfg.DefaultCurrency,
		BatchSize: int32(cfg.RecurringBatchSize),
		Logger:    logger,
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	mux := asynq.NewServeMux()
	mux.Handle(jobs.TypeMaterializeRecurring, &jobs.RecurringHandler{Svc: svc, Logger: logger})

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	entry := fmt.Sprintf("@every %s", cfg.RecurringEvery)
	if _, err := scheduler.Register(entry, jobs.NewMaterializeRecurringTask()); err != nil {
		logger.Fatal().Err(err).Msg("register recurring sweep")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	defer scheduler.Shutdown()

	logger.Info().
		Str("every", cfg.RecurringEvery.String()).
		Int("concurrency", cfg.WorkerConcurrency).
		Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "billing-worker"
	poolConfig.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}
