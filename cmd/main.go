package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/admin"
	"github.com/frayhan94/flash-sale-ordering-system/internal/admission"
	"github.com/frayhan94/flash-sale-ordering-system/internal/clock"
	"github.com/frayhan94/flash-sale-ordering-system/internal/config"
	"github.com/frayhan94/flash-sale-ordering-system/internal/coordinator"
	"github.com/frayhan94/flash-sale-ordering-system/internal/events"
	"github.com/frayhan94/flash-sale-ordering-system/internal/orderlog"
	"github.com/frayhan94/flash-sale-ordering-system/internal/reconcile"
	"github.com/frayhan94/flash-sale-ordering-system/internal/telemetry"
	transporthttp "github.com/frayhan94/flash-sale-ordering-system/internal/transport/http"
	"github.com/frayhan94/flash-sale-ordering-system/migrations"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	logger := telemetry.InitLogger(cfg.Otel.ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracer(ctx, cfg.Otel.ServiceName, cfg.Otel.OTLPEndpoint)
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracer shutdown failed", "err", err)
		}
	}()

	db, err := sql.Open("postgres", cfg.DOL.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	waitForDB(db, logger)

	if err := migrations.Apply(ctx, db); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.FC.Addr,
		Password: cfg.FC.Password,
		DB:       cfg.FC.DB,
	})
	defer redisClient.Close()

	dol := orderlog.NewPostgresOrderLog(db)
	fc := coordinator.NewRedisCoordinator(redisClient, coordinator.Config{
		KeyPrefix: cfg.FC.KeyPrefix,
		MarkTTL:   cfg.FC.MarkTTL,
	})

	metrics := telemetry.NewMetrics()
	reconcileSvc := reconcile.NewService(fc, dol, logger)
	adminSvc := admin.NewService(dol)

	var publisher *events.Publisher
	var eventPublisher admission.EventPublisher
	if p, err := events.NewPublisher(cfg.Events.NATSURL, logger); err != nil {
		logger.Warn("nats unavailable, outcome events disabled", "err", err)
	} else {
		publisher = p
		eventPublisher = p
		defer publisher.Close()
	}

	apSvc := admission.NewService(fc, dol, clock.NewSystem(),
		admission.WithRecorder(metrics),
		admission.WithEventPublisher(eventPublisher),
		admission.WithLogger(logger),
	)

	if err := reconcileSvc.Bootstrap(ctx, cfg.Sale.DefaultSaleID); err != nil {
		logger.Error("bootstrap failed", "sale_id", cfg.Sale.DefaultSaleID, "err", err)
	}

	router := transporthttp.NewRouter(transporthttp.Deps{
		Admission:     apSvc,
		Reconcile:     reconcileSvc,
		WindowUpdater: adminSvc,
		FC:            fc,
		DOL:           dol,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		DefaultSaleID: cfg.Sale.DefaultSaleID,
	})

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.BindAddr, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}

func waitForDB(db *sql.DB, logger *slog.Logger) {
	const maxRetries = 10
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = db.Ping(); err == nil {
			return
		}
		logger.Info("waiting for database", "attempt", i+1, "max_attempts", maxRetries)
		time.Sleep(3 * time.Second)
	}
	log.Fatalf("database not available after retries: %v", err)
}
