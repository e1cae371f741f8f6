package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zestora/zestora-orders/internal/config"
	"github.com/zestora/zestora-orders/internal/order/engine"
	"github.com/zestora/zestora-orders/internal/order/infra/httpx"
	"github.com/zestora/zestora-orders/internal/order/notify"
	"github.com/zestora/zestora-orders/internal/order/storage"
	"github.com/zestora/zestora-orders/internal/order/storage/sqlite"
	"github.com/zestora/zestora-orders/internal/pkg/cache"
	"github.com/zestora/zestora-orders/internal/pkg/telemetry"
)

func main() {
	cfg := config.Load()
	logger := telemetry.SetupLogger("order-service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "order-service"))
	if err != nil {
		logger.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", "error", err)
		}
	}()

	var store storage.Store
	if cfg.SQLitePath != "" {
		sqlStore, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open order store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		store = sqlStore
	} else {
		logger.Warn("SQLITE_PATH not set, orders will not survive a restart")
		store = storage.NewMemoryStore()
	}

	var idem cache.Cache
	if cfg.RedisAddr != "" {
		idem = cache.NewRedis(cfg.RedisAddr, "orders")
	} else {
		idem = cache.NewMemory()
	}

	eng := engine.New(engine.Config{
		TotalEtaMinutes:     cfg.TotalEtaMinutes,
		HandoffAfterMinutes: cfg.HandoffAfterMinutes,
		SimMinute:           cfg.SimMinute,
		PartnerTick:         cfg.PartnerTick,
		PartnerStepFactor:   cfg.PartnerStepFactor,
		IdempotencyTTL:      cfg.IdempotencyTTL,
	}, store, idem, nil, logger)
	if err := eng.Load(ctx); err != nil {
		logger.Error("failed to load order collection", "error", err)
		os.Exit(1)
	}
	eng.Start()
	defer eng.Close()

	events, cancelEvents := eng.Subscribe()
	defer cancelEvents()
	go notify.Forward(ctx, events, notify.LogSink{Log: logger})

	handler := httpx.NewHandler(eng, logger)
	server := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
	}()

	logger.Info("order service running", "addr", cfg.HTTPListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
