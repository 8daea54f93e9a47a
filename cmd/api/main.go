package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/client"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/config"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/db"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/http"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/logging"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/metrics"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/otel"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/repository"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Info().Msg("Starting CPanel Fulfillment Service...")

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	dsn := cfg.Database.DSN()
	if err := db.RunMigrations(dsn); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := db.NewPool(ctx, dsn, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.RegisterPgxPoolMetrics(reg, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to register pool metrics")
	}

	// Repositories
	configRepo := repository.NewOrderProductConfigRepository(pool)
	logRepo := repository.NewLogRepository(pool)

	// WHM client
	whm, err := client.NewCPanelClient(cfg.CPanel, reg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create cpanel client")
	}

	svc := service.NewCPanelService(cfg.CPanel, whm, configRepo, logRepo, logger)

	server, err := http.NewServer(cfg, svc, reg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create http server")
	}

	httpServer := &nethttp.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracing shutdown failed")
	}

	logger.Info().Msg("server exited")
}
