package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"arbmonitor/internal/adapters"
	"arbmonitor/internal/adapters/cache"
	"arbmonitor/internal/adapters/discord"
	"arbmonitor/internal/adapters/exchange"
	"arbmonitor/internal/adapters/postgres"
	"arbmonitor/internal/adapters/sqlite"
	"arbmonitor/internal/api"
	"arbmonitor/internal/api/handler"
	"arbmonitor/internal/config"
	"arbmonitor/internal/domain"
	"arbmonitor/internal/monitor"
	"arbmonitor/internal/platform/db"
	httpserver "arbmonitor/internal/platform/http"
	"arbmonitor/internal/platform/logger"
	"arbmonitor/internal/platform/ws"
	"arbmonitor/internal/sink"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const batchCacheSize = 16

// Run wires one monitor of the given type and blocks until SIGINT/SIGTERM.
func Run(monitorType domain.MonitorType, flags *pflag.FlagSet) error {
	appCfg, err := config.Init(flags)
	if err != nil {
		return err
	}
	logCloser := logger.Setup(appCfg.Logging, appCfg.Monitor.Debug)
	defer func() { _ = logCloser.Close() }()
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect, migrations)
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	res := Resources{
		ExchangeOptions: exchange.Options{
			HTTPClient:        &http.Client{Timeout: httpTimeout},
			RequestsPerSecond: appCfg.HTTPClient.RequestsPerSecond,
		},
	}

	// Storage, only opened when a database sink needs it
	if SinkConfigured(appCfg, monitorType, SinkDatabase) {
		repo, closeRepo, repoErr := openRepository(startupCtx, appCfg)
		if repoErr != nil {
			logrus.WithError(repoErr).Error("Error opening storage")
			return repoErr
		}
		defer closeRepo()
		res.Repository = repo
		logrus.Infof("✅ %s storage ready", appCfg.Storage.Driver)
	}

	batchCache, err := cache.NewBatchCache(batchCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create batch cache: %w", err)
	}
	defer batchCache.Close()
	res.Cache = batchCache

	apiEnabled := appCfg.HTTPServer.Port != ""
	var hub *ws.Hub
	if apiEnabled {
		hub = ws.NewHub()
		defer hub.Close()
		res.Publisher = hub
	}

	if appCfg.Discord.WebhookURL != "" {
		notifier, notifierErr := discord.NewWebhookNotifier(appCfg.Discord.WebhookURL)
		if notifierErr != nil {
			return fmt.Errorf("failed to create discord notifier: %w", notifierErr)
		}
		defer notifier.Close()
		res.Notifier = notifier
	}

	monCfg, err := BuildMonitorConfiguration(appCfg, monitorType, res)
	if err != nil {
		logrus.WithError(err).Error("Invalid monitor configuration")
		return err
	}
	if apiEnabled && !SinkConfigured(appCfg, monitorType, SinkCache) {
		logrus.Debug("Adding cache action for the HTTP API")
		monCfg.UpdateActions = append(monCfg.UpdateActions, sink.NewCacheSink(res.Cache))
	}

	mon, err := monitor.New(monitorType, monCfg)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"type":    monitorType,
		"sources": len(monCfg.PriceSources),
		"routes":  len(monCfg.TriangularRoutes),
		"actions": len(monCfg.UpdateActions),
	}).Info("✅ Monitor configured")

	scheduler := monitor.NewScheduler(mon, monCfg.PollInterval)
	// Ensure scheduler stops before storage closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Info("✅ Scheduler activation successful")

	if !apiEnabled {
		<-ctx.Done()
		logrus.Info("Shutting down monitor")
		return nil
	}

	router := api.NewRouter(handler.NewHandler(batchCache, mon), hub)
	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

// openRepository applies migrations and returns the spread repository for the
// configured driver together with its close func.
func openRepository(ctx context.Context, cfg *config.AppConfig) (adapters.SpreadRepository, func(), error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case config.StoragePostgres:
		sqlDB, err := goose.OpenDBWithDriver("pgx", cfg.DbServer.DSN())
		if err != nil {
			return nil, nil, err
		}
		migrateErr := db.Migrate(ctx, sqlDB, db.DialectPostgres)
		_ = sqlDB.Close()
		if migrateErr != nil {
			return nil, nil, migrateErr
		}

		pool, err := db.CreatePoolAndPing(ctx, cfg.DbServer)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSpreadRepository(pool), pool.Close, nil
	case config.StorageSQLite:
		conn, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewSpreadRepository(conn), func() { _ = conn.Close() }, nil
	}
	return nil, nil, errors.New("unsupported storage driver " + cfg.Storage.Driver)
}
