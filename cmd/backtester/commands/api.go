package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/WENLIN-CHANG/BackTester/internal/api"
	"github.com/WENLIN-CHANG/BackTester/internal/api/handlers"
	"github.com/WENLIN-CHANG/BackTester/internal/history"
	"github.com/WENLIN-CHANG/BackTester/internal/marketdata"
	"github.com/WENLIN-CHANG/BackTester/internal/scheduler"
	"github.com/WENLIN-CHANG/BackTester/internal/scheduler/jobs"
	"github.com/WENLIN-CHANG/BackTester/internal/service"
	"github.com/WENLIN-CHANG/BackTester/pkg/config"
	"github.com/WENLIN-CHANG/BackTester/pkg/database"
	"github.com/WENLIN-CHANG/BackTester/pkg/httputil"
	"github.com/WENLIN-CHANG/BackTester/pkg/logger"
	"github.com/WENLIN-CHANG/BackTester/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the backtest REST API server.

Endpoints:
  GET  /health        - Health check
  POST /api/backtest  - Run a backtest batch

Example:
  go run ./cmd/backtester api
  go run ./cmd/backtester api --port 8000`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Run history repository (optional)
	var historyRepo *history.Repository
	var sched *scheduler.Scheduler
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		historyRepo = history.NewRepository(db.Pool)
		if err := historyRepo.EnsureSchema(cmd.Context()); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}

		sched = scheduler.New(log)
		pruneJob := jobs.NewHistoryPruneJob(historyRepo, cfg.History.Retention, log)
		if err := sched.AddJob(pruneJob); err != nil {
			return fmt.Errorf("add prune job: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		log.Infof("Run history enabled (retention %s)", cfg.History.Retention)
	}

	// 4. Price cache (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	if !redisClient.Enabled() {
		log.Warn("Price cache disabled, every request hits Yahoo (set REDIS_ENABLED=true)")
	}

	// 5. Market data provider
	httpClient := httputil.New(log, cfg.Yahoo.Timeout)
	yahooClient := marketdata.NewYahooClient(cfg.Yahoo, httpClient, log)
	priceCache := redis.NewCache(redisClient, "backtester")
	provider := marketdata.NewCachedProvider(yahooClient, priceCache, cfg.Cache.TTL, log)

	// 6. Service + handler + router
	svc := newBacktestService(provider, historyRepo, log)
	backtestHandler := handlers.NewBacktestHandler(svc, log)
	healthHandler := newHealthHandler(db, log)
	router := api.NewRouter(backtestHandler, healthHandler, log)

	// 7. Start server
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 8. Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// newBacktestService builds the service, skipping the recorder when the
// repository is not configured. A typed nil must not become a non-nil
// interface.
func newBacktestService(provider marketdata.Provider, repo *history.Repository, log *logger.Logger) *service.BacktestService {
	if repo == nil {
		return service.NewBacktestService(provider, nil, log)
	}
	return service.NewBacktestService(provider, repo, log)
}

// newHealthHandler wires the database into the health check only when
// one is configured, for the same typed-nil reason.
func newHealthHandler(db *database.DB, log *logger.Logger) *handlers.HealthHandler {
	if db == nil {
		return handlers.NewHealthHandler(nil, log)
	}
	return handlers.NewHealthHandler(db, log)
}
