/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the staffing planner server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load config (defaults, file, .env, env)
  2. Build the logger
  3. Open the live store and the scenario repository, seeding the live
     store when a seed file is configured
  4. Create the planner and load the live working set
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --config   Optional config file (YAML/JSON/TOML)
  --port     HTTP server port (default: 8080)
  --db       SQLite database path; ":memory:" for an in-memory database
  --store    Live store backend: sqlite | memory
  --scenario-store  sqlite | redis | memory
  --redis    Redis address for --scenario-store=redis
  --log-level
  --seed     JSON working set that replaces the live data at startup

  Every flag has a PLANNER_* environment equivalent, e.g. PLANNER_DB_PATH.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close store connections
  4. Exit

EXAMPLES:
  ./server --db="./data/planner.db"
  ./server --store=memory --scenario-store=memory
  ./server --store=memory --seed=./cmd/server/testdata/seed.json
  PLANNER_SCENARIO_STORE=redis PLANNER_REDIS_ADDR=localhost:6379 ./server
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/warp/staffing-planner/api"
	"github.com/warp/staffing-planner/config"
	"github.com/warp/staffing-planner/factory"
	"github.com/warp/staffing-planner/logging"
	"github.com/warp/staffing-planner/planner"
	"github.com/warp/staffing-planner/store/memory"
	redisstore "github.com/warp/staffing-planner/store/redis"
	"github.com/warp/staffing-planner/store/sqlite"
)

// liveBackend is what the planner and the demo loaders need from a store.
type liveBackend interface {
	planner.DataSource
	planner.LiveStore
	api.Admin
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	configPath := flags.String("config", "", "Config file path")
	flags.Int("port", 8080, "HTTP server port")
	flags.String("db", "./data/planner.db", "SQLite database path")
	flags.String("store", "sqlite", "Live store backend (sqlite|memory)")
	flags.String("scenario-store", "sqlite", "Scenario store backend (sqlite|redis|memory)")
	flags.String("redis", "", "Redis address")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
	flags.Bool("log-dev", false, "Human-readable console logs")
	flags.String("seed", "", "Seed file replacing the live data at startup")
	_ = flags.Parse(os.Args[1:])

	v := config.New()
	for key, flag := range map[string]string{
		"port":            "port",
		"db_path":         "db",
		"store":           "store",
		"scenario_store":  "scenario-store",
		"redis_addr":      "redis",
		"log_level":       "log-level",
		"log_development": "log-dev",
		"seed_file":       "seed",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	cfg, err := config.Load(v, *configPath)
	if err != nil {
		return err
	}

	log, flush, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer flush()

	live, closeLive, err := openLive(cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	if cfg.SeedFile != "" {
		if err := seedLive(context.Background(), live, cfg.SeedFile); err != nil {
			return err
		}
		log.Info("Live store seeded", "file", cfg.SeedFile)
	}

	scenarios, closeScenarios, err := openScenarios(cfg, live, log)
	if err != nil {
		return err
	}
	defer closeScenarios()

	p := planner.New(live, live, scenarios,
		planner.WithLogger(log.WithName("planner")),
		planner.WithPersistTimeout(cfg.PersistTimeout),
	)
	if err := p.Refresh(context.Background()); err != nil {
		log.Error(err, "Initial load failed; starting with an empty working set")
	}

	handler := api.NewHandler(p, live, log.WithName("api"))
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", cfg.Addr(), "store", cfg.Store, "scenario_store", cfg.ScenarioStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func openLive(cfg config.Config) (liveBackend, func(), error) {
	if cfg.Store == "memory" {
		return memory.NewMemory(), func() {}, nil
	}
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// seedLive replaces the live data with the working set in path.
func seedLive(ctx context.Context, live liveBackend, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	ws, err := factory.ParseSnapshot(data)
	if err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := live.Reset(ctx); err != nil {
		return fmt.Errorf("reset live store: %w", err)
	}
	return live.Seed(ctx, ws)
}

// openScenarios picks the scenario repository. sqlite and memory reuse the
// live backend when it is of the same kind.
func openScenarios(cfg config.Config, live liveBackend, log logr.Logger) (planner.ScenarioRepository, func(), error) {
	switch cfg.ScenarioStore {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		log.Info("Scenario store connected", "backend", "redis", "addr", cfg.RedisAddr)
		return redisstore.NewScenarioRepository(client), func() { _ = client.Close() }, nil
	case "memory":
		if m, ok := live.(*memory.Memory); ok {
			return m, func() {}, nil
		}
		return memory.NewMemory(), func() {}, nil
	default:
		if s, ok := live.(*sqlite.Store); ok {
			return s, func() {}, nil
		}
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open scenario database: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	}
}
