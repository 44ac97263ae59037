/*
Package config loads server configuration.

SOURCES (later wins):
  1. built-in defaults
  2. optional config file (YAML/JSON/TOML, --config)
  3. .env in the working directory (missing file ignored)
  4. environment variables prefixed PLANNER_ (PLANNER_DB_PATH, ...)
  5. command-line flags bound by cmd/server

KEYS:
  port               HTTP port                         (8080)
  db_path            SQLite database file              (./data/planner.db)
  store              live backend: sqlite | memory     (sqlite)
  scenario_store     sqlite | redis | memory           (sqlite)
  redis_addr         host:port for scenario_store=redis
  redis_password, redis_db
  log_level          debug | info | warn | error       (info)
  log_development    console encoder instead of JSON   (false)
  persist_timeout    bound on every collaborator call  (10s)
  cors_origins       allowed origins                   (localhost dev servers)
  seed_file          JSON working set written to the live store at startup
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "PLANNER"

type Config struct {
	Port           int           `mapstructure:"port"`
	DBPath         string        `mapstructure:"db_path"`
	Store          string        `mapstructure:"store"`
	ScenarioStore  string        `mapstructure:"scenario_store"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
	LogLevel       string        `mapstructure:"log_level"`
	LogDevelopment bool          `mapstructure:"log_development"`
	PersistTimeout time.Duration `mapstructure:"persist_timeout"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	SeedFile       string        `mapstructure:"seed_file"`
}

var (
	ErrInvalidPort    = errors.New("port must be between 1 and 65535")
	ErrInvalidBackend = errors.New("unknown store backend")
	ErrInvalidTimeout = errors.New("persist_timeout must be positive")
	ErrMissingRedis   = errors.New("redis_addr is required when scenario_store=redis")
)

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "./data/planner.db")
	v.SetDefault("store", "sqlite")
	v.SetDefault("scenario_store", "sqlite")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)
	v.SetDefault("persist_timeout", 10*time.Second)
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("seed_file", "")
}

// New returns a viper instance with defaults and environment binding, and
// .env loaded into the process environment.
func New() *viper.Viper {
	_ = godotenv.Load(".env")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional file at path into v and decodes the result.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	// Comma-separated env values arrive as a single element.
	if len(c.CORSOrigins) == 1 && strings.Contains(c.CORSOrigins[0], ",") {
		c.CORSOrigins = strings.Split(c.CORSOrigins[0], ",")
	}
	return c, c.Validate()
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	switch c.Store {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("store=%q: %w", c.Store, ErrInvalidBackend)
	}
	switch c.ScenarioStore {
	case "sqlite", "memory":
	case "redis":
		if c.RedisAddr == "" {
			return ErrMissingRedis
		}
	default:
		return fmt.Errorf("scenario_store=%q: %w", c.ScenarioStore, ErrInvalidBackend)
	}
	if c.PersistTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
