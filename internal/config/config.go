package config

import (
	"ctchen222/tictactoe/internal/validator"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	HTTP      HTTP      `yaml:"http"`
	Store     Store     `yaml:"store"`
	Redis     Redis     `yaml:"redis"`
	SQLite    SQLite    `yaml:"sqlite"`
	Session   Session   `yaml:"session"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s" validate:"gt=0"`
}

type Store struct {
	Backend       string        `yaml:"backend" env:"STORE_BACKEND" env-default:"memory" validate:"oneof=memory redis sqlite"`
	SessionTTL    time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"1h" validate:"gt=0"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"SWEEP_INTERVAL" env-default:"1m" validate:"gt=0"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"./sessions.db"`
}

type Session struct {
	// Secret signs session tokens. Left empty, a random secret is generated
	// at start-up and tokens do not survive a restart.
	Secret     string `yaml:"secret" env:"SESSION_SECRET" validate:"omitempty,min=16"`
	CookieName string `yaml:"cookie-name" env:"SESSION_COOKIE" env-default:"ttt_session" validate:"required"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317" validate:"required_if=Enabled true"`
	Stdout      bool   `yaml:"stdout" env:"OTEL_STDOUT" env-default:"false"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tic-tac-toe"`
}

// Load reads path (YAML) layered with environment variables. An empty path, or
// a path that does not exist, falls back to environment and defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("unable to load config file: %w", err)
			}
			return cfg, validate(cfg)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unable to stat config file: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("unable to read environment: %w", err)
	}
	return cfg, validate(cfg)
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func validate(cfg *Config) error {
	if err := validator.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
