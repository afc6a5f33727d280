package resources

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	HTTPHost  string `mapstructure:"HTTP_HOST"`
	HTTPPort  string `mapstructure:"HTTP_PORT"`
	DebugHost string `mapstructure:"DEBUG_HOST"`
	DebugPort string `mapstructure:"DEBUG_PORT"`

	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	StoreSlotKey string `mapstructure:"STORE_SLOT_KEY"`

	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBName     string `mapstructure:"DB_NAME"`

	EventsTimezone string `mapstructure:"EVENTS_TIMEZONE"`
	EventsLocale   string `mapstructure:"EVENTS_LOCALE"`
	PruneSchedule  string `mapstructure:"PRUNE_SCHEDULE"`
	SeedFile       string `mapstructure:"SEED_FILE"`

	AdminUser         string `mapstructure:"ADMIN_USER"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	OtelEnabled  bool   `mapstructure:"OTEL_ENABLED"`
	OtelEndpoint string `mapstructure:"OTEL_ENDPOINT"`
}

var defaults = map[string]any{
	"APP_ENV":             "local",
	"LOG_LEVEL":           "info",
	"HTTP_HOST":           "localhost",
	"HTTP_PORT":           "8080",
	"DEBUG_HOST":          "localhost",
	"DEBUG_PORT":          "6060",
	"STORE_DRIVER":        "memory",
	"STORE_SLOT_KEY":      "events",
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "",
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_NAME":             "eventmappr",
	"EVENTS_TIMEZONE":     "Local",
	"EVENTS_LOCALE":       "en",
	"PRUNE_SCHEDULE":      "@every 15m",
	"SEED_FILE":           "",
	"ADMIN_USER":          "admin",
	"ADMIN_PASSWORD_HASH": "",
	"OTEL_ENABLED":        false,
	"OTEL_ENDPOINT":       "localhost:4317",
}

// LoadConfig reads the environment, and CONFIG_FILE when set, over the defaults.
func LoadConfig(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.EventsTimezone == "" || strings.EqualFold(c.EventsTimezone, "local") {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.EventsTimezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.EventsTimezone, err)
	}

	return loc, nil
}

// Default loads the configuration and installs the base logger, which is returned inside ctx.
func Default(ctx context.Context, name string, version string) (context.Context, *Config, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().
		Str("service", name).Str("version", version).Logger()
	zerolog.DefaultContextLogger = &log.Logger

	cfg, err := LoadConfig(viper.GetViper())
	if err != nil {
		return log.Logger.WithContext(ctx), nil, err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	log.Logger = log.Logger.With().Str("env", cfg.Env).Logger()

	return log.Logger.WithContext(ctx), cfg, nil
}
