// Package config loads service configuration from an optional YAML file and
// RESERVATIONS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/room-reservations/internal/logging"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Booking BookingConfig `yaml:"booking"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
	Rooms   []RoomConfig  `yaml:"rooms"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RequestIPHeader string        `yaml:"request_ip_header"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects and tunes the persistence backend.
type StoreConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AuthConfig holds identity provider and admin gate settings.
type AuthConfig struct {
	TokenSecret   string        `yaml:"token_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminSecret   string        `yaml:"admin_secret"`
	AdminCacheTTL time.Duration `yaml:"admin_cache_ttl"`
}

// BookingConfig holds reservation rules.
type BookingConfig struct {
	RejectedBlocksSlot bool `yaml:"rejected_blocks_slot"`
}

// ExportConfig schedules the nightly CSV export.
type ExportConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	Schedule string `yaml:"schedule"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// RoomConfig is a room seeded into the catalog at startup.
type RoomConfig struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Capacity int      `yaml:"capacity"`
	Features []string `yaml:"features"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			RateLimitPerSec: 10,
			RateLimitBurst:  20,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    "data/reservations.db",
		},
		Auth: AuthConfig{
			TokenTTL:      12 * time.Hour,
			AdminCacheTTL: 30 * time.Second,
		},
		Booking: BookingConfig{RejectedBlocksSlot: true},
		Export: ExportConfig{
			Dir:      "exports",
			Schedule: "0 2 * * *",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if portValue := env("RESERVATIONS_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "RESERVATIONS_HTTP_PORT")
		} else {
			cfg.Server.Port = port
		}
	}

	if driver := env("RESERVATIONS_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = strings.ToLower(driver)
	}
	if dsn := env("RESERVATIONS_STORE_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
	}

	if secret := env("RESERVATIONS_TOKEN_SECRET"); secret != "" {
		cfg.Auth.TokenSecret = secret
	}
	if cfg.Auth.TokenSecret == "" {
		missing = append(missing, "RESERVATIONS_TOKEN_SECRET")
	}
	if secret := env("RESERVATIONS_ADMIN_SECRET"); secret != "" {
		cfg.Auth.AdminSecret = secret
	}

	parseDuration("RESERVATIONS_TOKEN_TTL", &cfg.Auth.TokenTTL, &invalid)
	parseDuration("RESERVATIONS_ADMIN_CACHE_TTL", &cfg.Auth.AdminCacheTTL, &invalid)

	if rateValue := env("RESERVATIONS_RATE_LIMIT"); rateValue != "" {
		rate, err := strconv.ParseFloat(rateValue, 64)
		if err != nil || rate < 0 {
			invalid = append(invalid, "RESERVATIONS_RATE_LIMIT")
		} else {
			cfg.Server.RateLimitPerSec = rate
		}
	}

	if dir := env("RESERVATIONS_EXPORT_DIR"); dir != "" {
		cfg.Export.Dir = dir
	}
	if schedule := env("RESERVATIONS_EXPORT_SCHEDULE"); schedule != "" {
		cfg.Export.Schedule = schedule
	}
	parseBool("RESERVATIONS_EXPORT_ENABLED", &cfg.Export.Enabled, &invalid)
	parseBool("RESERVATIONS_REJECTED_BLOCKS", &cfg.Booking.RejectedBlocksSlot, &invalid)

	if level := env("RESERVATIONS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		invalid = append(invalid, "RESERVATIONS_LOG_LEVEL")
	}

	if cfg.Store.Driver != DriverSQLite && cfg.Store.Driver != DriverPostgres {
		invalid = append(invalid, "RESERVATIONS_STORE_DRIVER")
	}
	if cfg.Store.DSN == "" {
		missing = append(missing, "RESERVATIONS_STORE_DSN")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の設定値がありません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("設定値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseDuration(key string, target *time.Duration, invalid *[]string) {
	value := env(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		*invalid = append(*invalid, key)
		return
	}
	*target = d
}

func parseBool(key string, target *bool, invalid *[]string) {
	value := env(key)
	if value == "" {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*invalid = append(*invalid, key)
		return
	}
	*target = b
}
