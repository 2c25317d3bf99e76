package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"clinic-reservation-backend/internal/week"
)

// Config represents the overall application configuration.
type Config struct {
	Env         string            `yaml:"env"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Reservation ReservationConfig `yaml:"reservation"`
	Push        PushConfig        `yaml:"push"`
	WorkerPool  WorkerPoolConfig  `yaml:"worker_pool"`
	Client      ClientConfig      `yaml:"client"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                  int           `yaml:"port"`
	RateLimitPerSec       float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst        int           `yaml:"rate_limit_burst"`
	ReserveLimitPerMinute int           `yaml:"reserve_limit_per_minute"`
	CacheTTLSeconds       int           `yaml:"cache_ttl_seconds"`
	CacheTTL              time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	// ApplyConstraints runs the SQL migrations after AutoMigrate. Unset
	// means on for postgres and off otherwise.
	ApplyConstraints *bool  `yaml:"apply_constraints"`
	LogLevel         string `yaml:"log_level"`
}

// Constraints reports whether the SQL migrations should run.
func (c DatabaseConfig) Constraints() bool {
	if c.ApplyConstraints != nil {
		return *c.ApplyConstraints
	}
	return c.Driver == "postgres"
}

// ReservationConfig holds the placement rules and the weekly reset schedule.
type ReservationConfig struct {
	NoShowThreshold  int      `yaml:"no_show_threshold"`
	DefaultCapacity  int      `yaml:"default_capacity"`
	Timezone         string   `yaml:"timezone"`
	ResetCron        string   `yaml:"reset_cron"`
	Days             []string `yaml:"days"`
	Times            []string `yaml:"times"`
	ResyncOnConflict bool     `yaml:"resync_on_conflict"`
}

// ClientConfig holds the settings used by clinicctl to reach the server.
type ClientConfig struct {
	BaseURL                string        `yaml:"base_url"`
	HTTPProxy              string        `yaml:"http_proxy"`
	TimeoutSeconds         int           `yaml:"timeout_seconds"`
	Timeout                time.Duration `yaml:"-"`
	RefreshIntervalSeconds int           `yaml:"refresh_interval_seconds"`
	RefreshInterval        time.Duration `yaml:"-"`
}

// Location resolves the configured timezone, falling back to UTC.
func (r ReservationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		log.Printf("invalid reservation.timezone %q: %v; using UTC", r.Timezone, err)
		return time.UTC
	}
	return loc
}

// GridDays parses the configured day codes in order.
func (r ReservationConfig) GridDays() ([]week.Day, error) {
	out := make([]week.Day, 0, len(r.Days))
	for _, raw := range r.Days {
		d, err := week.ParseDay(raw)
		if err != nil {
			return nil, fmt.Errorf("reservation.days: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Load reads the configuration from the given path. A .env file in the
// working directory is loaded first and selected environment variables
// override the file values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied, used when no
// config file is present.
func Default() *Config {
	var cfg Config
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CLINIC_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("CLINIC_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CLINIC_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("CLINIC_API_URL"); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := os.Getenv("CLINIC_VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv("CLINIC_VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.PrivateKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.ReserveLimitPerMinute <= 0 {
		cfg.Server.ReserveLimitPerMinute = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Reservation.NoShowThreshold <= 0 {
		cfg.Reservation.NoShowThreshold = 2
	}
	if cfg.Reservation.DefaultCapacity <= 0 {
		cfg.Reservation.DefaultCapacity = 6
	}
	if cfg.Reservation.Timezone == "" {
		cfg.Reservation.Timezone = "Asia/Seoul"
	}
	if cfg.Reservation.ResetCron == "" {
		cfg.Reservation.ResetCron = "0 0 * * 1"
	}
	if len(cfg.Reservation.Days) == 0 {
		cfg.Reservation.Days = []string{"mon", "tue", "wed", "thu", "fri"}
	}
	if len(cfg.Reservation.Times) == 0 {
		cfg.Reservation.Times = []string{"18:00", "19:00", "20:00", "21:00"}
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://localhost:8080"
	}
	if cfg.Client.TimeoutSeconds <= 0 {
		cfg.Client.TimeoutSeconds = 10
	}
	cfg.Client.Timeout = time.Duration(cfg.Client.TimeoutSeconds) * time.Second
	if cfg.Client.RefreshIntervalSeconds <= 0 {
		cfg.Client.RefreshIntervalSeconds = 30
	}
	cfg.Client.RefreshInterval = time.Duration(cfg.Client.RefreshIntervalSeconds) * time.Second
}
