package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Acquisition AcquisitionConfig `mapstructure:"acquisition"`
	StreetView  StreetViewConfig  `mapstructure:"streetview"`
	Places      PlacesConfig      `mapstructure:"places"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Valkey      ValkeyConfig      `mapstructure:"valkey"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Temporal    TemporalConfig    `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AcquisitionConfig bounds one run of the acquisition pipeline.
type AcquisitionConfig struct {
	Target              int           `mapstructure:"target"`
	MaxAttempts         int           `mapstructure:"max_attempts"`
	Workers             int           `mapstructure:"workers"`
	SubmitDelay         time.Duration `mapstructure:"submit_delay"`
	FallbackProbability float64       `mapstructure:"fallback_probability"`
	Seed                int64         `mapstructure:"seed"`
	ProgressEvery       int           `mapstructure:"progress_every"`
	Deadline            time.Duration `mapstructure:"deadline"`
}

// StreetViewConfig configures the imagery metadata probe.
type StreetViewConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	OutdoorOnly     bool          `mapstructure:"outdoor_only"`
	VerdictCacheTTL time.Duration `mapstructure:"verdict_cache_ttl"`
}

// PlacesConfig selects where candidate points come from.
type PlacesConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	MinPopulation int64  `mapstructure:"min_population"`
}

// StorageConfig selects where the corpus and daily selections live.
type StorageConfig struct {
	Backend      string        `mapstructure:"backend"`
	CorpusPath   string        `mapstructure:"corpus_path"`
	DailyBackend string        `mapstructure:"daily_backend"`
	DailyDir     string        `mapstructure:"daily_dir"`
	DailyTTL     time.Duration `mapstructure:"daily_ttl"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort      string `mapstructure:"host_port"`
	Namespace     string `mapstructure:"namespace"`
	TaskQueue     string `mapstructure:"task_queue"`
	Cron          string `mapstructure:"cron"`
	LookaheadDays int    `mapstructure:"lookahead_days"`
}

// Backend names accepted by places.backend, storage.backend and storage.daily_backend.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendValkey   = "valkey"
	BackendMemory   = "memory"
)

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: STREETPOOL_STREETVIEW_API_KEY → streetview.api_key
	v.SetEnvPrefix("STREETPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return unmarshal(v)
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("acquisition.target", 1000)
	v.SetDefault("acquisition.max_attempts", 10000)
	v.SetDefault("acquisition.workers", 12)
	v.SetDefault("acquisition.submit_delay", 100*time.Millisecond)
	v.SetDefault("acquisition.fallback_probability", 0.25)
	v.SetDefault("acquisition.seed", 0)
	v.SetDefault("acquisition.progress_every", 50)
	v.SetDefault("acquisition.deadline", 0)
	v.SetDefault("streetview.api_key", "")
	v.SetDefault("streetview.base_url", "https://maps.googleapis.com/maps/api/streetview/metadata")
	v.SetDefault("streetview.timeout", 5*time.Second)
	v.SetDefault("streetview.outdoor_only", true)
	v.SetDefault("streetview.verdict_cache_ttl", 24*time.Hour)
	v.SetDefault("places.backend", BackendFile)
	v.SetDefault("places.path", "./data/cities15000.zip")
	v.SetDefault("places.min_population", 0)
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.corpus_path", "streetview_locations.json")
	v.SetDefault("storage.daily_backend", BackendFile)
	v.SetDefault("storage.daily_dir", ".")
	v.SetDefault("storage.daily_ttl", 0)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "streetpool")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "streetpool")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "daily-rollover")
	v.SetDefault("temporal.cron", "5 0 * * *")
	v.SetDefault("temporal.lookahead_days", 1)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	a := c.Acquisition
	if a.Target <= 0 {
		errs = append(errs, fmt.Sprintf("acquisition.target must be positive, got %d", a.Target))
	}
	if a.MaxAttempts <= 0 {
		errs = append(errs, fmt.Sprintf("acquisition.max_attempts must be positive, got %d", a.MaxAttempts))
	}
	if a.Workers < 1 || a.Workers > 256 {
		errs = append(errs, fmt.Sprintf("acquisition.workers must be 1-256, got %d", a.Workers))
	}
	if a.SubmitDelay < 0 {
		errs = append(errs, "acquisition.submit_delay must not be negative")
	}
	if a.FallbackProbability < 0 || a.FallbackProbability > 1 {
		errs = append(errs, fmt.Sprintf("acquisition.fallback_probability must be in [0,1], got %g", a.FallbackProbability))
	}
	if a.Deadline < 0 {
		errs = append(errs, "acquisition.deadline must not be negative")
	}

	if c.StreetView.BaseURL == "" {
		errs = append(errs, "streetview.base_url is required")
	}
	if c.StreetView.Timeout <= 0 {
		errs = append(errs, "streetview.timeout must be positive")
	}

	if !oneOf(c.Places.Backend, BackendFile, BackendPostgres) {
		errs = append(errs, fmt.Sprintf("places.backend must be file or postgres, got %q", c.Places.Backend))
	}
	if c.Places.Backend == BackendFile && c.Places.Path == "" {
		errs = append(errs, "places.path is required for the file backend")
	}
	if !oneOf(c.Storage.Backend, BackendFile, BackendPostgres) {
		errs = append(errs, fmt.Sprintf("storage.backend must be file or postgres, got %q", c.Storage.Backend))
	}
	if c.Storage.Backend == BackendFile && c.Storage.CorpusPath == "" {
		errs = append(errs, "storage.corpus_path is required for the file backend")
	}
	if !oneOf(c.Storage.DailyBackend, BackendFile, BackendPostgres, BackendValkey, BackendMemory) {
		errs = append(errs, fmt.Sprintf("storage.daily_backend must be file, postgres, valkey or memory, got %q", c.Storage.DailyBackend))
	}

	if c.UsesPostgres() {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
		if c.Database.MaxConns < 0 || c.Database.MinConns < 0 {
			errs = append(errs, "database.max_conns and database.min_conns must not be negative")
		}
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// RequireProbe checks the settings only needed by commands that call the
// imagery metadata service.
func (c *Config) RequireProbe() error {
	if c.StreetView.APIKey == "" {
		return fmt.Errorf("config validation failed:\n  - streetview.api_key is required")
	}
	return nil
}

// UsesPostgres reports whether any backend needs the database.
func (c *Config) UsesPostgres() bool {
	return c.Places.Backend == BackendPostgres ||
		c.Storage.Backend == BackendPostgres ||
		c.Storage.DailyBackend == BackendPostgres
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
