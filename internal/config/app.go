package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultConfigFile = "config.yaml"

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// DSN is the plain libpq connection string, usable by database/sql drivers.
func (config *DbServer) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

func (config *DbServer) GetConnectionStr() string {
	maxConns := config.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	return fmt.Sprintf("%s pool_max_conns=%d", config.DSN(), maxConns)
}

type HTTPClient struct {
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type Logging struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Storage struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type Monitor struct {
	PollIntervalSeconds float64 `mapstructure:"poll_interval_seconds"`
	MinSpread           float64 `mapstructure:"min_spread"`
	Workers             int     `mapstructure:"workers"`
	RequestTimeoutSecs  int     `mapstructure:"request_timeout_seconds"`
	Debug               bool    `mapstructure:"debug"`
}

type Source struct {
	Exchange string `mapstructure:"exchange"`
	Pair     string `mapstructure:"pair"`
}

// Sink describes one update action. MinSpread is optional; nil keeps every record.
type Sink struct {
	Type      string   `mapstructure:"type"`
	Path      string   `mapstructure:"path"`
	Mode      string   `mapstructure:"mode"`
	MinSpread *float64 `mapstructure:"min_spread"`
}

type Inter struct {
	Sources []Source `mapstructure:"sources"`
	Sinks   []Sink   `mapstructure:"sinks"`
}

type Route struct {
	Exchange string   `mapstructure:"exchange"`
	Symbols  []string `mapstructure:"symbols"`
}

type Tri struct {
	Routes []Route `mapstructure:"routes"`
	Sinks  []Sink  `mapstructure:"sinks"`
}

type Discord struct {
	WebhookURL      string `mapstructure:"webhook_url"`
	CooldownSeconds int    `mapstructure:"cooldown_seconds"`
}

type Supervisor struct {
	PIDDir string `mapstructure:"pid_dir"`
}

type AppConfig struct {
	Logging    Logging    `mapstructure:"logging"`
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	Storage    Storage    `mapstructure:"storage"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	Monitor    Monitor    `mapstructure:"monitor"`
	Inter      Inter      `mapstructure:"inter"`
	Tri        Tri        `mapstructure:"tri"`
	Discord    Discord    `mapstructure:"discord"`
	Supervisor Supervisor `mapstructure:"supervisor"`
}

// RegisterFlags adds the flags Init understands.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", DefaultConfigFile, "path to the YAML config file")
	flags.String("http-port", "", "HTTP port for the read-only API, empty disables it")
	flags.Bool("debug", false, "log per-item failures")
}

// Init loads .env (optional), the YAML config file, env overrides and flags.
// flags may be nil.
func Init(flags *pflag.FlagSet) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	configFile := DefaultConfigFile
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			configFile = f.Value.String()
		}
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	setDefaults(v)
	bindEnv(v)
	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("storage.sqlite_path", "arbitrage.db")
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("http_client.requests_per_second", 5)
	v.SetDefault("monitor.poll_interval_seconds", 5)
	v.SetDefault("monitor.min_spread", 0)
	v.SetDefault("monitor.workers", 5)
	v.SetDefault("monitor.request_timeout_seconds", 5)
	v.SetDefault("discord.cooldown_seconds", 300)
	v.SetDefault("supervisor.pid_dir", "/tmp/arbmonitor")
}

func bindEnv(v *viper.Viper) {
	// logging env vars
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.file", "LOG_FILE")

	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	_ = v.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = v.BindEnv("storage.sqlite_path", "SQLITE_PATH")

	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	_ = v.BindEnv("monitor.debug", "MONITOR_DEBUG")
	_ = v.BindEnv("monitor.poll_interval_seconds", "MONITOR_POLL_INTERVAL_SECONDS")

	_ = v.BindEnv("discord.webhook_url", "DISCORD_WEBHOOK_URL")
	_ = v.BindEnv("supervisor.pid_dir", "PID_DIR")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"http_server.port": "http-port",
		"monitor.debug":    "debug",
	}
	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("error binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// Validate checks settings that do not depend on the exchange registry.
func (c *AppConfig) Validate() error {
	var errs []error
	switch strings.ToLower(c.Storage.Driver) {
	case StoragePostgres, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.Storage.Driver))
	}
	if c.Monitor.PollIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("monitor.poll_interval_seconds must be positive, got %v", c.Monitor.PollIntervalSeconds))
	}
	for i, r := range c.Tri.Routes {
		if len(r.Symbols) != 3 {
			errs = append(errs, fmt.Errorf("tri.routes[%d] must have exactly 3 symbols, got %d", i, len(r.Symbols)))
		}
	}
	return errors.Join(errs...)
}
