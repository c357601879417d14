package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type APIKey struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

type PoolConfig struct {
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

type ReportConfig struct {
	// Timezone is an IANA name; "Local" uses the process zone, which is
	// what the PBX writes calldate in.
	Timezone string `yaml:"timezone"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Console    bool   `yaml:"console"`
	JSON       bool   `yaml:"json"`
}

type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	DBDSN      string        `yaml:"db_dsn"`
	Pool       PoolConfig    `yaml:"pool"`
	APIKeys    []APIKey      `yaml:"api_keys"`
	Report     ReportConfig  `yaml:"report"`
	Logging    LoggingConfig `yaml:"logging"`

	location *time.Location
}

// Environment overrides, applied after the file is decoded.
const (
	EnvListenAddr = "PBXAPI_LISTEN_ADDR"
	EnvDBDSN      = "PBXAPI_DB_DSN"
	EnvLogLevel   = "PBXAPI_LOG_LEVEL"
	EnvTimezone   = "PBXAPI_TIMEZONE"
)

var ErrMissingDSN = errors.New("db_dsn is required")

// Load reads the YAML file at path, applies .env and environment overrides
// and fills defaults. A missing file is fine as long as the environment
// provides the DSN.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			dec := yaml.NewDecoder(f)
			if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvListenAddr); ok && v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv(EnvDBDSN); ok && v != "" {
		cfg.DBDSN = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvTimezone); ok && v != "" {
		cfg.Report.Timezone = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Pool.MaxConns <= 0 {
		cfg.Pool.MaxConns = 20
	}
	if cfg.Pool.MinConns <= 0 {
		cfg.Pool.MinConns = 5
	}
	if cfg.Pool.MinConns > cfg.Pool.MaxConns {
		cfg.Pool.MinConns = cfg.Pool.MaxConns
	}
	if cfg.Pool.MaxConnLifetime <= 0 {
		cfg.Pool.MaxConnLifetime = 30 * time.Minute
	}
	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "Local"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.Console = true
	}
}

func (c *Config) validate() error {
	if c.DBDSN == "" {
		return ErrMissingDSN
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return fmt.Errorf("report.timezone %q: %w", c.Report.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location is the zone report windows are computed in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}
