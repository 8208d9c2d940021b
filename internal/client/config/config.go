package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bizdash/bizsync/internal/flagx"
	"github.com/spf13/pflag"
)

// Config holds runtime settings for the CLI.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration

	DBPath string

	FlushInterval   time.Duration
	FlushBatch      int
	MaxRetries      int
	BaseBackoff     time.Duration
	MaxBackoff      time.Duration
	SyncedRetention time.Duration

	LogFormat string
	LogLevel  string
}

// New returns a Config with defaults applied.
func New() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DBPath = defaultDBPath()
	c.FlushInterval = 30 * time.Second
	c.FlushBatch = 100
	c.MaxRetries = 8
	c.BaseBackoff = time.Second
	c.MaxBackoff = 5 * time.Minute
	c.SyncedRetention = 7 * 24 * time.Hour
	c.LogFormat = "slog-text"
	c.LogLevel = "warn"
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bizsync.db"
	}
	return filepath.Join(home, ".bizsync", "cache.db")
}

// RegisterFlags binds the flags to c, using the current values as
// defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.ServerEndpointAddr, "addr", "a", c.ServerEndpointAddr, "address and port of the sync server")
	fs.DurationVarP(&c.OnlineCheckInterval, "check-interval", "i", c.OnlineCheckInterval, "online status check interval")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "path of the local cache database")
	fs.DurationVar(&c.FlushInterval, "flush-interval", c.FlushInterval, "how often queued writes are retried")
	fs.IntVar(&c.FlushBatch, "flush-batch", c.FlushBatch, "queued writes replayed per flush")
	fs.IntVar(&c.MaxRetries, "max-retries", c.MaxRetries, "attempts before a queued write is marked failed")
	fs.DurationVar(&c.BaseBackoff, "base-backoff", c.BaseBackoff, "first retry delay")
	fs.DurationVar(&c.MaxBackoff, "max-backoff", c.MaxBackoff, "retry delay cap")
	fs.DurationVar(&c.SyncedRetention, "synced-retention", c.SyncedRetention, "how long synced queue entries are kept")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "slog-json, slog-text or zap")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address is empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("flush interval must be positive, got %s", c.FlushInterval))
	}
	if c.FlushBatch < 1 {
		errs = append(errs, fmt.Errorf("flush batch must be at least 1, got %d", c.FlushBatch))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("max retries must be at least 1, got %d", c.MaxRetries))
	}
	if c.BaseBackoff <= 0 || c.MaxBackoff < c.BaseBackoff {
		errs = append(errs, fmt.Errorf("backoff range %s..%s is invalid", c.BaseBackoff, c.MaxBackoff))
	}
	return errors.Join(errs...)
}

// Load builds a Config from args the way the CLI does: defaults, then the
// config file, then flags. Unknown flags are ignored.
func Load(args []string) (*Config, error) {
	cfg := New()
	if path := flagx.ConfigFile(args); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	fs := pflag.NewFlagSet("bizsync", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.StringP("config", "c", "", "path to config file (JSON or YAML)")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
