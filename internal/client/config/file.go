package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bizdash/bizsync/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of Config. Zero values leave the
// corresponding setting untouched.
type FileConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	DBPath              string         `json:"db_path" yaml:"db_path"`
	FlushInterval       timex.Duration `json:"flush_interval" yaml:"flush_interval"`
	FlushBatch          int            `json:"flush_batch" yaml:"flush_batch"`
	MaxRetries          int            `json:"max_retries" yaml:"max_retries"`
	BaseBackoff         timex.Duration `json:"base_backoff" yaml:"base_backoff"`
	MaxBackoff          timex.Duration `json:"max_backoff" yaml:"max_backoff"`
	SyncedRetention     timex.Duration `json:"synced_retention" yaml:"synced_retention"`
	LogFormat           string         `json:"log_format" yaml:"log_format"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
}

// LoadFile overlays c with the settings found in path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(c)
	return nil
}

func (fc FileConfig) apply(c *Config) {
	setString(&c.ServerEndpointAddr, fc.ServerEndpointAddr)
	setString(&c.DBPath, fc.DBPath)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.LogLevel, fc.LogLevel)
	if fc.FlushBatch != 0 {
		c.FlushBatch = fc.FlushBatch
	}
	if fc.MaxRetries != 0 {
		c.MaxRetries = fc.MaxRetries
	}
	if fc.OnlineCheckInterval.Duration != 0 {
		c.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.FlushInterval.Duration != 0 {
		c.FlushInterval = fc.FlushInterval.Duration
	}
	if fc.BaseBackoff.Duration != 0 {
		c.BaseBackoff = fc.BaseBackoff.Duration
	}
	if fc.MaxBackoff.Duration != 0 {
		c.MaxBackoff = fc.MaxBackoff.Duration
	}
	if fc.SyncedRetention.Duration != 0 {
		c.SyncedRetention = fc.SyncedRetention.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
