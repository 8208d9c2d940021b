package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. BIZSYNC_DATABASE_DSN.
const EnvPrefix = "BIZSYNC"

// LoadEnv overlays c with BIZSYNC_* variables. envFile, when it exists, is
// loaded first; variables already set in the process win over it.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	strs := map[string]*string{
		"grpc_addr":      &c.EndpointAddrGRPC,
		"http_addr":      &c.EndpointAddrHTTP,
		"database_dsn":   &c.DatabaseDSN,
		"secret_key":     &c.SecretKey,
		"admin_username": &c.AdminUsername,
		"s3_root_user":   &c.S3RootUser,
		"s3_password":    &c.S3RootPassword,
		"s3_bucket":      &c.S3Bucket,
		"s3_region":      &c.S3Region,
		"s3_endpoint":    &c.S3BaseEndpoint,
		"rate_limit":     &c.RateLimit,
		"log_format":     &c.LogFormat,
		"log_level":      &c.LogLevel,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	durs := map[string]*time.Duration{
		"access_token_ttl":    &c.AccessTokenValidityDuration,
		"refresh_token_ttl":   &c.RefreshTokenValidityDuration,
		"snapshot_url_expiry": &c.SnapshotURLExpiry,
	}
	for key, dst := range durs {
		if !v.IsSet(key) {
			continue
		}
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return fmt.Errorf("%s_%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}
	return nil
}
