package config

import (
	"github.com/spf13/pflag"
)

type binding struct {
	name string
	copy func(src, dst *Config)
}

var bindings = []binding{
	{"grpc-addr", func(s, d *Config) { d.EndpointAddrGRPC = s.EndpointAddrGRPC }},
	{"http-addr", func(s, d *Config) { d.EndpointAddrHTTP = s.EndpointAddrHTTP }},
	{"dsn", func(s, d *Config) { d.DatabaseDSN = s.DatabaseDSN }},
	{"secret", func(s, d *Config) { d.SecretKey = s.SecretKey }},
	{"access-ttl", func(s, d *Config) { d.AccessTokenValidityDuration = s.AccessTokenValidityDuration }},
	{"refresh-ttl", func(s, d *Config) { d.RefreshTokenValidityDuration = s.RefreshTokenValidityDuration }},
	{"admin", func(s, d *Config) { d.AdminUsername = s.AdminUsername }},
	{"s3-user", func(s, d *Config) { d.S3RootUser = s.S3RootUser }},
	{"s3-password", func(s, d *Config) { d.S3RootPassword = s.S3RootPassword }},
	{"s3-bucket", func(s, d *Config) { d.S3Bucket = s.S3Bucket }},
	{"s3-region", func(s, d *Config) { d.S3Region = s.S3Region }},
	{"s3-endpoint", func(s, d *Config) { d.S3BaseEndpoint = s.S3BaseEndpoint }},
	{"snapshot-url-expiry", func(s, d *Config) { d.SnapshotURLExpiry = s.SnapshotURLExpiry }},
	{"rate-limit", func(s, d *Config) { d.RateLimit = s.RateLimit }},
	{"log-format", func(s, d *Config) { d.LogFormat = s.LogFormat }},
	{"log-level", func(s, d *Config) { d.LogLevel = s.LogLevel }},
}

// newFlagSet binds every setting to c. Short forms follow the old single
// letter flags.
func newFlagSet(c *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bizsync-server", pflag.ContinueOnError)

	fs.StringP("config", "c", "", "path to config file (JSON or YAML)")
	fs.String("env-file", ".env", "dotenv file loaded before reading the environment")

	fs.StringVarP(&c.EndpointAddrGRPC, "grpc-addr", "a", c.EndpointAddrGRPC, "gRPC listen address")
	fs.StringVar(&c.EndpointAddrHTTP, "http-addr", c.EndpointAddrHTTP, "HTTP admin API listen address, empty to disable")
	fs.StringVarP(&c.DatabaseDSN, "dsn", "d", c.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVarP(&c.SecretKey, "secret", "s", c.SecretKey, "JWT signing key")
	fs.DurationVarP(&c.AccessTokenValidityDuration, "access-ttl", "t", c.AccessTokenValidityDuration, "access token lifetime")
	fs.DurationVarP(&c.RefreshTokenValidityDuration, "refresh-ttl", "r", c.RefreshTokenValidityDuration, "refresh token lifetime")
	fs.StringVar(&c.AdminUsername, "admin", c.AdminUsername, "username granted the admin role on registration")
	fs.StringVarP(&c.S3RootUser, "s3-user", "u", c.S3RootUser, "S3 access key")
	fs.StringVarP(&c.S3RootPassword, "s3-password", "p", c.S3RootPassword, "S3 secret key")
	fs.StringVarP(&c.S3Bucket, "s3-bucket", "b", c.S3Bucket, "S3 bucket for snapshots")
	fs.StringVarP(&c.S3Region, "s3-region", "g", c.S3Region, "S3 region")
	fs.StringVarP(&c.S3BaseEndpoint, "s3-endpoint", "e", c.S3BaseEndpoint, "S3 base endpoint")
	fs.DurationVar(&c.SnapshotURLExpiry, "snapshot-url-expiry", c.SnapshotURLExpiry, "lifetime of presigned snapshot URLs")
	fs.StringVar(&c.RateLimit, "rate-limit", c.RateLimit, "HTTP rate limit per client IP, e.g. 300-M")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "slog-json, slog-text or zap")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")

	return fs
}

// applyFlags copies the flags the user actually set from src to dst.
func applyFlags(fs *pflag.FlagSet, src, dst *Config) {
	for _, b := range bindings {
		if fs.Changed(b.name) {
			b.copy(src, dst)
		}
	}
}
