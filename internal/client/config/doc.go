// Package config loads runtime configuration for the bizsync CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (New).
//  2. An optional JSON or YAML file named with -c/--config. The format is
//     picked by extension; anything but .yaml/.yml is read as JSON.
//  3. Command-line flags registered by (*Config).RegisterFlags.
//
// Durations in files accept "3s" style strings or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "db_path": "~/.bizsync/cache.db",
//	  "flush_interval": "30s",
//	  "max_retries": 8
//	}
package config
