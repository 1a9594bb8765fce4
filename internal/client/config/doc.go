// Package config loads runtime configuration for the gophdirectory CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c / -config, or the
//     GOPHDIRECTORY_CLIENT_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the directory gRPC endpoint
//	-i int      online status check interval (seconds)
//	-d string   data directory for the local cache
//	-r int      cached profile refresh interval (seconds)
//	-w int      resolver workers
//	-m string   metrics listen address
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "data_dir": "/var/lib/gophdirectory",
//	  "database_file": "directory.db",
//	  "user_refresh_interval": "5m",
//	  "response_cache_ttl": "30s",
//	  "response_cache_size": 256,
//	  "workers": 4,
//	  "metrics_addr": ":9101"
//	}
package config
