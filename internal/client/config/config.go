package config

import (
	"path/filepath"
	"time"
)

// ConfigEnvVar names the JSON config file when -c/-config is absent.
const ConfigEnvVar = "GOPHDIRECTORY_CLIENT_CONFIG"

// Config holds runtime settings for the gophdirectory CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the directory gRPC endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DataDir, DatabaseFile: where the local SQLite cache lives.
//   - UserRefreshInterval: age after which a cached profile is refetched
//     while online.
//   - ResponseCacheTTL, ResponseCacheSize: in-memory cache of directory
//     responses; size 0 disables it.
//   - Workers: resolver jobs allowed in flight.
//   - MetricsAddr: if set, Prometheus metrics are served there.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DataDir             string
	DatabaseFile        string
	UserRefreshInterval time.Duration
	ResponseCacheTTL    time.Duration
	ResponseCacheSize   int
	Workers             int
	MetricsAddr         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DataDir = "."
	c.DatabaseFile = "directory.db"
	c.UserRefreshInterval = 5 * time.Minute
	c.ResponseCacheTTL = 30 * time.Second
	c.ResponseCacheSize = 256
	c.Workers = 4
	c.MetricsAddr = ""
}

// DatabasePath is the SQLite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
