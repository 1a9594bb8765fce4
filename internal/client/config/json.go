package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdirectory/internal/flagx"
	"github.com/dmitrijs2005/gophdirectory/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so they can be written as "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DataDir             string         `json:"data_dir"`
	DatabaseFile        string         `json:"database_file"`
	UserRefreshInterval timex.Duration `json:"user_refresh_interval"`
	ResponseCacheTTL    timex.Duration `json:"response_cache_ttl"`
	ResponseCacheSize   *int           `json:"response_cache_size"`
	Workers             int            `json:"workers"`
	MetricsAddr         string         `json:"metrics_addr"`
}

// parseJson overlays cfg with the fields present in the JSON file named by
// -c/-config or ConfigEnvVar. Missing fields keep their current values.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(ConfigEnvVar)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.DatabaseFile, jc.DatabaseFile)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.UserRefreshInterval.Duration > 0 {
		cfg.UserRefreshInterval = jc.UserRefreshInterval.Duration
	}
	if jc.ResponseCacheTTL.Duration > 0 {
		cfg.ResponseCacheTTL = jc.ResponseCacheTTL.Duration
	}
	// explicit 0 disables the cache, so presence matters here
	if jc.ResponseCacheSize != nil {
		cfg.ResponseCacheSize = *jc.ResponseCacheSize
	}
	if jc.Workers > 0 {
		cfg.Workers = jc.Workers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
