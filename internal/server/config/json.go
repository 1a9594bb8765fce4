package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdirectory/internal/flagx"
	"github.com/dmitrijs2005/gophdirectory/internal/timex"
)

// JsonConfig is the DTO for JSON configuration files. Durations use
// timex.Duration, so both "5m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	MetricsAddr           *string        `json:"metrics_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	ReportTimestampWindow timex.Duration `json:"report_timestamp_window"`
	AvatarURLValidity     timex.Duration `json:"avatar_url_validity"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson overlays config with the JSON file named by -c/-config, or by
// ConfigEnvVar when no flag is given. Only fields present in the file are
// copied. A missing or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(ConfigEnvVar)
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	// "" is meaningful here: it turns the metrics endpoint off
	if c.MetricsAddr != nil {
		config.MetricsAddr = *c.MetricsAddr
	}
	if c.ReportTimestampWindow.Duration > 0 {
		config.ReportTimestampWindow = c.ReportTimestampWindow.Duration
	}
	if c.AvatarURLValidity.Duration > 0 {
		config.AvatarURLValidity = c.AvatarURLValidity.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
