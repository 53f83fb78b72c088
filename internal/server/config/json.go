package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/flagx"
	"github.com/dmitrijs2005/paperhub/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "1m" strings and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	OTPValidityDuration         timex.Duration `json:"otp_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3PresignDuration           timex.Duration `json:"s3_presign_duration"`
	RedisAddr                   string         `json:"redis_addr"`
	OutboundTimeout             timex.Duration `json:"outbound_timeout"`
	RequestTimeout              timex.Duration `json:"request_timeout"`
	MaxUploadBytes              int64          `json:"max_upload_bytes"`
	LogLevel                    string         `json:"log_level"`
	LogBackend                  string         `json:"log_backend"`
	CORSAllowedOrigins          []string       `json:"cors_allowed_origins"`
	RateLimitRequests           int            `json:"rate_limit_requests"`
	RateLimitWindow             timex.Duration `json:"rate_limit_window"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// $PAPERHUB_CONFIG) onto config. Keys missing from the file keep their
// current value. An unreadable or malformed file panics: the server must not
// start half-configured.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.OTPValidityDuration, c.OTPValidityDuration)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.S3PresignDuration, c.S3PresignDuration)
	setString(&config.RedisAddr, c.RedisAddr)
	setDuration(&config.OutboundTimeout, c.OutboundTimeout)
	setDuration(&config.RequestTimeout, c.RequestTimeout)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogBackend, c.LogBackend)
	setDuration(&config.RateLimitWindow, c.RateLimitWindow)

	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	if c.RateLimitRequests > 0 {
		config.RateLimitRequests = c.RateLimitRequests
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
