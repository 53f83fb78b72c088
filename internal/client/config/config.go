// Package config holds settings for the PaperHub command-line client.
package config

import "time"

// Config holds runtime settings for the PaperHub CLI.
//
// Fields:
//   - ServerURL: base URL of the PaperHub HTTP API.
//   - RequestTimeout: upper bound for a single API call.
//   - DownloadDir: directory, relative to the working directory, that
//     fetched papers are saved into.
//
// Command-line flags of the CLI override these values.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	DownloadDir    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 5 * time.Second
	c.DownloadDir = "downloads"
}

// LoadConfig applies defaults and then overlays values from a JSON file,
// if one is given.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	return cfg
}
