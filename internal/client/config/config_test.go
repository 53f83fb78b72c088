package config

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/flagx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, "downloads", c.DownloadDir)
}

func TestLoadConfig_UsesDefaultsWithoutFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"paperhub-cli"}
	t.Setenv(flagx.ConfigEnvVar, "")

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}
