package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/expressup/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EXPRESSUP_CONFIG_PATH", "EXPRESSUP_BASE_URL", "EXPRESSUP_TESTING", "EXPRESSUP_UPLOAD_TIMEOUT",
		"EXPRESSUP_ORDERS_ROOT", "EXPRESSUP_LOOKBACK_HOURS", "EXPRESSUP_SELECTION", "EXPRESSUP_AUTO_UPLOAD",
		"EXPRESSUP_DB_PATH", "EXPRESSUP_LOG_LEVEL", "EXPRESSUP_LOG_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.ProductionURL, cfg.Express.URL())
	require.Equal(t, 24.0, cfg.Orders.LookbackHours)
	require.Equal(t, "ManufacturingDir", cfg.Orders.ReservedDir)
	require.Equal(t, "negotiated", cfg.Orders.Selection)
	require.Equal(t, "info", cfg.Log.Level)
	require.NotEmpty(t, cfg.DB.Path)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
express:
  use_testing_server: true
  upload_timeout: 5m
orders:
  root_dir: /data/3shape
  lookback_hours: 48
  selection: legacy
db:
  path: /tmp/file.db
log:
  level: debug
`), 0o644))

	t.Setenv("EXPRESSUP_CONFIG_PATH", path)
	t.Setenv("EXPRESSUP_DB_PATH", "/tmp/env.db")
	t.Setenv("EXPRESSUP_AUTO_UPLOAD", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.TestingURL, cfg.Express.URL())
	require.Equal(t, 5*time.Minute, cfg.Express.UploadTimeout)
	require.Equal(t, "/data/3shape", cfg.Orders.RootDir)
	require.Equal(t, 48.0, cfg.Orders.LookbackHours)
	require.Equal(t, "legacy", cfg.Orders.Selection)
	require.True(t, cfg.Orders.AutoUpload)
	require.Equal(t, "/tmp/env.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "ManufacturingDir", cfg.Orders.ReservedDir)
}

func TestLoad_BaseURLOverridesTestingSwitch(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPRESSUP_TESTING", "1")
	t.Setenv("EXPRESSUP_BASE_URL", "http://localhost:44334")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:44334", cfg.Express.URL())
}

func TestLoad_InvalidEnv(t *testing.T) {
	for key, value := range map[string]string{
		"EXPRESSUP_TESTING":        "maybe",
		"EXPRESSUP_LOOKBACK_HOURS": "a day",
		"EXPRESSUP_UPLOAD_TIMEOUT": "forever",
		"EXPRESSUP_AUTO_UPLOAD":    "sometimes",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := config.Load("")
			require.ErrorContains(t, err, key)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"selection": func(c *config.Config) { c.Orders.Selection = "both" },
		"lookback":  func(c *config.Config) { c.Orders.LookbackHours = -1 },
		"level":     func(c *config.Config) { c.Log.Level = "loud" },
		"url":       func(c *config.Config) { c.Express.BaseURL = "express.example.com" },
		"timeout":   func(c *config.Config) { c.Express.UploadTimeout = -time.Second },
		"db":        func(c *config.Config) { c.DB.Path = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
