package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hairizuanbinnoorazman/checkout-crawler/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.DisableSecurity)
	assert.Equal(t, 9222, cfg.Browser.DebugPort)
	assert.Equal(t, 3*time.Second, cfg.Browser.MinPageLoadWait)
	assert.Equal(t, -1, cfg.Browser.ViewportExpansion)
	assert.Contains(t, cfg.Browser.UserAgent, "Chrome/123.0.6312.106")
	assert.Equal(t, "python3", cfg.Runtime.Interpreter)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Models.Acting.APIKeyEnv)
	assert.Equal(t, "GEMINI_API_KEY_PLANNER", cfg.Models.Planning.APIKeyEnv)
	assert.Equal(t, "gemini-2.5-flash-preview-04-17", cfg.Models.Acting.Model)
	assert.Equal(t, "gemini-2.0-flash", cfg.Models.Planning.Model)
	assert.NoError(t, cfg.Models.Validate())
	assert.Empty(t, cfg.Agent.Roles)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.History.Enabled)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "shopcrawl.yaml", `
log:
  level: debug
browser:
  headless: true
  min_page_load_wait: 5s
models:
  acting:
    model: gemini-2.5-pro
agent:
  roles: [entry_agent, selection_agent, checkout_agent]
history:
  enabled: true
`)
	t.Setenv("SHOPCRAWL_LOG_LEVEL", "warn")
	t.Setenv("SHOPCRAWL_SERVER_PORT", "9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level, "environment wins over the file")
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 5*time.Second, cfg.Browser.MinPageLoadWait)
	assert.Equal(t, "gemini-2.5-pro", cfg.Models.Acting.Model)
	assert.Equal(t, "google", cfg.Models.Acting.Provider)
	assert.Equal(t, []string{"entry_agent", "selection_agent", "checkout_agent"}, cfg.Agent.Roles)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_RelativeToRoot(t *testing.T) {
	old := rootPath
	t.Cleanup(func() { rootPath = old })

	rootPath = "/srv/crawl"
	got := databaseConfig(DatabaseConfig{Driver: "sqlite", Path: "shopcrawl.db"})
	assert.Equal(t, filepath.Join("/srv/crawl", "shopcrawl.db"), got.Path)

	got = databaseConfig(DatabaseConfig{Driver: "sqlite", Path: "/var/lib/shopcrawl.db"})
	assert.Equal(t, "/var/lib/shopcrawl.db", got.Path)
}
