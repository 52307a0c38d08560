package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 5000)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("YIELDMAPPER_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_PlainPortEnv(t *testing.T) {
	t.Setenv("PORT", "7000")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestConfig_InvalidPortIgnored(t *testing.T) {
	t.Setenv("YIELDMAPPER_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestConfig_DataPathAndUpstreamOverrides(t *testing.T) {
	t.Setenv("YIELDMAPPER_DATA_PATH", "/srv/yield")
	t.Setenv("YIELDMAPPER_AKTOOLS_URL", "http://aktools:8080")
	t.Setenv("YIELDMAPPER_LOG_LEVEL", "debug")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "/srv/yield", cfg.Storage.DataPath)
	assert.Equal(t, "http://aktools:8080", cfg.Clients.AKTools.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_MergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")

	require.NoError(t, os.WriteFile(base, []byte(`
environment = "production"

[server]
port = 6000

[clients.aktools]
base_url = "http://base:8080"
rate_limit = 2

[fx]
fallback_rate = 0.91
`), 0644))
	require.NoError(t, os.WriteFile(local, []byte(`
[server]
port = 6100
`), 0644))

	cfg, err := LoadConfig(base, local, filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 6100, cfg.Server.Port)
	assert.Equal(t, "http://base:8080", cfg.Clients.AKTools.BaseURL)
	assert.Equal(t, 2, cfg.Clients.AKTools.RateLimit)
	assert.Equal(t, 0.91, cfg.FX.FallbackRate)
	assert.Equal(t, "production", cfg.Environment)
	// untouched defaults survive
	assert.Equal(t, "24h", cfg.Cache.SymbolTTL)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport ="), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_DurationFallbacks(t *testing.T) {
	c := AKToolsConfig{Timeout: "bogus"}
	assert.Equal(t, 30*time.Second, c.GetTimeout())

	c.Timeout = "5s"
	assert.Equal(t, 5*time.Second, c.GetTimeout())

	cc := CacheConfig{SymbolTTL: ""}
	assert.Equal(t, 24*time.Hour, cc.GetSymbolTTL())

	cc.SymbolTTL = "90m"
	assert.Equal(t, 90*time.Minute, cc.GetSymbolTTL())
}

func TestIsFreshAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsFreshAt(now, now.Add(-23*time.Hour), FreshnessSymbolUniverse))
	assert.False(t, IsFreshAt(now, now.Add(-25*time.Hour), FreshnessSymbolUniverse))
	assert.False(t, IsFreshAt(now, time.Time{}, FreshnessSymbolUniverse))
}

func TestLoadVersionFile(t *testing.T) {
	origVersion, origBuild, origCommit := Version, Build, GitCommit
	t.Cleanup(func() { Version, Build, GitCommit = origVersion, origBuild, origCommit })

	Version, Build, GitCommit = "dev", "unknown", "unknown"
	path := filepath.Join(t.TempDir(), ".version")
	require.NoError(t, os.WriteFile(path, []byte("# build info\nversion: 1.4.0\nbuild: 2026-10-01\ncommit: abc123\n"), 0644))

	loadVersionFile(path)

	assert.Equal(t, "1.4.0", Version)
	assert.Equal(t, "2026-10-01", Build)
	assert.Equal(t, "abc123", GitCommit)
	assert.Equal(t, "1.4.0 (build: 2026-10-01, commit: abc123)", GetFullVersion())
}
