package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
)

// isolate runs the test in an empty directory with no home config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "RUNWAY_API_KEY", "RUNWAYML_API_SECRET"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultDataFile, cfg.DataFile)
	assert.Equal(t, constants.DefaultHistoryDB, cfg.HistoryDB)
	assert.Equal(t, constants.DefaultRefreshInterval, cfg.RefreshInterval)
	assert.Equal(t, constants.AdapterTimeout, cfg.AdapterTimeout)
	assert.InDelta(t, constants.DefaultRequestsPerSecond, cfg.HTTPRate, 0.0001)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PRICEMAP_REFRESH_INTERVAL", "90m")
	t.Setenv("PRICEMAP_DATA_FILE", "/tmp/prices.json")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("RUNWAY_API_KEY", "r-key")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "/tmp/prices.json", cfg.DataFile)
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, "r-key", cfg.RunwayAPIKey)
}

func TestLoadConfigProviders(t *testing.T) {
	isolate(t)
	t.Setenv("PRICEMAP_PROVIDERS", "openai, gemini")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"openai", "gemini"}, cfg.Providers)
}

func TestLoadConfigPrefixedKeyWins(t *testing.T) {
	isolate(t)
	t.Setenv("PRICEMAP_GEMINI_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "plain")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.GeminiAPIKey)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_file: from-file.json\nadapter_timeout: 10s\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file.json", cfg.DataFile)
	assert.Equal(t, 10*time.Second, cfg.AdapterTimeout)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRICEMAP_HTTP_RATE=5\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PRICEMAP_HTTP_RATE") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, cfg.HTTPRate, 0.0001)
}

func TestValidateRejectsShortInterval(t *testing.T) {
	isolate(t)
	t.Setenv("PRICEMAP_REFRESH_INTERVAL", "1s")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestUpdateFromFlags(t *testing.T) {
	cfg := &Config{Output: "table", DataFile: "a.json"}
	cfg.UpdateFromFlags(true, false, true, "json", "debug", "b.json")

	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "b.json", cfg.DataFile)

	cfg.UpdateFromFlags(false, false, false, "", "", "")
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "b.json", cfg.DataFile)
}
