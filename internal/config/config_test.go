package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structscope/internal/analyzer"
	"structscope/internal/cache/memory"
)

var keys = []string{"ROOT", "OUT", "BATCH_SIZE", "MAX_CACHE_SIZE", "CACHE_TIMEOUT", "ENABLE_CACHE", "LOG_LEVEL", "IGNORE"}

// clearEnv blanks every STRUCTSCOPE_* variable for the test. t.Setenv
// restores the previous values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(envPrefix+k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Root)
	assert.Empty(t, cfg.Out)
	assert.Empty(t, cfg.Ignore)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, AnalyzerConfig{
		EnableCache:  true,
		MaxCacheSize: memory.DefaultMaxEntries,
		CacheTimeout: memory.DefaultTTL,
		BatchSize:    analyzer.DefaultBatchSize,
	}, cfg.Analyzer)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRUCTSCOPE_ROOT", "/src/app")
	t.Setenv("STRUCTSCOPE_OUT", "report.json")
	t.Setenv("STRUCTSCOPE_BATCH_SIZE", "4")
	t.Setenv("STRUCTSCOPE_MAX_CACHE_SIZE", "50")
	t.Setenv("STRUCTSCOPE_CACHE_TIMEOUT", "1500")
	t.Setenv("STRUCTSCOPE_ENABLE_CACHE", "false")
	t.Setenv("STRUCTSCOPE_LOG_LEVEL", "debug")
	t.Setenv("STRUCTSCOPE_IGNORE", " dist, ,fixtures ")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "/src/app", cfg.Root)
	assert.Equal(t, "report.json", cfg.Out)
	assert.Equal(t, []string{"dist", "fixtures"}, cfg.Ignore)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.False(t, cfg.Analyzer.EnableCache)
	assert.Equal(t, 50, cfg.Analyzer.MaxCacheSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Analyzer.CacheTimeout)
	assert.Equal(t, 4, cfg.Analyzer.BatchSize)
	assert.Len(t, cfg.Analyzer.Options(), 4)
}

func TestLoadDotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("STRUCTSCOPE_OUT")
	os.Unsetenv("STRUCTSCOPE_CACHE_TIMEOUT")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STRUCTSCOPE_OUT=from-file.json\nSTRUCTSCOPE_CACHE_TIMEOUT=2m\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("STRUCTSCOPE_OUT")
		os.Unsetenv("STRUCTSCOPE_CACHE_TIMEOUT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file.json", cfg.Out)
	assert.Equal(t, 2*time.Minute, cfg.Analyzer.CacheTimeout)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	cases := map[string]string{
		"STRUCTSCOPE_BATCH_SIZE":     "ten",
		"STRUCTSCOPE_MAX_CACHE_SIZE": "1e3",
		"STRUCTSCOPE_CACHE_TIMEOUT":  "soon",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLevelFallback(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "WARN"}).Level())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "loud"}).Level())
}
