package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"structscope/internal/analyzer"
	"structscope/internal/cache/memory"
)

const envPrefix = "STRUCTSCOPE_"

type Config struct {
	Root     string
	Out      string
	LogLevel string
	Ignore   []string
	Analyzer AnalyzerConfig
}

type AnalyzerConfig struct {
	EnableCache  bool
	MaxCacheSize int
	CacheTimeout time.Duration
	BatchSize    int
}

// Load reads .env files (missing ones are ignored) and then STRUCTSCOPE_*
// variables. Already exported variables win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	batch, err := intEnv("BATCH_SIZE", analyzer.DefaultBatchSize)
	if err != nil {
		return nil, err
	}
	size, err := intEnv("MAX_CACHE_SIZE", memory.DefaultMaxEntries)
	if err != nil {
		return nil, err
	}
	timeout, err := durationEnv("CACHE_TIMEOUT", memory.DefaultTTL)
	if err != nil {
		return nil, err
	}

	return &Config{
		Root:     firstNonEmpty(env("ROOT"), "."),
		Out:      env("OUT"),
		LogLevel: firstNonEmpty(env("LOG_LEVEL"), "info"),
		Ignore:   splitList(env("IGNORE")),
		Analyzer: AnalyzerConfig{
			EnableCache:  boolEnv("ENABLE_CACHE", true),
			MaxCacheSize: size,
			CacheTimeout: timeout,
			BatchSize:    batch,
		},
	}, nil
}

// Options converts the analyzer settings into base options.
func (c AnalyzerConfig) Options() []analyzer.Option {
	return []analyzer.Option{
		analyzer.WithCache(c.EnableCache),
		analyzer.WithMaxCacheSize(c.MaxCacheSize),
		analyzer.WithCacheTimeout(c.CacheTimeout),
		analyzer.WithBatchSize(c.BatchSize),
	}
}

// Level maps LogLevel onto slog; unknown values fall back to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func intEnv(key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
	}
	return v, nil
}

// durationEnv accepts Go durations ("90s") or bare milliseconds ("300000").
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) bool {
	raw := env(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
