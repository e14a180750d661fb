package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "normal", cfg.App.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, SourceMemory, cfg.Recipes.Source)
	assert.Equal(t, 10*time.Minute, cfg.Recipes.CacheTTL.Std())
	assert.Equal(t, time.Second, cfg.Timers.TickInterval.Std())
	assert.Equal(t, 30*time.Second, cfg.Timers.AlmostDone.Std())
	assert.True(t, cfg.Speech.DiskCache)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	data := "SOUSCHEF_RECIPE_SOURCE=mealdb\nSOUSCHEF_HTTP_ADDR=:1\nGPT_CHAT_KEY=k\nGPT_CHAT_ENDPOINT=https://llm.local\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	for _, k := range []string{"SOUSCHEF_RECIPE_SOURCE", "GPT_CHAT_KEY", "GPT_CHAT_ENDPOINT"} {
		t.Cleanup(func() { os.Unsetenv(k) })
	}
	t.Setenv("SOUSCHEF_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SourceMealDB, cfg.Recipes.Source)
	assert.Equal(t, ":9999", cfg.HTTP.Addr, "environment wins over the file")
	assert.True(t, cfg.GPT.Enabled())
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	t.Setenv("SOUSCHEF_RECIPE_SOURCE", "cookbook9000")
	_, err := Load("")
	assert.ErrorContains(t, err, "unknown source")
}

func TestDurationParsing(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"10", 10 * time.Second, true},
		{"1m30s", 90 * time.Second, true},
		{`"5m"`, 5 * time.Minute, true},
		{"", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRedisOptions(t *testing.T) {
	r := RedisConfig{URL: "redis://default:pw@cache.local:6380/2", Addr: "ignored:1"}
	opts, err := r.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache.local:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = RedisConfig{Addr: "localhost:6379", DB: 1}.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)

	_, err = RedisConfig{URL: "http://nope"}.Options()
	assert.Error(t, err)
	assert.False(t, RedisConfig{}.Enabled())
}
