package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, []string{"jumpit", "wanted", "jobkorea", "gamejob"}, config.Sources)
	assert.Equal(t, "", config.RedisAddr)
	assert.Equal(t, 1, config.RedisStreamCount)
	assert.Equal(t, 100, config.CheckpointSize)
	assert.Equal(t, 10*time.Second, config.RequestTimeout)
	assert.Equal(t, 16, config.Jumpit.PageSize)
	assert.Equal(t, 1404, config.Jumpit.TotalItems)
	assert.Equal(t, 0, config.Wanted.TotalItems)
	assert.True(t, config.ChromeHeadless)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("CRAWL_SOURCES", " Wanted , jumpit,")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("JUMPIT_TOTAL_ITEMS", "32")
	t.Setenv("CHROME_HEADLESS", "false")
	t.Setenv("JUMPIT_LIST_URL", "https://example.com/positions")

	config = LoadConfig()
	assert.Equal(t, []string{"wanted", "jumpit"}, config.Sources)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
	assert.Equal(t, 32, config.Jumpit.TotalItems)
	assert.False(t, config.ChromeHeadless)
	assert.Equal(t, "https://example.com/positions", config.Jumpit.ListURL)
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	config.Sources = []string{"jumpit", "saramin"}
	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "saramin"`)

	config = LoadConfig()
	config.Sources = nil
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.RedisAddr = "localhost:6379"
	config.RedisStreamCount = 0
	assert.Error(t, config.Validate())
}

func TestOverlaySources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  jumpit:
    total_items: 320
    delay: 1s
  wanted:
    output: wanted.csv
  saramin:
    page_size: 5
`), 0o644))

	config := LoadConfig()
	require.NoError(t, OverlaySources(config, path))
	assert.Equal(t, 320, config.Jumpit.TotalItems)
	assert.Equal(t, time.Second, config.Jumpit.Delay)
	assert.Equal(t, 16, config.Jumpit.PageSize)
	assert.Equal(t, "wanted.csv", config.Wanted.Output)

	// Missing file is ignored
	assert.NoError(t, OverlaySources(config, filepath.Join(t.TempDir(), "none.yaml")))
	assert.NoError(t, OverlaySources(config, ""))
}
