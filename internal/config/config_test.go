package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	assert.Equal(t, "/xdg/config/highlander/config.toml", GetConfigFilePath())
	assert.Equal(t, "/xdg/cache/highlander", GetCacheDir())
	assert.Equal(t, "/xdg/cache/highlander/ansi_cache", GetANSICacheDir())
	assert.Equal(t, "/xdg/data/highlander/lists", GetListsDir())
	assert.Equal(t, "/xdg/cache/highlander/cards.json", Default().CacheFile)
}

func TestLoadConfigFrom_CreatesDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	config, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), config)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `request_interval = "100ms"`)
	assert.Contains(t, string(data), `format = "pioneer"`)

	// the written file loads back to the same values
	again, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, config, again)
}

func TestLoadConfigFrom_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
format = "modern"
request_interval = "250ms"
metadata_timeout = "1m"
download_retries = 0
`), 0644))

	config, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "modern", config.Format)
	assert.Equal(t, 250*time.Millisecond, config.RequestInterval.Duration)
	assert.Equal(t, time.Minute, config.MetadataTimeout.Duration)
	assert.Equal(t, 0, config.DownloadRetries)
	// untouched keys keep their defaults
	assert.Equal(t, 3, config.FetchAttempts)
	assert.Equal(t, ":8000", config.Listen)
}

func TestLoadConfigFrom_Errors(t *testing.T) {
	cases := map[string]string{
		"bad duration": `request_interval = "soon"`,
		"unknown key":  `default_deck = "rider-waite-smith"`,
		"invalid":      `fetch_attempts = 0`,
		"syntax":       `format = `,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := LoadConfigFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	config := Default()
	require.NoError(t, config.Validate())

	config.Format = ""
	config.MetadataTimeout = Duration{}
	err := config.Validate()
	assert.ErrorContains(t, err, "format must not be empty")
	assert.ErrorContains(t, err, "metadata_timeout must be positive")
}
