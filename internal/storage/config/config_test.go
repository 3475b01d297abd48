package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultAppID, cfg.AppID)
	assert.Equal(t, 3, cfg.MaxConcurrent)
	assert.Zero(t, cfg.FetchTimeout)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{
		AppID:         "108600",
		MaxConcurrent: 5,
		SteamCmdDir:   "/opt/steamcmd",
		FetchTimeout:  20 * time.Minute,
	}
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "108600", loaded.AppID)
	assert.Equal(t, 5, loaded.MaxConcurrent)
	assert.Equal(t, "/opt/steamcmd", loaded.SteamCmdDir)
	assert.Equal(t, 20*time.Minute, loaded.FetchTimeout)
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	dir := t.TempDir()
	data := []byte("fetch_timeout: banana\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch_timeout")
}

func TestLoad_SanitizesZeroValues(t *testing.T) {
	dir := t.TempDir()
	data := []byte("app_id: \"\"\nmax_concurrent_downloads: 0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppID, cfg.AppID)
	assert.Equal(t, 3, cfg.MaxConcurrent)
}

func TestParseConfigPath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(good, []byte("app_id: \"108600\"\n"), 0644))

	got, err := ParseConfigPath(good)
	require.NoError(t, err)
	assert.Equal(t, good, got)

	cases := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"relative", "config.yaml"},
		{"traversal", filepath.Join(dir, "..", "config.yaml")},
		{"missing", filepath.Join(dir, "nope.yaml")},
		{"directory", dir},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfigPath(tc.path)
			assert.Error(t, err)
		})
	}

	bad := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(bad, []byte("{}"), 0644))
	_, err = ParseConfigPath(bad)
	assert.Error(t, err, "non-yaml extension is rejected")
}
