package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskdeck", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, filepath.Join(dir, "taskdeck", DefaultStateName), cfg.StatePath)
	assert.Zero(t, cfg.Timeout())
	assert.Equal(t, 5*time.Second, cfg.NoticeTTL())
	assert.Equal(t, "enter", cfg.Keys.Confirm)

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreate_ReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)
	data := `
api_base_url = "https://tasks.example.com"
state_path = "/var/lib/taskdeck/state.db"
log_path = "logs/td.log"
request_timeout = "15s"
locale = "de"

[keys]
quit = "ctrl+c"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com", cfg.APIBaseURL)
	assert.Equal(t, "/var/lib/taskdeck/state.db", cfg.StatePath)
	assert.Equal(t, filepath.Join(dir, "logs", "td.log"), cfg.LogPath)
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "ctrl+c", cfg.Keys.Quit)
	assert.Equal(t, "a", cfg.Keys.Add, "unset keys keep defaults")
}

func TestLoadOrCreate_RejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`request_timeout = "soon"`), 0o644))

	_, err := LoadOrCreate(path)
	assert.ErrorContains(t, err, "request_timeout")

	require.NoError(t, os.WriteFile(path, []byte(`notice_duration = "-1s"`), 0o644))
	_, err = LoadOrCreate(path)
	assert.ErrorContains(t, err, "notice_duration")
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(envConfig, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", ResolveConfigPath())

	t.Setenv(envConfig, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "taskdeck", DefaultConfigFileName), ResolveConfigPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/ada")
	assert.Equal(t, filepath.Join("/home/ada", ".config", "taskdeck", DefaultConfigFileName), ResolveConfigPath())
}
