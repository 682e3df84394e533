package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoader_Load_Defaults(t *testing.T) {
	loader := NewLoaderWithEnv("", t.TempDir(), noEnv)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, domain.NewDefaultConfig(), cfg)
}

func TestLoader_Load_TOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, domain.ConfigFileName), `
[server]
address = "0.0.0.0:4000"

[store]
kind = "json"
path = "/var/lib/maestro/state.json"

[queue]
poll_interval = "2s"

[spawn]
command = "codex"
args = ["--full-auto"]

[redis]
enabled = true
channel = "events"
`)
	loader := NewLoaderWithEnv("", dir, noEnv)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Address)
	assert.Equal(t, domain.DefaultPublicURL, cfg.Server.PublicURL, "unset keys keep defaults")
	assert.Equal(t, domain.StoreKindJSON, cfg.Store.Kind)
	assert.Equal(t, "2s", cfg.Queue.PollInterval)
	assert.Equal(t, domain.DefaultPollTimeout, cfg.Queue.PollTimeout)
	assert.Equal(t, []string{"--full-auto"}, cfg.Spawn.Args)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, domain.DefaultRedisAddr, cfg.Redis.Addr)
}

func TestLoader_Load_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maestro.yaml")
	writeFile(t, path, "log:\n  level: debug\nlauncher:\n  enabled: true\n")
	loader := NewLoaderWithEnv(path, dir, noEnv)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Launcher.Enabled)
}

func TestLoader_Path_Precedence(t *testing.T) {
	dir := t.TempDir()
	env := func(k string) string {
		if k == domain.EnvConfig {
			return "/etc/maestro.toml"
		}
		return ""
	}

	path, required := NewLoaderWithEnv("/tmp/flag.toml", dir, env).Path()
	assert.Equal(t, "/tmp/flag.toml", path)
	assert.True(t, required)

	path, required = NewLoaderWithEnv("", dir, env).Path()
	assert.Equal(t, "/etc/maestro.toml", path)
	assert.True(t, required)

	path, required = NewLoaderWithEnv("", dir, noEnv).Path()
	assert.Equal(t, filepath.Join(dir, domain.ConfigFileName), path)
	assert.False(t, required)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errPart string
	}{
		{"unknown key", "maestro.toml", "[server]\nport = 1\n", "parse config"},
		{"invalid toml", "maestro.toml", "[server\n", "parse config"},
		{"unknown yaml key", "maestro.yml", "servr:\n  address: x\n", "parse config"},
		{"bad duration", "maestro.toml", "[queue]\npoll_timeout = \"forever\"\n", "queue.poll_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)

			_, err := NewLoaderWithEnv(path, dir, noEnv).Load()

			assert.ErrorContains(t, err, tt.errPart)
		})
	}
}

func TestLoader_Load_MissingExplicitFile(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLoaderWithEnv(filepath.Join(dir, "nope.toml"), dir, noEnv).Load()

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInitAndRender_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", domain.ConfigFileName)
	cfg := domain.NewDefaultConfig()
	cfg.Spawn.Args = []string{"--print"}

	require.NoError(t, Init(path, cfg))
	assert.ErrorIs(t, Init(path, cfg), domain.ErrConflict)

	loaded, err := NewLoaderWithEnv(path, dir, noEnv).Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	out, err := Render(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "[spawn]")
}
