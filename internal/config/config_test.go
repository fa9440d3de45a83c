package config

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Daemon.LogLevel, "info")
	assert.Equal(t, cfg.Client.DetachKeybind, "ctrl+b d")
	assert.Equal(t, cfg.Session.Shell, "")
	assert.DeepEqual(t, cfg.Session.ForwardEnv, []string{"TERM", "COLORTERM"})
	assert.Equal(t, cfg.Session.ResizePolicy, "last")
	assert.Equal(t, cfg.Session.Cols, uint16(80))
	assert.Equal(t, cfg.Session.Rows, uint16(24))
}

func TestLoadMissing(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	assert.NilError(t, err)
	assert.DeepEqual(t, cfg, Default())
}

func TestLoadShellOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(`[session]
shell = "/bin/zsh"
`), 0o600)
	assert.NilError(t, err)

	cfg, err := LoadFrom(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Session.Shell, "/bin/zsh")
	// Other defaults preserved.
	assert.Equal(t, cfg.Daemon.LogLevel, "info")
	assert.Equal(t, cfg.Client.DetachKeybind, "ctrl+b d")
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(`[daemon]
log_level = "debug"
socket_path = "/tmp/custom.sock"

[client]
detach_keybind = "ctrl+q"

[session]
shell = "/usr/bin/fish"
forward_env = ["TERM"]
resize_policy = "largest"
`), 0o600)
	assert.NilError(t, err)

	cfg, err := LoadFrom(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Daemon.LogLevel, "debug")
	assert.Equal(t, cfg.Daemon.SocketPath, "/tmp/custom.sock")
	assert.Equal(t, cfg.Client.DetachKeybind, "ctrl+q")
	assert.Equal(t, cfg.Session.Shell, "/usr/bin/fish")
	assert.DeepEqual(t, cfg.Session.ForwardEnv, []string{"TERM"})
	assert.Equal(t, cfg.Session.ResizePolicy, "largest")
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(`not valid toml {{`), 0o600)
	assert.NilError(t, err)

	_, err = LoadFrom(path)
	assert.Assert(t, err != nil)
}
