package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Daemon  DaemonConfig  `toml:"daemon"`
	Client  ClientConfig  `toml:"client"`
	Session SessionConfig `toml:"session"`
}

type DaemonConfig struct {
	SocketPath string `toml:"socket_path"`
	LockPath   string `toml:"lock_path"`
	LogLevel   string `toml:"log_level"`
}

type ClientConfig struct {
	DetachKeybind string `toml:"detach_keybind"`
}

type SessionConfig struct {
	Shell        string   `toml:"shell"`
	ForwardEnv   []string `toml:"forward_env"`
	Cols         uint16   `toml:"cols"`
	Rows         uint16   `toml:"rows"`
	ResizePolicy string   `toml:"resize_policy"`
}

func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			LogLevel: "info",
		},
		Client: ClientConfig{
			DetachKeybind: "ctrl+b d",
		},
		Session: SessionConfig{
			ForwardEnv:   []string{"TERM", "COLORTERM"},
			Cols:         80,
			Rows:         24,
			ResizePolicy: "last",
		},
	}
}

func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "remux", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "remux", "config.toml"), nil
}

func SocketPath() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "remux.sock"), nil
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("remux-%d.sock", os.Getuid())), nil
}

func LockPath() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "remux.lock"), nil
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("remux-%d.lock", os.Getuid())), nil
}
