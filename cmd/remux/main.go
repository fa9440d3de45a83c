// Command remux is the CLI entry point: it dials (or boots) the daemon
// and drives an attach, a session listing, or the daemon's own
// foreground run loop.
//
// Grounded on cmd/ht/main.go's kong wiring, trimmed to the operations
// this core's actor graph actually exposes.
package main

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	remux "github.com/Prometheus1400/remux"
	"github.com/Prometheus1400/remux/internal/client"
	"github.com/Prometheus1400/remux/internal/config"
	"github.com/Prometheus1400/remux/internal/daemon"
	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
	kongcompletion "github.com/jotaen/kong-completion"
)

type CLI struct {
	Version    kong.VersionFlag `help:"Print version."`
	Socket     string           `help:"Unix socket path override." env:"REMUX_SOCKET"`
	Attach     AttachCmd        `cmd:"" aliases:"a" help:"Attach to a session, creating it if session-id is omitted or unknown."`
	List       ListCmd          `cmd:"" aliases:"ls" help:"List live sessions."`
	Daemon     DaemonCmd        `cmd:"" help:"Run the daemon in the foreground."`
	Init       InitCmd          `cmd:"" help:"Create a default config file."`
	Completion CompletionCmd    `cmd:"" help:"Print shell completion setup instructions, or generate a completion script with --code."`
}

type AttachCmd struct {
	SessionID uint32 `arg:"" optional:"" help:"Session id to attach to (omit to create a new session)." completion-predictor:"session"`
}

func (cmd *AttachCmd) Run(cfg *config.Config) error {
	sock := resolveSocket(cfg)
	if err := ensureDaemon(sock); err != nil {
		return err
	}
	c, err := client.Connect(sock)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.RunAttach(cmd.SessionID)
}

type ListCmd struct{}

func (cmd *ListCmd) Run(cfg *config.Config) error {
	c, err := client.Connect(resolveSocket(cfg))
	if err != nil {
		return err
	}
	defer c.Close()

	ids, err := c.ListSessions()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

type DaemonCmd struct{}

func (cmd *DaemonCmd) Run(cfg *config.Config) error {
	srv, err := daemon.New(&cfg.Daemon, cfg.Session)
	if err != nil {
		return fmt.Errorf("init daemon: %w", err)
	}
	return srv.Listen()
}

type InitCmd struct{}

func (cmd *InitCmd) Run(_ *config.Config) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config.Default()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("created %s\n", path)
	return nil
}

func resolveSocket(cfg *config.Config) string {
	if cfg.Daemon.SocketPath != "" {
		return cfg.Daemon.SocketPath
	}
	sock, err := config.SocketPath()
	if err != nil {
		return ""
	}
	return sock
}

// ensureDaemon forks a detached daemon process if one is not already
// listening on sock, so an attach never requires a separate "start the
// daemon" step.
func ensureDaemon(sock string) error {
	if client.DaemonRunning(sock) {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	dir := filepath.Dir(sock)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	logFile, err := os.CreateTemp(dir, "remux-daemon-*.log")
	if err != nil {
		return fmt.Errorf("create daemon log: %w", err)
	}

	cmd := exec.Command(exe, "daemon", "--socket", sock)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdout = nil
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		logFile.Close()
		os.Remove(logFile.Name())
		return fmt.Errorf("start daemon: %w", err)
	}
	finalPath := filepath.Join(dir, fmt.Sprintf("remux-daemon-%d.log", cmd.Process.Pid))
	os.Rename(logFile.Name(), finalPath)
	logFile.Close()
	cmd.Process.Release()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("unix", sock)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for daemon at %s", sock)
}

func main() {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.UsageOnError(),
		kong.Vars{"version": remux.Version()},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	kongcompletion.Register(parser, kongcompletion.WithPredictor("session", sessionPredictor{}))

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.Printf("%s", err)
		parser.Exit(1)
		return
	}

	cfg, err := config.Load()
	ctx.FatalIfErrorf(err)
	if cli.Socket != "" {
		cfg.Daemon.SocketPath = cli.Socket
	}

	ctx.FatalIfErrorf(ctx.Run(cfg))
}
