package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"github.com/Prometheus1400/remux/internal/config"
	"github.com/Prometheus1400/remux/internal/protocol"
	"github.com/hashicorp/go-multierror"
	"github.com/riywo/loginshell"
	"golang.org/x/sys/unix"
)

// Server owns the listening socket and the single SessionManager for the
// process. Everything client-facing routes through the SessionManager
// actor rather than a shared mutex-guarded map.
type Server struct {
	socketPath string
	pidPath    string

	manager SessionManagerHandle

	listener     net.Listener
	shutdownOnce sync.Once
	closeCh      chan struct{}
}

// New builds a Server that will spawn sessions with the given shell
// whenever a client attaches to a session_id that does not exist yet.
func New(cfg *config.DaemonConfig, sessionCfg config.SessionConfig) (*Server, error) {
	sock := cfg.SocketPath
	if sock == "" {
		var err error
		sock, err = config.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("daemon: determine socket path: %w", err)
		}
	}

	shell, err := resolveShell(sessionCfg.Shell)
	if err != nil {
		return nil, err
	}

	cols, rows := sessionCfg.Cols, sessionCfg.Rows
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}

	spec := shellSpec{
		path: shell,
		env:  filterEnv(sessionCfg.ForwardEnv),
	}

	resizePolicy := sessionCfg.ResizePolicy
	if resizePolicy == "" {
		resizePolicy = "last"
	}

	s := &Server{
		socketPath: sock,
		pidPath:    filepath.Join(filepath.Dir(sock), "remux.pid"),
		manager:    spawnSessionManager(spec, resizePolicy, rows, cols),
		closeCh:    make(chan struct{}),
	}
	return s, nil
}

// resolveShell falls back to the user's login shell when no shell is
// configured.
func resolveShell(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	sh, err := loginshell.Shell()
	if err != nil {
		return "", fmt.Errorf("daemon: determine login shell: %w", err)
	}
	return sh, nil
}

// filterEnv keeps only the environment variables the session config asks
// to forward into spawned shells, per §3's "ambient-env allowlist"
// ambient-stack expectation rather than handing the daemon's entire
// environment to every pane.
func filterEnv(allow []string) []string {
	want := make(map[string]bool, len(allow))
	for _, k := range allow {
		want[k] = true
	}
	out := make([]string, 0, len(allow))
	for _, kv := range os.Environ() {
		for k := range want {
			if len(kv) > len(k) && kv[:len(k)] == k && kv[len(k)] == '=' {
				out = append(out, kv)
				break
			}
		}
	}
	return out
}

// Listen opens the control socket and serves connections until Shutdown
// is called or a termination signal is received.
func (s *Server) Listen() error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("daemon: create socket dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("daemon: remove stale socket", "path", s.socketPath, "err", err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("daemon: listen: %w", err)
	}
	s.listener = ln

	if err := s.writePID(); err != nil {
		ln.Close()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-sigCh:
			slog.Info("daemon: received shutdown signal")
			s.Shutdown()
		case <-s.closeCh:
		}
	}()

	slog.Info("daemon listening", "socket", s.socketPath)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return nil
			default:
				slog.Error("daemon: accept error", "err", err)
				continue
			}
		}
		go s.handleConn(conn)
	}
}

// handleConn verifies the peer's UID, reads the one-shot handshake
// request, and either answers a session listing directly or hands the
// connection off to a ClientConnection actor for the rest of its life.
func (s *Server) handleConn(netConn net.Conn) {
	unixConn, ok := netConn.(*net.UnixConn)
	if !ok {
		netConn.Close()
		return
	}
	if !peerUIDMatches(unixConn) {
		netConn.Close()
		return
	}

	conn := protocol.NewConn(netConn)
	req, err := conn.ReadHandshakeRequest()
	if err != nil {
		slog.Debug("daemon: read handshake request", "err", err)
		netConn.Close()
		return
	}

	switch {
	case req.SessionsList != nil:
		defer netConn.Close()
		if err := conn.WriteHandshakeResponse(protocol.HandshakeResponse{
			Result: protocol.HandshakeResult{Type: "Success", SessionIDs: s.manager.listSessionIDs()},
		}); err != nil {
			slog.Debug("daemon: write sessions list", "err", err)
		}
	case req.Attach != nil:
		sessionID := req.Attach.SessionID
		created := sessionID == 0 || !s.manager.sessionExists(sessionID)
		if sessionID == 0 {
			sessionID = newSessionID()
		}
		if err := conn.WriteHandshakeResponse(protocol.HandshakeResponse{
			Result: protocol.HandshakeResult{Type: "Success", Created: created, SessionID: sessionID},
		}); err != nil {
			slog.Debug("daemon: write attach response", "err", err)
			netConn.Close()
			return
		}
		spawnClientConnection(conn, s.manager, sessionID)
	default:
		netConn.Close()
	}
}

func peerUIDMatches(conn *net.UnixConn) bool {
	raw, err := conn.SyscallConn()
	if err != nil {
		return false
	}
	var peerUID int
	var credErr error
	raw.Control(func(fd uintptr) {
		cred, err := unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
		if err != nil {
			credErr = err
			return
		}
		peerUID = int(cred.Uid)
	})
	if credErr != nil {
		slog.Warn("daemon: getpeereid failed", "err", credErr)
		return false
	}
	if peerUID != os.Getuid() {
		slog.Warn("daemon: rejected connection from different UID", "peer", peerUID)
		return false
	}
	return true
}

// Shutdown stops accepting connections and tears down the socket and PID
// file. It is idempotent and safe to call from a signal handler.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(s.shutdown)
}

// shutdown tears down the listener, socket, and PID file. Any of the
// three can fail independently (the socket may already be gone, the PID
// file may have been cleaned up by another process); multierror collects
// whichever actually failed into one log line instead of three.
func (s *Server) shutdown() {
	close(s.closeCh)

	var result *multierror.Error
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close listener: %w", err))
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		result = multierror.Append(result, fmt.Errorf("remove socket %s: %w", s.socketPath, err))
	}
	if err := os.Remove(s.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		result = multierror.Append(result, fmt.Errorf("remove pid file %s: %w", s.pidPath, err))
	}
	if result.ErrorOrNil() != nil {
		slog.Warn("daemon: shutdown cleanup", "err", result)
	}
}

func (s *Server) writePID() error {
	return os.WriteFile(s.pidPath, []byte(strconv.Itoa(os.Getpid())), 0o600)
}
