package client

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/Prometheus1400/remux/internal/inputparser"
	"github.com/Prometheus1400/remux/internal/protocol"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// RunAttach puts the controlling terminal into raw mode, attaches to
// sessionID (0 meaning "create a new one"), and pumps bytes in both
// directions until the daemon disconnects the client or the prefix-key
// detach command fires. Grounded on client/attach.go's raw-mode pump,
// trimmed to the byte-stream passthrough this core's wire taxonomy
// supports (no state-dump replay or kitty-keyboard handling, since
// neither exists on this wire).
func (c *Client) RunAttach(sessionID uint32) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("client: attach requires a terminal")
	}

	attached, created, err := c.Attach(sessionID)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(os.Stderr, "[remux] created session %d\n", attached)
	} else {
		fmt.Fprintf(os.Stderr, "[remux] attached to session %d\n", attached)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("client: set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	if ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil {
		_ = c.WriteCliEvent(protocol.CliTerminalResize{Rows: ws.Row, Cols: ws.Col})
	}

	sigwinch := make(chan os.Signal, 1)
	signal.Notify(sigwinch, unix.SIGWINCH)
	defer signal.Stop(sigwinch)

	var writeMu sync.Mutex
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigwinch:
				ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
				if err != nil {
					continue
				}
				writeMu.Lock()
				err = c.WriteCliEvent(protocol.CliTerminalResize{Rows: ws.Row, Cols: ws.Col})
				writeMu.Unlock()
				if err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	go func() {
		parser := inputparser.New()
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				for _, ev := range parser.Process(buf[:n]) {
					if ev.IsLocal() {
						handleLocal(c, &writeMu, ev.Local)
						continue
					}
					writeMu.Lock()
					werr := c.WriteCliEvent(ev.Daemon)
					writeMu.Unlock()
					if werr != nil {
						return
					}
				}
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		ev, err := c.ReadDaemonEvent()
		if err != nil {
			close(done)
			term.Restore(fd, oldState)
			if err == io.EOF {
				fmt.Fprintln(os.Stderr, "[remux] disconnected")
				return nil
			}
			return fmt.Errorf("client: read daemon event: %w", err)
		}

		switch e := ev.(type) {
		case protocol.DaemonRaw:
			os.Stdout.Write(e.Data)
		case protocol.DaemonActiveSession:
			fmt.Fprintf(os.Stderr, "[remux] active session %d\n", e.SessionID)
		case protocol.DaemonNewSession:
			fmt.Fprintf(os.Stderr, "[remux] new session available: %d\n", e.SessionID)
		case protocol.DaemonDeletedSession:
			fmt.Fprintf(os.Stderr, "[remux] session %d ended\n", e.SessionID)
		case protocol.DaemonCurrentSessions:
			fmt.Fprintf(os.Stderr, "[remux] sessions: %v\n", e.SessionIDs)
		case protocol.DaemonSwitchSessionOptions:
			fmt.Fprintf(os.Stderr, "[remux] sessions available to switch to: %v\n", e.SessionIDs)
		case protocol.DaemonDisconnected:
			close(done)
			term.Restore(fd, oldState)
			fmt.Fprintln(os.Stderr, "[remux] detached")
			return nil
		}
	}
}

// handleLocal handles a LocalAction produced by the input parser. Only
// SwitchSessionPicker exists today: it asks the daemon for the live
// session list and lets the DaemonSwitchSessionOptions handler above
// print it, since an interactive picker UI is out of scope.
func handleLocal(c *Client, writeMu *sync.Mutex, action inputparser.LocalAction) {
	switch action {
	case inputparser.SwitchSessionPicker:
		writeMu.Lock()
		_ = c.WriteCliEvent(protocol.CliSwitchSession{SessionID: 0})
		writeMu.Unlock()
	}
}
