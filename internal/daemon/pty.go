package daemon

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// Pty owns the master side of one forked pseudo-terminal and the child
// shell running on its slave side, one PTY per Pane rather than one per
// whole session. Uses creack/pty's StartWithSize and a SIGKILL shutdown
// path; the PTY's window size is set only at spawn.
type Pty struct {
	master *os.File
	cmd    *exec.Cmd
	pane   PaneHandle

	input    chan []byte
	killOnce sync.Once
	killCh   chan struct{}
}

// PtyHandle is the cheap, clonable handle other actors use to talk to a
// running Pty. Sending after the Pty has shut down is a no-op.
type PtyHandle struct {
	pty *Pty
}

// spawnPty forks a shell into a new pty pair sized rows x cols, wires its
// master fd to pane, and starts the actor's read and write-dispatch
// goroutines. The returned handle is usable immediately.
func spawnPty(pane PaneHandle, shellPath string, shellArgs []string, env []string, cwd string, rows, cols uint16) (PtyHandle, error) {
	cmd := exec.Command(shellPath, shellArgs...)
	cmd.Env = env
	cmd.Dir = cwd

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return PtyHandle{}, fmt.Errorf("daemon: spawn pty: %w", err)
	}

	p := &Pty{
		master: master,
		cmd:    cmd,
		pane:   pane,
		input:  make(chan []byte, 10),
		killCh: make(chan struct{}),
	}
	h := PtyHandle{pty: p}

	go p.readLoop()
	go p.writeLoop()

	return h, nil
}

// readLoop is the "master readable" source of §4.5: it reads up to 1KiB
// at a time and forwards every non-empty read to the owning Pane. EOF or
// any other read error (including the one produced by Close during Kill)
// initiates shutdown.
func (p *Pty) readLoop() {
	buf := make([]byte, 1024)
	for {
		n, err := p.master.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.pane.ptyOutput(chunk)
		}
		if err != nil {
			p.shutdown()
			return
		}
	}
}

// writeLoop is the "input channel" source of §4.5: it waits for queued
// input and writes it to the master fd, plus the "control channel"
// source's Kill case via killCh.
func (p *Pty) writeLoop() {
	for {
		select {
		case data, ok := <-p.input:
			if !ok {
				return
			}
			if _, err := p.master.Write(data); err != nil {
				slog.Warn("pty write failed", "err", err)
			}
		case <-p.killCh:
			return
		}
	}
}

// shutdown sends SIGKILL to the child, closes the master fd (which also
// unblocks readLoop with an error), reaps the child with Wait, and
// notifies the owning Pane. Idempotent: the first of an explicit Kill or
// a read EOF to reach here wins.
func (p *Pty) shutdown() {
	p.killOnce.Do(func() {
		close(p.killCh)
		if p.cmd.Process != nil {
			if err := p.cmd.Process.Kill(); err != nil {
				slog.Debug("pty kill child", "err", err)
			}
		}
		_ = p.master.Close()
		if _, err := p.cmd.Process.Wait(); err != nil {
			slog.Debug("pty reap child", "err", err)
		}
		p.pane.notifyPtyDied()
	})
}

// Send queues bytes to be written to the child. A send after shutdown is
// dropped rather than blocking forever on a loop that has already exited.
func (h PtyHandle) Send(data []byte) {
	select {
	case h.pty.input <- data:
	case <-h.pty.killCh:
	}
}

// Kill sends SIGKILL to the child and stops the actor's loops.
func (h PtyHandle) Kill() {
	h.pty.shutdown()
}
