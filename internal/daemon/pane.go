package daemon

import (
	"github.com/Prometheus1400/remux/internal/vtcell"
)

// paneEvent is the inbound event sum type of §4.4, expressed as a Go
// interface with one concrete type per variant rather than a Rust enum.
type paneEvent interface{ isPaneEvent() }

type paneUserInput struct{ data []byte }
type panePtyOutput struct{ data []byte }
type panePtyDied struct{}
type paneRerender struct{}
type paneHide struct{}
type paneReveal struct{}
type paneKill struct{}
type paneResize struct{ rows, cols uint16 }

func (paneUserInput) isPaneEvent() {}
func (panePtyOutput) isPaneEvent() {}
func (panePtyDied) isPaneEvent()   {}
func (paneRerender) isPaneEvent()  {}
func (paneHide) isPaneEvent()      {}
func (paneReveal) isPaneEvent()    {}
func (paneKill) isPaneEvent()      {}
func (paneResize) isPaneEvent()    {}

// Pane owns one VT screen and one PTY. Grounded on
// daemon/src/actors/pane.rs, with vt100::Parser/Screen swapped for
// internal/vtcell and the diff/rerender split kept intact.
type Pane struct {
	id     int
	window WindowHandle
	pty    PtyHandle

	events chan paneEvent
	done   chan struct{}

	screen *vtcell.Screen
	prev   *vtcell.Grid
	hidden bool
}

// PaneHandle is the clonable handle to a running Pane.
type PaneHandle struct {
	pane *Pane
}

// send delivers ev to the pane, reporting false if the pane has already
// terminated (the sender should treat this like a dead-child reconcile,
// per §7's channel-closed policy).
func (h PaneHandle) send(ev paneEvent) bool {
	if h.pane == nil {
		return false
	}
	select {
	case h.pane.events <- ev:
		return true
	case <-h.pane.done:
		return false
	}
}

func (h PaneHandle) ID() int { return h.pane.id }

func (h PaneHandle) UserInput(data []byte) bool    { return h.send(paneUserInput{data}) }
func (h PaneHandle) Rerender() bool                { return h.send(paneRerender{}) }
func (h PaneHandle) Hide() bool                    { return h.send(paneHide{}) }
func (h PaneHandle) Reveal() bool                  { return h.send(paneReveal{}) }
func (h PaneHandle) Kill() bool                    { return h.send(paneKill{}) }
func (h PaneHandle) Resize(rows, cols uint16) bool { return h.send(paneResize{rows, cols}) }

// ptyOutput and notifyPtyDied are called by this pane's own Pty; they are
// not part of the public actor surface other components use.
func (h PaneHandle) ptyOutput(data []byte) { h.send(panePtyOutput{data}) }
func (h PaneHandle) notifyPtyDied()        { h.send(panePtyDied{}) }

// spawnPane starts a Pane sized rows x cols, forking a PTY running
// shellPath/shellArgs in cwd with env.
func spawnPane(id int, window WindowHandle, shellPath string, shellArgs []string, env []string, cwd string, rows, cols uint16) (PaneHandle, error) {
	p := &Pane{
		id:     id,
		window: window,
		events: make(chan paneEvent, 10),
		done:   make(chan struct{}),
		screen: vtcell.NewScreen(int(rows), int(cols)),
	}
	h := PaneHandle{pane: p}

	ptyHandle, err := spawnPty(h, shellPath, shellArgs, env, cwd, rows, cols)
	if err != nil {
		close(p.done)
		return PaneHandle{}, err
	}
	p.pty = ptyHandle

	go p.run()
	return h, nil
}

func (p *Pane) run() {
	defer close(p.done)
	for ev := range p.events {
		switch e := ev.(type) {
		case paneUserInput:
			p.pty.Send(e.data)
		case panePtyOutput:
			p.screen.Process(e.data)
			p.handleRender()
		case panePtyDied:
			p.window.paneDied(p.id)
			return
		case paneRerender:
			p.handleRerender()
		case paneHide:
			p.hidden = true
		case paneReveal:
			p.hidden = false
		case paneKill:
			p.pty.Kill()
			return
		case paneResize:
			p.screen.Resize(int(e.rows), int(e.cols))
			p.handleRerender()
		}
	}
}

func (p *Pane) handleRender() {
	if p.hidden {
		return
	}
	if p.prev == nil {
		p.handleRerender()
		return
	}
	cur := p.screen.Grid()
	diff := vtcell.RenderDiff(p.prev, cur, false)
	p.prev = cur.Clone()
	col, row := p.screen.CursorPosition()
	p.window.paneOutput(p.id, diff, &[2]int{col, row})
}

func (p *Pane) handleRerender() {
	cur := p.screen.Grid()
	out := vtcell.RenderDiff(cur, cur, true)
	p.prev = cur.Clone()
	if p.hidden {
		return
	}
	col, row := p.screen.CursorPosition()
	p.window.paneOutput(p.id, out, &[2]int{col, row})
}
