package daemon

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Prometheus1400/remux/internal/layout"
)

// windowEvent is the inbound event sum type of §4.3.
type windowEvent interface{ isWindowEvent() }

type windowUserInput struct{ data []byte }
type windowPaneOutput struct {
	id     int
	data   []byte
	cursor *[2]int // (col, row), 1-based; nil if no cursor reported
}
type windowPaneDied struct{ id int }
type windowSplitPane struct{ direction layout.SplitDirection }
type windowIteratePane struct{ next bool }
type windowKillPane struct{}
type windowRedraw struct{}
type windowKill struct{}
type windowResize struct{ rows, cols uint16 }

func (windowUserInput) isWindowEvent()   {}
func (windowPaneOutput) isWindowEvent()  {}
func (windowPaneDied) isWindowEvent()    {}
func (windowSplitPane) isWindowEvent()   {}
func (windowIteratePane) isWindowEvent() {}
func (windowKillPane) isWindowEvent()    {}
func (windowRedraw) isWindowEvent()      {}
func (windowKill) isWindowEvent()        {}
func (windowResize) isWindowEvent()      {}

// shellSpec is the command a newly spawned Pane forks into its PTY.
type shellSpec struct {
	path string
	args []string
	env  []string
	cwd  string
}

// Window owns the layout tree, the pane set, the rect cache, and the
// cursor cache, per §4.3. Grounded on daemon/src/actors/window.rs, with
// the hardcoded root_rect of that file replaced by the outer size the
// session was created or last resized to, and the initial pane count
// reduced from two to one to match the single-pane attach-and-echo
// scenario of §8.
type Window struct {
	session WindowOwner

	events chan windowEvent
	done   chan struct{}

	shell        shellSpec
	resizePolicy string
	outer        layout.Rect
	layout       *layout.Node
	layoutRects  map[int]layout.Rect
	panes        map[int]PaneHandle
	paneCursors  map[int][2]int
	deadPanes    map[int]bool
	activePane   int
	nextPaneID   int
}

// WindowOwner is the subset of Session a Window needs: forwarding
// composed output upward. A Session implements this via its own
// unexported handle plumbing.
type WindowOwner interface {
	windowOutput(data []byte)
}

// WindowHandle is the clonable handle to a running Window.
type WindowHandle struct {
	window *Window
}

func (h WindowHandle) send(ev windowEvent) bool {
	if h.window == nil {
		return false
	}
	select {
	case h.window.events <- ev:
		return true
	case <-h.window.done:
		return false
	}
}

func (h WindowHandle) UserInput(data []byte) bool                       { return h.send(windowUserInput{data}) }
func (h WindowHandle) SplitPane(dir layout.SplitDirection) bool         { return h.send(windowSplitPane{dir}) }
func (h WindowHandle) IteratePane(next bool) bool                       { return h.send(windowIteratePane{next}) }
func (h WindowHandle) KillPane() bool                                   { return h.send(windowKillPane{}) }
func (h WindowHandle) Redraw() bool                                     { return h.send(windowRedraw{}) }
func (h WindowHandle) Kill() bool                                       { return h.send(windowKill{}) }
func (h WindowHandle) Resize(rows, cols uint16) bool                    { return h.send(windowResize{rows, cols}) }
func (h WindowHandle) paneOutput(id int, data []byte, cursor *[2]int) bool {
	return h.send(windowPaneOutput{id: id, data: data, cursor: cursor})
}
func (h WindowHandle) paneDied(id int) bool { return h.send(windowPaneDied{id: id}) }

// spawnWindow starts a Window with a single pane occupying the full
// outer rect. resizePolicy governs how a later Resize is applied: "last"
// (the default) makes the newest request authoritative; "largest" keeps
// whichever of the current and requested size is bigger per axis, per
// §9's resize-arbitration open question.
func spawnWindow(session WindowOwner, shell shellSpec, resizePolicy string, rows, cols uint16) (WindowHandle, error) {
	w := &Window{
		session:      session,
		events:       make(chan windowEvent, 10),
		done:         make(chan struct{}),
		shell:        shell,
		resizePolicy: resizePolicy,
		outer:        layout.Rect{X: 0, Y: 0, Width: cols, Height: rows},
		layoutRects:  make(map[int]layout.Rect),
		panes:        make(map[int]PaneHandle),
		paneCursors:  make(map[int][2]int),
		deadPanes:    make(map[int]bool),
		nextPaneID:   1,
	}
	h := WindowHandle{window: w}

	initID := 0
	w.layout = layout.NewLeaf(initID)
	w.layoutRects[initID] = w.outer
	pane, err := spawnPane(initID, h, shell.path, shell.args, shell.env, shell.cwd, rows, cols)
	if err != nil {
		close(w.done)
		return WindowHandle{}, err
	}
	w.panes[initID] = pane
	w.activePane = initID

	go w.run()
	return h, nil
}

func (w *Window) run() {
	defer close(w.done)
	for ev := range w.events {
		switch e := ev.(type) {
		case windowUserInput:
			w.handleUserInput(e.data)
		case windowPaneOutput:
			w.handlePaneOutput(e.id, e.data, e.cursor)
		case windowPaneDied:
			w.deadPanes[e.id] = true
			slog.Debug("window: pane pty died", "pane", e.id)
		case windowSplitPane:
			w.handleSplitPane(e.direction)
		case windowIteratePane:
			w.handleIteratePane(e.next)
		case windowKillPane:
			w.handleKillPane()
		case windowRedraw:
			w.handleRedraw()
		case windowResize:
			w.handleResize(e.rows, e.cols)
		case windowKill:
			for _, pane := range w.panes {
				pane.Kill()
			}
			return
		}
	}
}

func (w *Window) handleUserInput(data []byte) {
	pane, ok := w.panes[w.activePane]
	if !ok {
		return
	}
	pane.UserInput(data)
}

func (w *Window) handlePaneOutput(id int, data []byte, cursor *[2]int) {
	if cursor != nil {
		w.paneCursors[id] = *cursor
	}

	w.session.windowOutput(data)

	if pos, ok := w.paneCursors[w.activePane]; ok {
		restore := fmt.Appendf(nil, "\x1b[%d;%dH", pos[1], pos[0])
		w.session.windowOutput(restore)
	}
}

func (w *Window) handleRedraw() {
	for _, pane := range w.panes {
		pane.Rerender()
	}
}

func (w *Window) handleIteratePane(next bool) {
	ids := w.sortedPaneIDs()
	if len(ids) == 0 {
		return
	}

	idx := 0
	for i, id := range ids {
		if id == w.activePane {
			idx = i
			break
		}
	}

	if next {
		idx = (idx + 1) % len(ids)
	} else {
		idx = (idx - 1 + len(ids)) % len(ids)
	}
	w.activePane = ids[idx]

	var col, row int
	if pos, ok := w.paneCursors[w.activePane]; ok {
		col, row = pos[0], pos[1]
	} else if rect, ok := w.layoutRects[w.activePane]; ok {
		col, row = int(rect.X)+1, int(rect.Y)+1
	} else {
		return
	}
	w.session.windowOutput(fmt.Appendf(nil, "\x1b[%d;%dH", row, col))
}

// handleKillPane targets the active pane. A window with only one pane
// leaves it alone: there is no window-shutdown escalation in this core.
func (w *Window) handleKillPane() {
	if len(w.panes) <= 1 {
		slog.Warn("window: refusing to kill the last pane", "pane", w.activePane)
		return
	}

	dead := w.activePane
	if pane, ok := w.panes[dead]; ok {
		pane.Kill()
	}
	delete(w.panes, dead)
	delete(w.paneCursors, dead)
	delete(w.layoutRects, dead)
	delete(w.deadPanes, dead)

	w.layout = layout.RemoveNode(w.layout, dead)
	if w.layout == nil {
		return
	}

	for id := range w.panes {
		w.activePane = id
		break
	}

	w.recalculateLayout()
	for id, pane := range w.panes {
		if rect, ok := w.layoutRects[id]; ok {
			pane.Resize(rect.Height, rect.Width)
		}
	}

	w.session.windowOutput([]byte("\x1b[H\x1b[2J"))
	w.handleRedraw()
}

func (w *Window) handleSplitPane(direction layout.SplitDirection) {
	target := w.activePane
	newID := w.nextPaneID
	w.nextPaneID++

	if !w.layout.AddSplit(target, newID, direction) {
		slog.Warn("window: split target not found", "target", target)
		return
	}

	w.recalculateLayout()

	rect, ok := w.layoutRects[newID]
	if !ok {
		slog.Warn("window: split produced no rect for new pane", "pane", newID)
		return
	}
	pane, err := spawnPane(newID, WindowHandle{window: w}, w.shell.path, w.shell.args, w.shell.env, w.shell.cwd, rect.Height, rect.Width)
	if err != nil {
		slog.Error("window: failed to spawn pane for split", "err", err)
		return
	}
	w.panes[newID] = pane

	for id, p := range w.panes {
		if id == newID {
			continue
		}
		if r, ok := w.layoutRects[id]; ok {
			p.Resize(r.Height, r.Width)
		}
	}

	w.handleRedraw()
}

func (w *Window) handleResize(rows, cols uint16) {
	if w.resizePolicy == "largest" {
		if w.outer.Width > cols {
			cols = w.outer.Width
		}
		if w.outer.Height > rows {
			rows = w.outer.Height
		}
	}
	w.outer = layout.Rect{X: 0, Y: 0, Width: cols, Height: rows}
	w.recalculateLayout()
	for id, pane := range w.panes {
		if rect, ok := w.layoutRects[id]; ok {
			pane.Resize(rect.Height, rect.Width)
		}
	}
}

func (w *Window) recalculateLayout() {
	w.layoutRects = make(map[int]layout.Rect)
	w.layout.CalculateLayout(w.outer, w.layoutRects)
}

func (w *Window) sortedPaneIDs() []int {
	ids := make([]int, 0, len(w.panes))
	for id := range w.panes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
