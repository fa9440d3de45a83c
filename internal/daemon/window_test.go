package daemon

import (
	"testing"

	"github.com/Prometheus1400/remux/internal/layout"
	"gotest.tools/v3/assert"
)

type fakeWindowOwner struct{ out [][]byte }

func (f *fakeWindowOwner) windowOutput(data []byte) { f.out = append(f.out, data) }

func newTestWindow(resizePolicy string, rows, cols uint16) *Window {
	w := &Window{
		session:      &fakeWindowOwner{},
		resizePolicy: resizePolicy,
		outer:        layout.Rect{X: 0, Y: 0, Width: cols, Height: rows},
		layout:       layout.NewLeaf(0),
		layoutRects:  map[int]layout.Rect{0: {X: 0, Y: 0, Width: cols, Height: rows}},
		panes:        map[int]PaneHandle{},
		paneCursors:  map[int][2]int{},
		deadPanes:    map[int]bool{},
	}
	return w
}

func TestHandleResizeLastPolicyTakesNewestRequest(t *testing.T) {
	w := newTestWindow("last", 24, 80)
	w.handleResize(40, 100)
	assert.Equal(t, w.outer.Height, uint16(40))
	assert.Equal(t, w.outer.Width, uint16(100))

	w.handleResize(20, 60)
	assert.Equal(t, w.outer.Height, uint16(20))
	assert.Equal(t, w.outer.Width, uint16(60))
}

func TestHandleResizeLargestPolicyKeepsMaxPerAxis(t *testing.T) {
	w := newTestWindow("largest", 24, 80)

	w.handleResize(40, 60) // taller but narrower
	assert.Equal(t, w.outer.Height, uint16(40))
	assert.Equal(t, w.outer.Width, uint16(80))

	w.handleResize(10, 100) // shorter but wider
	assert.Equal(t, w.outer.Height, uint16(40))
	assert.Equal(t, w.outer.Width, uint16(100))
}

func TestHandleResizeDefaultPolicyIsLast(t *testing.T) {
	w := newTestWindow("", 24, 80)
	w.handleResize(10, 10)
	assert.Equal(t, w.outer.Height, uint16(10))
	assert.Equal(t, w.outer.Width, uint16(10))
}

func TestHandleKillPaneRefusesLastPane(t *testing.T) {
	w := newTestWindow("last", 24, 80)
	w.panes[0] = PaneHandle{}
	w.activePane = 0

	w.handleKillPane()

	assert.Equal(t, len(w.panes), 1)
	if _, ok := w.panes[0]; !ok {
		t.Fatal("handleKillPane removed the last remaining pane")
	}
}

func TestSortedPaneIDs(t *testing.T) {
	w := newTestWindow("last", 24, 80)
	w.panes[3] = PaneHandle{}
	w.panes[1] = PaneHandle{}
	w.panes[2] = PaneHandle{}

	ids := w.sortedPaneIDs()
	assert.DeepEqual(t, ids, []int{1, 2, 3})
}

func TestHandleIteratePaneWrapsAround(t *testing.T) {
	w := newTestWindow("last", 24, 80)
	w.panes[1] = PaneHandle{}
	w.panes[2] = PaneHandle{}
	w.panes[3] = PaneHandle{}
	w.layoutRects = map[int]layout.Rect{
		1: {X: 0, Y: 0, Width: 80, Height: 8},
		2: {X: 0, Y: 8, Width: 80, Height: 8},
		3: {X: 0, Y: 16, Width: 80, Height: 8},
	}
	w.activePane = 3

	w.handleIteratePane(true)
	assert.Equal(t, w.activePane, 1)

	w.handleIteratePane(false)
	assert.Equal(t, w.activePane, 3)
}
