package layout

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestAddSplitVertical(t *testing.T) {
	root := NewLeaf(0)
	ok := root.AddSplit(0, 1, Vertical)
	assert.Assert(t, ok)

	rects := map[int]Rect{}
	root.CalculateLayout(Rect{X: 0, Y: 0, Width: 100, Height: 50}, rects)

	assert.DeepEqual(t, rects[0], Rect{X: 0, Y: 0, Width: 50, Height: 50})
	assert.DeepEqual(t, rects[1], Rect{X: 50, Y: 0, Width: 50, Height: 50})
}

func TestAddSplitOddWidth(t *testing.T) {
	root := NewLeaf(0)
	root.AddSplit(0, 1, Vertical)

	rects := map[int]Rect{}
	root.CalculateLayout(Rect{X: 0, Y: 0, Width: 101, Height: 50}, rects)

	// Left rounds down, right absorbs the remainder: widths sum exactly.
	assert.Equal(t, rects[0].Width+rects[1].Width, uint16(101))
	assert.Equal(t, rects[0].Width, uint16(50))
	assert.Equal(t, rects[1].Width, uint16(51))
}

func TestAddSplitNestedTarget(t *testing.T) {
	root := NewLeaf(0)
	root.AddSplit(0, 1, Vertical)
	ok := root.AddSplit(1, 2, Horizontal)
	assert.Assert(t, ok)

	rects := map[int]Rect{}
	root.CalculateLayout(Rect{X: 0, Y: 0, Width: 100, Height: 60}, rects)

	assert.DeepEqual(t, rects[0], Rect{X: 0, Y: 0, Width: 50, Height: 60})
	assert.DeepEqual(t, rects[1], Rect{X: 50, Y: 0, Width: 50, Height: 30})
	assert.DeepEqual(t, rects[2], Rect{X: 50, Y: 30, Width: 50, Height: 30})
}

func TestAddSplitMissingTarget(t *testing.T) {
	root := NewLeaf(0)
	ok := root.AddSplit(99, 1, Vertical)
	assert.Assert(t, !ok)
	assert.Assert(t, root.IsLeaf())
}

func TestRemoveNodeRestoresPriorLayout(t *testing.T) {
	root := NewLeaf(0)
	root.AddSplit(0, 1, Vertical)

	before := map[int]Rect{}
	root.CalculateLayout(Rect{X: 0, Y: 0, Width: 100, Height: 50}, before)

	root = RemoveNode(root, 1)
	assert.Assert(t, root != nil)
	assert.Assert(t, root.IsLeaf())
	assert.Equal(t, root.PaneID(), 0)

	after := map[int]Rect{}
	root.CalculateLayout(Rect{X: 0, Y: 0, Width: 100, Height: 50}, after)
	assert.DeepEqual(t, after, map[int]Rect{0: {X: 0, Y: 0, Width: 100, Height: 50}})
}

func TestRemoveNodeRootLeafReturnsNil(t *testing.T) {
	root := NewLeaf(0)
	root = RemoveNode(root, 0)
	assert.Assert(t, root == nil)
}

func TestRemoveNodeFromNestedSplit(t *testing.T) {
	root := NewLeaf(0)
	root.AddSplit(0, 1, Vertical)
	root.AddSplit(1, 2, Horizontal)

	root = RemoveNode(root, 2)
	assert.Assert(t, root != nil)

	leaves := root.Leaves()
	assert.Equal(t, len(leaves), 2)

	rects := map[int]Rect{}
	root.CalculateLayout(Rect{X: 0, Y: 0, Width: 100, Height: 60}, rects)
	assert.DeepEqual(t, rects[0], Rect{X: 0, Y: 0, Width: 50, Height: 60})
	assert.DeepEqual(t, rects[1], Rect{X: 50, Y: 0, Width: 50, Height: 60})
}

func TestLeaves(t *testing.T) {
	root := NewLeaf(0)
	root.AddSplit(0, 1, Vertical)
	root.AddSplit(1, 2, Horizontal)

	leaves := root.Leaves()
	assert.Equal(t, len(leaves), 3)
}
