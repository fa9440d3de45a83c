package vtcell

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"
)

func TestRenderDiffSkipsUnchangedCells(t *testing.T) {
	prev := NewGrid(1, 3)
	curr := NewGrid(1, 3)
	curr.Cells[0][1] = Cell{Contents: []byte("x"), FG: DefaultColor, BG: DefaultColor}

	out := RenderDiff(prev, curr, false)

	// Cursor move to column 2 (1-indexed) then the changed glyph then reset.
	assert.Assert(t, bytes.Contains(out, []byte("\x1b[1;2H")))
	assert.Assert(t, bytes.Contains(out, []byte("x")))
	assert.Assert(t, bytes.HasSuffix(out, []byte("\x1b[0m")))
	assert.Assert(t, !bytes.Contains(out, []byte("\x1b[1;1H")))
}

func TestRenderDiffRerenderClearsAndRepaintsEverything(t *testing.T) {
	curr := NewGrid(1, 2)
	curr.Cells[0][0] = Cell{Contents: []byte("a"), FG: DefaultColor, BG: DefaultColor}
	curr.Cells[0][1] = Cell{Contents: []byte("b"), FG: DefaultColor, BG: DefaultColor}

	out := RenderDiff(nil, curr, true)
	assert.Assert(t, bytes.HasPrefix(out, []byte("\x1b[H\x1b[2J")))
	assert.Assert(t, bytes.Contains(out, []byte("a")))
	assert.Assert(t, bytes.Contains(out, []byte("b")))
}

func TestRenderDiffSkipsWideSpacer(t *testing.T) {
	prev := NewGrid(1, 3)
	curr := NewGrid(1, 3)
	curr.Cells[0][0] = Cell{Contents: []byte("字"), FG: DefaultColor, BG: DefaultColor, Wide: true}
	curr.Cells[0][1] = Cell{FG: DefaultColor, BG: DefaultColor, WideSpacer: true}
	curr.Cells[0][2] = Cell{Contents: []byte("y"), FG: DefaultColor, BG: DefaultColor}

	out := RenderDiff(prev, curr, false)

	assert.Assert(t, bytes.Contains(out, []byte("\x1b[1;1H")))
	// The wide glyph advances the tracked cursor to column 3, so "y"
	// follows it directly with no cursor move.
	assert.Assert(t, bytes.Contains(out, []byte("字y")))
	assert.Assert(t, !bytes.Contains(out, []byte("\x1b[1;2H")))
}

func TestRenderDiffEmitsColorOnlyOnChange(t *testing.T) {
	prev := NewGrid(1, 2)
	curr := NewGrid(1, 2)
	red := Color{Kind: ColorIndexed, Idx: 1}
	curr.Cells[0][0] = Cell{Contents: []byte("a"), FG: red, BG: DefaultColor}
	curr.Cells[0][1] = Cell{Contents: []byte("b"), FG: red, BG: DefaultColor}

	out := RenderDiff(prev, curr, false)
	// Only one SGR color escape for the run of same-colored cells.
	assert.Equal(t, bytes.Count(out, []byte("38;5;1")), 1)
}
