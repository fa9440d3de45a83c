package vtcell

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestPutRuneAdvancesCursor(t *testing.T) {
	s := NewScreen(5, 10)
	s.Process([]byte("ab"))
	col, row := s.CursorPosition()
	assert.Equal(t, col, 3)
	assert.Equal(t, row, 1)
	assert.Equal(t, string(s.grid.Cells[0][0].Contents), "a")
	assert.Equal(t, string(s.grid.Cells[0][1].Contents), "b")
}

func TestCarriageReturnLineFeed(t *testing.T) {
	s := NewScreen(5, 10)
	s.Process([]byte("ab\r\ncd"))
	col, row := s.CursorPosition()
	assert.Equal(t, col, 3)
	assert.Equal(t, row, 2)
	assert.Equal(t, string(s.grid.Cells[1][0].Contents), "c")
}

func TestScrollOnLineFeedAtBottom(t *testing.T) {
	s := NewScreen(2, 5)
	s.Process([]byte("aa\r\nbb\r\ncc"))
	assert.Equal(t, string(s.grid.Cells[0][0].Contents), "b")
	assert.Equal(t, string(s.grid.Cells[1][0].Contents), "c")
}

func TestCursorPositionEscape(t *testing.T) {
	s := NewScreen(10, 10)
	s.Process([]byte("\x1b[3;4H"))
	col, row := s.CursorPosition()
	assert.Equal(t, col, 4)
	assert.Equal(t, row, 3)
}

func TestEraseLine(t *testing.T) {
	s := NewScreen(2, 5)
	s.Process([]byte("hello"))
	s.Process([]byte("\x1b[1;1H\x1b[2K"))
	for c := 0; c < 5; c++ {
		assert.Equal(t, len(s.grid.Cells[0][c].Contents), 0)
	}
}

func TestSGRColorIndexed(t *testing.T) {
	s := NewScreen(2, 5)
	s.Process([]byte("\x1b[31mx"))
	cell := s.grid.Cells[0][0]
	assert.Equal(t, cell.FG.Kind, ColorIndexed)
	assert.Equal(t, cell.FG.Idx, uint8(1))
}

func TestSGRColorRGB(t *testing.T) {
	s := NewScreen(2, 5)
	s.Process([]byte("\x1b[38;2;10;20;30mx"))
	cell := s.grid.Cells[0][0]
	assert.Equal(t, cell.FG.Kind, ColorRGB)
	assert.Equal(t, cell.FG.R, uint8(10))
	assert.Equal(t, cell.FG.G, uint8(20))
	assert.Equal(t, cell.FG.B, uint8(30))
}

func TestSGRReset(t *testing.T) {
	s := NewScreen(2, 5)
	s.Process([]byte("\x1b[1;31mx\x1b[0my"))
	assert.Equal(t, s.grid.Cells[0][1].FG, DefaultColor)
	assert.Assert(t, !s.grid.Cells[0][1].Bold)
}

func TestResizePreservesOverlap(t *testing.T) {
	s := NewScreen(5, 10)
	s.Process([]byte("hi"))
	s.Resize(3, 3)
	assert.Equal(t, s.grid.Rows, 3)
	assert.Equal(t, s.grid.Cols, 3)
	assert.Equal(t, string(s.grid.Cells[0][0].Contents), "h")
}
