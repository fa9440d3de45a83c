package vtcell

import "unicode/utf8"

// parserState is the VT100/ANSI escape-sequence recognizer's state.
type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateCSI
)

// Screen is a fixed-size VT100/ANSI emulator: it owns a live Grid and
// advances it byte-by-byte as PTY output arrives. It is not safe for
// concurrent use; each Pane owns exactly one Screen.
type Screen struct {
	grid *Grid

	cursorRow, cursorCol int
	savedRow, savedCol   int

	fg, bg    Color
	bold      bool
	italic    bool
	underline bool

	state  parserState
	params []int
	cur    int
	hasCur bool
}

// NewScreen returns a blank rows x cols screen with the cursor at the
// origin and default attributes.
func NewScreen(rows, cols int) *Screen {
	return &Screen{
		grid: NewGrid(rows, cols),
		fg:   DefaultColor,
		bg:   DefaultColor,
	}
}

// Grid returns the live grid. Callers that need a stable snapshot for
// diffing must call Clone on it before feeding the screen more bytes.
func (s *Screen) Grid() *Grid { return s.grid }

// CursorPosition returns the screen's current cursor position as
// 1-based (col, row), matching the wire convention used by cursor-move
// escapes.
func (s *Screen) CursorPosition() (col, row int) {
	return s.cursorCol + 1, s.cursorRow + 1
}

// Resize reallocates the grid to new dimensions, preserving the overlap
// with the previous contents in the top-left corner.
func (s *Screen) Resize(rows, cols int) {
	next := NewGrid(rows, cols)
	old := s.grid
	for r := 0; r < rows && r < old.Rows; r++ {
		for c := 0; c < cols && c < old.Cols; c++ {
			next.Cells[r][c] = old.Cells[r][c]
		}
	}
	s.grid = next
	if s.cursorRow >= rows {
		s.cursorRow = rows - 1
	}
	if s.cursorCol >= cols {
		s.cursorCol = cols - 1
	}
}

// Process feeds a chunk of PTY output through the parser, mutating the
// grid and cursor in place.
func (s *Screen) Process(data []byte) {
	i := 0
	for i < len(data) {
		b := data[i]
		switch s.state {
		case stateGround:
			switch {
			case b == 0x1b:
				s.state = stateEscape
				i++
			case b == '\r':
				s.cursorCol = 0
				i++
			case b == '\n':
				s.lineFeed()
				i++
			case b == '\b':
				if s.cursorCol > 0 {
					s.cursorCol--
				}
				i++
			case b == '\t':
				s.cursorCol = (s.cursorCol/8 + 1) * 8
				s.clampCol()
				i++
			case b == '\a':
				i++
			case b < 0x20:
				i++
			default:
				r, size := utf8.DecodeRune(data[i:])
				if r == utf8.RuneError && size <= 1 {
					i++
					continue
				}
				s.putRune(r, data[i:i+size])
				i += size
			}
		case stateEscape:
			switch b {
			case '[':
				s.state = stateCSI
				s.params = s.params[:0]
				s.cur = 0
				s.hasCur = false
			case ']', 'P', '_', '^', 'X':
				// String-terminated sequences (OSC/DCS/APC/PM/SOS): skip
				// to ST (ESC \) or BEL, best-effort.
				s.state = stateGround
				i = skipStringSeq(data, i+1)
				continue
			case 'c':
				s.reset()
				s.state = stateGround
			default:
				s.state = stateGround
			}
			i++
		case stateCSI:
			switch {
			case b >= '0' && b <= '9':
				s.cur = s.cur*10 + int(b-'0')
				s.hasCur = true
				i++
			case b == ';':
				s.params = append(s.params, s.cur)
				s.cur = 0
				s.hasCur = false
				i++
			case b >= '@' && b <= '~':
				if s.hasCur || len(s.params) == 0 {
					s.params = append(s.params, s.cur)
				}
				s.execCSI(b, s.params)
				s.state = stateGround
				i++
			default:
				// Intermediate bytes (0x20-0x2f) are ignored.
				i++
			}
		}
	}
}

func skipStringSeq(data []byte, i int) int {
	for i < len(data) {
		if data[i] == 0x07 {
			return i + 1
		}
		if data[i] == 0x1b && i+1 < len(data) && data[i+1] == '\\' {
			return i + 2
		}
		i++
	}
	return i
}

func (s *Screen) reset() {
	s.grid = NewGrid(s.grid.Rows, s.grid.Cols)
	s.cursorRow, s.cursorCol = 0, 0
	s.fg, s.bg = DefaultColor, DefaultColor
	s.bold, s.italic, s.underline = false, false, false
}

func (s *Screen) clampCol() {
	if s.cursorCol >= s.grid.Cols {
		s.cursorCol = s.grid.Cols - 1
	}
}

func (s *Screen) lineFeed() {
	if s.cursorRow == s.grid.Rows-1 {
		s.scrollUp()
		return
	}
	s.cursorRow++
}

func (s *Screen) scrollUp() {
	copy(s.grid.Cells, s.grid.Cells[1:])
	last := make([]Cell, s.grid.Cols)
	for i := range last {
		last[i] = blankCell
	}
	s.grid.Cells[s.grid.Rows-1] = last
}

func (s *Screen) putRune(r rune, raw []byte) {
	if s.cursorCol >= s.grid.Cols {
		s.cursorCol = 0
		s.lineFeed()
	}

	wide := runeWidth(r) == 2
	cell := Cell{
		Contents:  append([]byte(nil), raw...),
		FG:        s.fg,
		BG:        s.bg,
		Bold:      s.bold,
		Italic:    s.italic,
		Underline: s.underline,
		Wide:      wide,
	}
	s.grid.Cells[s.cursorRow][s.cursorCol] = cell
	s.cursorCol++

	if wide && s.cursorCol < s.grid.Cols {
		s.grid.Cells[s.cursorRow][s.cursorCol] = Cell{FG: s.fg, BG: s.bg, WideSpacer: true}
		s.cursorCol++
	}
}

// runeWidth is a deliberately small East-Asian-Wide approximation: exact
// Unicode width tables are out of scope for this renderer, which only
// needs to keep wide-spacer accounting consistent with what it itself
// wrote to the grid.
func runeWidth(r rune) int {
	switch {
	case r >= 0x1100 && r <= 0x115F,
		r == 0x2329, r == 0x232A,
		r >= 0x2E80 && r <= 0xA4CF && r != 0x303F,
		r >= 0xAC00 && r <= 0xD7A3,
		r >= 0xF900 && r <= 0xFAFF,
		r >= 0xFE30 && r <= 0xFE6F,
		r >= 0xFF00 && r <= 0xFF60,
		r >= 0xFFE0 && r <= 0xFFE6,
		r >= 0x20000 && r <= 0x3FFFD:
		return 2
	}
	return 1
}

func param(params []int, idx, def int) int {
	if idx >= len(params) || params[idx] == 0 {
		return def
	}
	return params[idx]
}

func (s *Screen) execCSI(final byte, params []int) {
	switch final {
	case 'A': // cursor up
		s.cursorRow -= param(params, 0, 1)
		if s.cursorRow < 0 {
			s.cursorRow = 0
		}
	case 'B': // cursor down
		s.cursorRow += param(params, 0, 1)
		if s.cursorRow >= s.grid.Rows {
			s.cursorRow = s.grid.Rows - 1
		}
	case 'C': // cursor forward
		s.cursorCol += param(params, 0, 1)
		s.clampCol()
	case 'D': // cursor back
		s.cursorCol -= param(params, 0, 1)
		if s.cursorCol < 0 {
			s.cursorCol = 0
		}
	case 'G': // cursor horizontal absolute
		s.cursorCol = clampInt(param(params, 0, 1)-1, 0, s.grid.Cols-1)
	case 'd': // line position absolute
		s.cursorRow = clampInt(param(params, 0, 1)-1, 0, s.grid.Rows-1)
	case 'H', 'f': // cursor position
		row := param(params, 0, 1) - 1
		col := param(params, 1, 1) - 1
		s.cursorRow = clampInt(row, 0, s.grid.Rows-1)
		s.cursorCol = clampInt(col, 0, s.grid.Cols-1)
	case 'J': // erase in display
		s.eraseDisplay(param(params, 0, 0))
	case 'K': // erase in line
		s.eraseLine(param(params, 0, 0))
	case 'm': // SGR
		s.sgr(params)
	case 's': // save cursor
		s.savedRow, s.savedCol = s.cursorRow, s.cursorCol
	case 'u': // restore cursor
		s.cursorRow, s.cursorCol = s.savedRow, s.savedCol
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Screen) eraseDisplay(mode int) {
	switch mode {
	case 0:
		s.eraseLine(0)
		for r := s.cursorRow + 1; r < s.grid.Rows; r++ {
			s.blankRow(r)
		}
	case 1:
		s.eraseLine(1)
		for r := 0; r < s.cursorRow; r++ {
			s.blankRow(r)
		}
	case 2, 3:
		for r := 0; r < s.grid.Rows; r++ {
			s.blankRow(r)
		}
	}
}

func (s *Screen) eraseLine(mode int) {
	row := s.grid.Cells[s.cursorRow]
	switch mode {
	case 0:
		for c := s.cursorCol; c < len(row); c++ {
			row[c] = blankCell
		}
	case 1:
		for c := 0; c <= s.cursorCol && c < len(row); c++ {
			row[c] = blankCell
		}
	case 2:
		for c := range row {
			row[c] = blankCell
		}
	}
}

func (s *Screen) blankRow(r int) {
	row := s.grid.Cells[r]
	for c := range row {
		row[c] = blankCell
	}
}

func (s *Screen) sgr(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			s.fg, s.bg = DefaultColor, DefaultColor
			s.bold, s.italic, s.underline = false, false, false
		case p == 1:
			s.bold = true
		case p == 3:
			s.italic = true
		case p == 4:
			s.underline = true
		case p == 22:
			s.bold = false
		case p == 23:
			s.italic = false
		case p == 24:
			s.underline = false
		case p == 39:
			s.fg = DefaultColor
		case p == 49:
			s.bg = DefaultColor
		case p >= 30 && p <= 37:
			s.fg = Color{Kind: ColorIndexed, Idx: uint8(p - 30)}
		case p >= 40 && p <= 47:
			s.bg = Color{Kind: ColorIndexed, Idx: uint8(p - 40)}
		case p >= 90 && p <= 97:
			s.fg = Color{Kind: ColorIndexed, Idx: uint8(p-90) + 8}
		case p >= 100 && p <= 107:
			s.bg = Color{Kind: ColorIndexed, Idx: uint8(p-100) + 8}
		case p == 38 || p == 48:
			isFG := p == 38
			if i+1 >= len(params) {
				break
			}
			switch params[i+1] {
			case 5:
				if i+2 < len(params) {
					c := Color{Kind: ColorIndexed, Idx: uint8(params[i+2])}
					if isFG {
						s.fg = c
					} else {
						s.bg = c
					}
				}
				i += 2
			case 2:
				if i+4 < len(params) {
					c := Color{Kind: ColorRGB, R: uint8(params[i+2]), G: uint8(params[i+3]), B: uint8(params[i+4])}
					if isFG {
						s.fg = c
					} else {
						s.bg = c
					}
				}
				i += 4
			}
		}
	}
}
