package vtcell

import "fmt"

// RenderDiff produces the minimal ANSI byte sequence that, applied to a
// terminal currently displaying prev, yields curr. When rerender is true
// every cell of curr is treated as differing and the output is prefixed
// with a clear-screen sequence (a full repaint).
//
// Grounded line-for-line on RemuxCell::render_diff: iterate cells in
// row-major order, skip wide-spacer columns, skip unchanged cells unless
// rerendering, move the cursor only when it isn't already positioned at
// the next differing cell, and emit SGR color changes only when the
// color actually changes.
func RenderDiff(prev, curr *Grid, rerender bool) []byte {
	var out []byte
	if rerender {
		out = append(out, "\x1b[H\x1b[2J"...)
	}

	currentFG := DefaultColor
	currentBG := DefaultColor

	cursorRow, cursorCol := 0, 0
	cursorInvalid := true

	for r := 0; r < curr.Rows; r++ {
		for c := 0; c < curr.Cols; c++ {
			cell := curr.Cells[r][c]
			if cell.WideSpacer {
				continue
			}

			if !rerender && r < prev.Rows && c < prev.Cols {
				if cell.equal(prev.Cells[r][c]) {
					continue
				}
			}

			if cursorInvalid || cursorRow != r || cursorCol != c {
				out = append(out, fmt.Sprintf("\x1b[%d;%dH", r+1, c+1)...)
				cursorRow, cursorCol = r, c
				cursorInvalid = false
			}

			if cell.FG != currentFG {
				out = writeSGRColor(out, cell.FG, true)
				currentFG = cell.FG
			}
			if cell.BG != currentBG {
				out = writeSGRColor(out, cell.BG, false)
				currentBG = cell.BG
			}

			out = append(out, cell.Contents...)

			if cell.Wide {
				cursorCol += 2
			} else {
				cursorCol++
			}
		}
	}

	out = append(out, "\x1b[0m"...)
	return out
}

func writeSGRColor(out []byte, color Color, isFG bool) []byte {
	switch color.Kind {
	case ColorDefault:
		code := 39
		if !isFG {
			code = 49
		}
		return append(out, fmt.Sprintf("\x1b[%dm", code)...)
	case ColorIndexed:
		prefix := 38
		if !isFG {
			prefix = 48
		}
		return append(out, fmt.Sprintf("\x1b[%d;5;%dm", prefix, color.Idx)...)
	case ColorRGB:
		prefix := 38
		if !isFG {
			prefix = 48
		}
		return append(out, fmt.Sprintf("\x1b[%d;2;%d;%d;%dm", prefix, color.R, color.G, color.B)...)
	}
	return out
}
