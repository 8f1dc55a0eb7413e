package render

import (
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/radarterm/terminal"
)

// Buffer is a compositor backed by a terminal.Cell array with dirty tracking
// Untouched cells receive the default background on flush
type Buffer struct {
	cells   []Cell
	touched []bool
	width   int
	height  int
}

// NewBuffer creates a buffer with the specified dimensions
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Resize adjusts buffer dimensions, reallocating only if capacity is insufficient
func (b *Buffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	size := width * height
	if cap(b.cells) < size {
		b.cells = make([]Cell, size)
		b.touched = make([]bool, size)
	} else {
		b.cells = b.cells[:size]
		b.touched = b.touched[:size]
	}
	b.width = width
	b.height = height
	b.Clear()
}

// Clear resets all cells to empty
func (b *Buffer) Clear() {
	clear(b.cells)
	clear(b.touched)
}

// Bounds returns buffer dimensions
func (b *Buffer) Bounds() (int, int) {
	return b.width, b.height
}

func (b *Buffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Get returns the cell at (x, y), zero when out of range
func (b *Buffer) Get(x, y int) Cell {
	if !b.inBounds(x, y) {
		return Cell{}
	}
	return b.cells[y*b.width+x]
}

// ===== COMPOSITOR API =====

// Set composites a cell with the given blend mode; a zero rune keeps the existing glyph
func (b *Buffer) Set(x, y int, r rune, fg, bg RGB, mode BlendMode, alpha float64, attrs Attr) {
	if !b.inBounds(x, y) {
		return
	}
	idx := y*b.width + x
	dst := &b.cells[idx]

	op := uint8(mode) & 0x0F
	flags := uint8(mode) & 0xF0

	if r != 0 {
		dst.Rune = r
		dst.Attrs = attrs
	}
	if flags&flagBg != 0 {
		base := dst.Bg
		if !b.touched[idx] {
			base = RgbBackground
		}
		dst.Bg = apply(op, base, bg, alpha)
		b.touched[idx] = true
	}
	if flags&flagFg != 0 {
		dst.Fg = apply(op, dst.Fg, fg, alpha)
	}
}

// SetFg writes rune, foreground and attrs, preserving background
func (b *Buffer) SetFg(x, y int, r rune, fg RGB, attrs Attr) {
	if !b.inBounds(x, y) {
		return
	}
	dst := &b.cells[y*b.width+x]
	dst.Rune = r
	dst.Fg = fg
	dst.Attrs = attrs
}

// SetBg replaces the background, preserving rune and foreground
func (b *Buffer) SetBg(x, y int, bg RGB) {
	if !b.inBounds(x, y) {
		return
	}
	idx := y*b.width + x
	b.cells[idx].Bg = bg
	b.touched[idx] = true
}

// Background returns the effective background at (x, y)
func (b *Buffer) Background(x, y int) RGB {
	if !b.inBounds(x, y) {
		return RgbBackground
	}
	idx := y*b.width + x
	if !b.touched[idx] {
		return RgbBackground
	}
	return b.cells[idx].Bg
}

// Text writes s left to right starting at (x, y), clipped to maxX (exclusive)
// Returns the column after the last written cell
func (b *Buffer) Text(x, y, maxX int, s string, fg, bg RGB, attrs Attr) int {
	maxX = min(maxX, b.width)
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > maxX {
			break
		}
		b.Set(x, y, r, fg, bg, BlendReplace, 1, attrs)
		for i := 1; i < w; i++ {
			b.Set(x+i, y, ' ', fg, bg, BlendReplace, 1, attrs)
		}
		x += w
	}
	return x
}

// Fill sets the background of a rectangle
func (b *Buffer) Fill(r Rect, bg RGB) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			b.SetBg(x, y, bg)
		}
	}
}

// ===== OUTPUT =====

// finalize sets the default background on untouched cells
func (b *Buffer) finalize() {
	for i := range b.cells {
		if !b.touched[i] {
			b.cells[i].Bg = RgbBackground
		}
	}
}

// Flush writes the buffer to the terminal
func (b *Buffer) Flush(term terminal.Terminal) {
	b.finalize()
	term.Flush(b.cells, b.width, b.height)
}
