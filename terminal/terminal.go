// Package terminal wraps a tcell screen behind a cell-buffer interface
//
// Renderers never touch tcell directly: they fill a row-major []Cell and hand it to Flush.
// A headless implementation backs tests and offscreen rendering.
package terminal

import (
	"io"
	"os"
)

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// RGBBlack is the zero value black color
var RGBBlack = RGB{0, 0, 0}

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrReverse   Attr = 1 << 4
)

// Cell represents a single terminal cell
type Cell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs Attr
}

// Terminal provides the screen operations the client needs
type Terminal interface {
	// Init enters the alternate screen and hides the cursor
	Init() error

	// Fini restores terminal state. Safe to call multiple times
	Fini()

	// Size returns current terminal dimensions
	Size() (width, height int)

	// Flush writes cell buffer to terminal
	// Cells are row-major: cells[y*width + x]
	Flush(cells []Cell, width, height int)

	// Sync forces full redraw
	Sync()

	// PollEvent blocks until next input event
	PollEvent() Event

	// PostEvent injects a synthetic event
	PostEvent(Event)
}

var (
	seqCursorShow    = []byte("\x1b[?25h")
	seqAltScreenExit = []byte("\x1b[?1049l")
	seqSGR0          = []byte("\x1b[0m")
	seqAutoWrapOn    = []byte("\x1b[?7h")
)

// EmergencyReset restores a usable terminal after a crash, when Fini may not run
func EmergencyReset(w io.Writer) {
	w.Write(seqSGR0)
	w.Write(seqCursorShow)
	w.Write(seqAltScreenExit)
	w.Write(seqAutoWrapOn)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}
}
