package terminal

import "sync"

// Headless is an in-memory Terminal for tests and offscreen rendering
type Headless struct {
	mu     sync.Mutex
	width  int
	height int
	cells  []Cell
	frames int
	events chan Event
	closed bool
}

// NewHeadless creates a headless terminal of the given size
func NewHeadless(width, height int) *Headless {
	return &Headless{
		width:  width,
		height: height,
		events: make(chan Event, 64),
	}
}

func (h *Headless) Init() error { return nil }

// Fini unblocks PollEvent with EventClosed
func (h *Headless) Fini() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.events)
}

func (h *Headless) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// Flush keeps a copy of the frame for inspection
func (h *Headless) Flush(cells []Cell, width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cells = append(h.cells[:0], cells[:width*height]...)
	h.width, h.height = width, height
	h.frames++
}

func (h *Headless) Sync() {}

func (h *Headless) PollEvent() Event {
	ev, ok := <-h.events
	if !ok {
		return Event{Type: EventClosed}
	}
	return ev
}

func (h *Headless) PostEvent(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.events <- ev:
	default:
	}
}

// Resize changes the reported size and queues a resize event
func (h *Headless) Resize(width, height int) {
	h.mu.Lock()
	h.width, h.height = width, height
	h.mu.Unlock()
	h.PostEvent(Event{Type: EventResize, Width: width, Height: height})
}

// Cell returns the last flushed cell at (x, y)
func (h *Headless) Cell(x, y int) Cell {
	h.mu.Lock()
	defer h.mu.Unlock()
	if x < 0 || y < 0 || x >= h.width || y >= h.height || len(h.cells) < h.width*h.height {
		return Cell{}
	}
	return h.cells[y*h.width+x]
}

// Row returns the runes of one flushed row, zero runes as spaces
func (h *Headless) Row(y int) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if y < 0 || y >= h.height || len(h.cells) < h.width*h.height {
		return ""
	}
	out := make([]rune, h.width)
	for x := range out {
		r := h.cells[y*h.width+x].Rune
		if r == 0 {
			r = ' '
		}
		out[x] = r
	}
	return string(out)
}

// Frames returns the number of Flush calls
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}
