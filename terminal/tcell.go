package terminal

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// tcellTerm implements Terminal over a tcell screen
type tcellTerm struct {
	screen tcell.Screen

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// New creates a terminal backed by the process TTY
func New() (Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return &tcellTerm{screen: s}, nil
}

func (t *tcellTerm) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	t.screen.HideCursor()
	t.screen.Clear()
	t.initialized = true
	return nil
}

func (t *tcellTerm) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}
	t.screen.Fini()
	t.finalized = true
}

func (t *tcellTerm) Size() (int, int) {
	return t.screen.Size()
}

func (t *tcellTerm) Flush(cells []Cell, width, height int) {
	for y := 0; y < height; y++ {
		row := cells[y*width : (y+1)*width]
		for x, c := range row {
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			t.screen.SetContent(x, y, r, nil, style(c))
		}
	}
	t.screen.Show()
}

func (t *tcellTerm) Sync() {
	t.screen.Sync()
}

func (t *tcellTerm) PollEvent() Event {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return Event{Type: EventClosed}
		case *tcell.EventKey:
			return keyEvent(ev)
		case *tcell.EventResize:
			w, h := ev.Size()
			return Event{Type: EventResize, Width: w, Height: h}
		case *tcell.EventInterrupt:
			if e, ok := ev.Data().(Event); ok {
				return e
			}
			return Event{Type: EventInterrupt, Data: ev.Data()}
		case *tcell.EventError:
			return Event{Type: EventError, Err: ev}
		}
	}
}

func (t *tcellTerm) PostEvent(ev Event) {
	// Queue full drops the event; PostEvent is only used for wakeups
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(ev))
}

func style(c Cell) tcell.Style {
	st := tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(c.Fg.R), int32(c.Fg.G), int32(c.Fg.B))).
		Background(tcell.NewRGBColor(int32(c.Bg.R), int32(c.Bg.G), int32(c.Bg.B)))
	if c.Attrs&AttrBold != 0 {
		st = st.Bold(true)
	}
	if c.Attrs&AttrDim != 0 {
		st = st.Dim(true)
	}
	if c.Attrs&AttrItalic != 0 {
		st = st.Italic(true)
	}
	if c.Attrs&AttrUnderline != 0 {
		st = st.Underline(true)
	}
	if c.Attrs&AttrReverse != 0 {
		st = st.Reverse(true)
	}
	return st
}

var keyMap = map[tcell.Key]Key{
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyTab:        KeyTab,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
	tcell.KeyCtrlC:      KeyCtrlC,
	tcell.KeyCtrlL:      KeyCtrlL,
}

func keyEvent(ev *tcell.EventKey) Event {
	if ev.Key() == tcell.KeyRune {
		if ev.Rune() == ' ' {
			return Event{Type: EventKey, Key: KeySpace, Rune: ' '}
		}
		return Event{Type: EventKey, Key: KeyRune, Rune: ev.Rune()}
	}
	if k, ok := keyMap[ev.Key()]; ok {
		return Event{Type: EventKey, Key: k}
	}
	return Event{Type: EventKey, Key: KeyNone}
}
