package terminal

// EventType distinguishes terminal events
type EventType uint8

const (
	EventKey EventType = iota
	EventResize
	EventInterrupt
	EventClosed
	EventError
)

// Key represents a parsed input key
type Key uint16

const (
	KeyNone Key = iota
	KeyRune     // Printable character (check Event.Rune)

	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeySpace

	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	KeyCtrlC
	KeyCtrlL
)

// Event is one input, resize or lifecycle notification
type Event struct {
	Type   EventType
	Key    Key
	Rune   rune
	Width  int
	Height int
	Data   any // EventInterrupt payload
	Err    error
}

// IsQuit reports the keys that end the client
func (e Event) IsQuit() bool {
	if e.Type != EventKey {
		return false
	}
	return e.Key == KeyCtrlC || e.Key == KeyEscape || (e.Key == KeyRune && (e.Rune == 'q' || e.Rune == 'Q'))
}
