package layer

import (
	"sort"
	"time"
)

// EventType identifies the kind of input event.
type EventType int

const (
	EventPress EventType = iota
	EventRelease
	EventDrag
	EventMove
	EventWheel
	EventKeyPress
	EventKeyRelease
)

func (t EventType) String() string {
	switch t {
	case EventPress:
		return "press"
	case EventRelease:
		return "release"
	case EventDrag:
		return "drag"
	case EventMove:
		return "move"
	case EventWheel:
		return "wheel"
	case EventKeyPress:
		return "key-press"
	case EventKeyRelease:
		return "key-release"
	default:
		return "unknown"
	}
}

// Event is an input event in render-context coordinates (bottom-left origin).
type Event struct {
	Type EventType
	Time time.Time

	// X and Y locate the pointer for pointer events.
	X, Y float32

	// Button is the mouse button for press, release and drag events.
	Button int
	// Mods is the modifier bitmask held during the event (common.Mod*).
	Mods int
	// Key is the key code for key events (common.Key*).
	Key int
	// Wheel is the scroll amount for wheel events; positive scrolls up.
	Wheel float32
}

// Pointer reports whether the event carries a pointer position.
func (e Event) Pointer() bool {
	return e.Type != EventKeyPress && e.Type != EventKeyRelease
}

// EventContext is passed to handlers along with each event.
type EventContext struct {
	// Layer is the layer dispatching the event.
	Layer Layer
	// Frame is what Layer resolved in the last rendered frame.
	Frame FrameInfo
	// Redraw requests a new frame; may be nil.
	Redraw func()
}

// RequestRedraw asks the owning canvas for a new frame.
func (c *EventContext) RequestRedraw() {
	if c != nil && c.Redraw != nil {
		c.Redraw()
	}
}

// EventHandler reacts to input events dispatched to a layer.
type EventHandler interface {
	// Priority orders handlers within a layer; lower values see events first.
	//
	// Returns:
	//   - int: the priority
	Priority() int

	// HandleEvent processes ev.
	//
	// Parameters:
	//   - ctx: dispatch context
	//   - ev: the event
	//
	// Returns:
	//   - bool: true if the event was consumed and the chain should stop
	HandleEvent(ctx *EventContext, ev Event) bool
}

// HandlerFunc adapts a function to an EventHandler with the given priority.
type HandlerFunc struct {
	Order int
	Fn    func(ctx *EventContext, ev Event) bool
}

func (h *HandlerFunc) Priority() int { return h.Order }

func (h *HandlerFunc) HandleEvent(ctx *EventContext, ev Event) bool {
	return h.Fn(ctx, ev)
}

// insertHandler returns a copy of hs with h inserted after every handler of
// equal or lower priority.
func insertHandler(hs []EventHandler, h EventHandler) []EventHandler {
	i := sort.Search(len(hs), func(i int) bool { return hs[i].Priority() > h.Priority() })
	out := make([]EventHandler, 0, len(hs)+1)
	out = append(out, hs[:i]...)
	out = append(out, h)
	return append(out, hs[i:]...)
}
