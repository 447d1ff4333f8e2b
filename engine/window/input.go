package window

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-view/engine/layer"
)

// inputState turns raw button, cursor, scroll and key callbacks into layer
// events. It remembers which buttons are held so cursor motion can be reported
// as a drag of the first pressed button. Cursor positions arrive in screen
// coordinates and leave in framebuffer pixels (top-left origin).
type inputState struct {
	mu *sync.Mutex

	clock          func() time.Time
	scaleX, scaleY float32
	x, y           float32
	mods    int
	pressed []int // held buttons in press order
}

func newInputState(clock func() time.Time) *inputState {
	return &inputState{mu: &sync.Mutex{}, clock: clock, scaleX: 1, scaleY: 1}
}

// resize sets the screen to framebuffer ratio from both sizes. A zero
// dimension (minimized window) keeps the previous ratio.
func (s *inputState) resize(winW, winH, fbW, fbH int) {
	if winW <= 0 || winH <= 0 || fbW <= 0 || fbH <= 0 {
		return
	}
	s.mu.Lock()
	s.scaleX = float32(fbW) / float32(winW)
	s.scaleY = float32(fbH) / float32(winH)
	s.mu.Unlock()
}

func (s *inputState) button(button int, press bool, mods int) layer.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods = mods
	ev := layer.Event{Time: s.clock(), X: s.x, Y: s.y, Button: button, Mods: mods}
	if press {
		ev.Type = layer.EventPress
		for _, b := range s.pressed {
			if b == button {
				return ev
			}
		}
		s.pressed = append(s.pressed, button)
		return ev
	}
	ev.Type = layer.EventRelease
	for i, b := range s.pressed {
		if b == button {
			s.pressed = append(s.pressed[:i:i], s.pressed[i+1:]...)
			break
		}
	}
	return ev
}

func (s *inputState) cursor(x, y float32) layer.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y = x*s.scaleX, y*s.scaleY
	ev := layer.Event{Type: layer.EventMove, Time: s.clock(), X: s.x, Y: s.y, Mods: s.mods}
	if len(s.pressed) > 0 {
		ev.Type = layer.EventDrag
		ev.Button = s.pressed[0]
	}
	return ev
}

func (s *inputState) scroll(delta float32) layer.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layer.Event{Type: layer.EventWheel, Time: s.clock(), X: s.x, Y: s.y, Mods: s.mods, Wheel: delta}
}

func (s *inputState) key(key int, press bool, mods int) layer.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods = mods
	ev := layer.Event{Type: layer.EventKeyRelease, Time: s.clock(), X: s.x, Y: s.y, Key: key, Mods: mods}
	if press {
		ev.Type = layer.EventKeyPress
	}
	return ev
}
