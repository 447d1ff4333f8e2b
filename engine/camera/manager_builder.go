package camera

import (
	"time"

	"github.com/tanema/gween/ease"
)

// ManagerBuilderOption is a functional option for configuring a Manager.
type ManagerBuilderOption func(*managerImpl)

// WithAnimation sets the window used by LookAt, GoDefault, Fit2D and mode changes.
//
// Parameters:
//   - d: the animation duration
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithAnimation(d time.Duration) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.animation = d
	}
}

// WithUIAnimation sets the short window used by interactive operations
// (Rotate, Zoom, Translate, GoUI). Zero applies them on the next frame.
//
// Parameters:
//   - d: the animation duration
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithUIAnimation(d time.Duration) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.uiAnimation = d
	}
}

// WithBookmarkAnimation sets the window used by GoBookmark.
//
// Parameters:
//   - d: the animation duration
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithBookmarkAnimation(d time.Duration) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.bookmarkAnimation = d
	}
}

// WithEase sets the easing curve applied to the interpolation parameter.
// The curve must map 0 to 0 and 1 to 1.
//
// Parameters:
//   - fn: the easing function (e.g. ease.InOutQuad)
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithEase(fn ease.TweenFunc) ManagerBuilderOption {
	return func(m *managerImpl) {
		if fn != nil {
			m.ease = fn
		}
	}
}

// WithClock replaces the clock used to timestamp new goals.
//
// Parameters:
//   - clock: returns the current time
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithClock(clock func() time.Time) ManagerBuilderOption {
	return func(m *managerImpl) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithInterfaceMode sets the initial orientation constraint.
//
// Parameters:
//   - mode: the interface mode
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithInterfaceMode(mode InterfaceMode) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.mode = mode
	}
}

// WithDefaultPosition sets the default position the manager starts at.
//
// Parameters:
//   - pos: the default position
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithDefaultPosition(pos CameraPosition) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.def = pos
	}
}
