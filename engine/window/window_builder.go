package window

import "time"

// WindowBuilderOption is a functional option for configuring a window.
type WindowBuilderOption func(w *viewWindow)

// WithTitle sets the title bar text.
//
// Parameters:
//   - title: the window title
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *viewWindow) {
		w.title = title
	}
}

// WithSize sets the requested client area size. The bound canvas takes the
// framebuffer size, which differs on high-DPI displays.
//
// Parameters:
//   - width, height: size in screen coordinates; values <= 0 keep the default
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *viewWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithMinSize limits how small the window can be resized. Zero leaves an axis unlimited.
//
// Parameters:
//   - width, height: minimum size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *viewWindow) {
		w.minWidth, w.minHeight = max(width, 0), max(height, 0)
	}
}

// WithMaxSize limits how large the window can be resized. Zero leaves an axis unlimited.
//
// Parameters:
//   - width, height: maximum size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMaxSize(width, height int) WindowBuilderOption {
	return func(w *viewWindow) {
		w.maxWidth, w.maxHeight = max(width, 0), max(height, 0)
	}
}

// WithInputClock sets the time source stamped on input events.
//
// Parameters:
//   - clock: returns the current time
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithInputClock(clock func() time.Time) WindowBuilderOption {
	return func(w *viewWindow) {
		if clock != nil {
			w.input = newInputState(clock)
		}
	}
}
