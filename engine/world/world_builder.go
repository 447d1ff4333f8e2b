package world

import "time"

// WorldBuilderOption is a functional option for configuring a World.
type WorldBuilderOption func(*worldImpl)

// WithClock replaces the clock used to compute temporary expiry times.
//
// Parameters:
//   - clock: returns the current time
//
// Returns:
//   - WorldBuilderOption: option function to apply
func WithClock(clock func() time.Time) WorldBuilderOption {
	return func(w *worldImpl) {
		if clock != nil {
			w.clock = clock
		}
	}
}
