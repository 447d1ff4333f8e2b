package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-view/engine/layer"
)

// CanvasBuilderOption is a functional option for configuring a Canvas.
type CanvasBuilderOption func(*canvasImpl)

// WithScheduler runs the canvas on an existing scheduler. The canvas does not
// close a scheduler it did not create.
//
// Parameters:
//   - s: the scheduler
//
// Returns:
//   - CanvasBuilderOption: option function
func WithScheduler(s Scheduler) CanvasBuilderOption {
	return func(c *canvasImpl) {
		c.scheduler = s
	}
}

// WithSize sets the initial canvas size in pixels.
//
// Parameters:
//   - width, height: the size
//
// Returns:
//   - CanvasBuilderOption: option function
func WithSize(width, height int) CanvasBuilderOption {
	return func(c *canvasImpl) {
		c.width, c.height = max(width, 0), max(height, 0)
	}
}

// WithClock sets the time source used for frame times.
//
// Parameters:
//   - clock: returns the current time
//
// Returns:
//   - CanvasBuilderOption: option function
func WithClock(clock func() time.Time) CanvasBuilderOption {
	return func(c *canvasImpl) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLayers adds layers when the canvas is created.
//
// Parameters:
//   - layers: the layers
//
// Returns:
//   - CanvasBuilderOption: option function
func WithLayers(layers ...layer.Layer) CanvasBuilderOption {
	return func(c *canvasImpl) {
		c.initialLayers = append(c.initialLayers, layers...)
	}
}

// WithProfiling enables periodic frame statistics logging.
//
// Parameters:
//   - enabled: true to log
//
// Returns:
//   - CanvasBuilderOption: option function
func WithProfiling(enabled bool) CanvasBuilderOption {
	return func(c *canvasImpl) {
		c.profilingEnabled = enabled
	}
}

// WithVisible sets whether the canvas starts with the timed redraw running.
//
// Parameters:
//   - visible: initial visibility
//
// Returns:
//   - CanvasBuilderOption: option function
func WithVisible(visible bool) CanvasBuilderOption {
	return func(c *canvasImpl) {
		c.visible = visible
	}
}

// WithScreenshotWorkers sets how many screenshots may be encoded concurrently.
//
// Parameters:
//   - n: worker count, at least 1
//
// Returns:
//   - CanvasBuilderOption: option function
func WithScreenshotWorkers(n int) CanvasBuilderOption {
	return func(c *canvasImpl) {
		c.screenshotWorkers = max(n, 1)
	}
}

// WithSceneControl attaches a camera control built from opts to every layer
// read by LoadScene, since event handlers are not part of a saved scene.
//
// Parameters:
//   - opts: options for layer.NewCameraControl
//
// Returns:
//   - CanvasBuilderOption: option function
func WithSceneControl(opts ...layer.CameraControlBuilderOption) CanvasBuilderOption {
	return func(c *canvasImpl) {
		c.addSceneControl = true
		c.sceneControls = opts
	}
}
