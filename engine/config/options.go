package config

import (
	"time"

	"github.com/Carmen-Shannon/oxy-view/engine"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/layer"
	"github.com/Carmen-Shannon/oxy-view/engine/window"
)

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// SchedulerOptions returns the scheduler settings.
func (c Config) SchedulerOptions() []engine.SchedulerBuilderOption {
	return []engine.SchedulerBuilderOption{
		engine.WithQueueSize(c.Canvas.QueueSize),
		engine.WithTargetFPS(c.Canvas.TargetFPS),
	}
}

// CanvasOptions returns the canvas settings. When the camera control is
// enabled, layers read from scene files receive one.
func (c Config) CanvasOptions() []engine.CanvasBuilderOption {
	opts := []engine.CanvasBuilderOption{
		engine.WithSize(c.Canvas.Width, c.Canvas.Height),
		engine.WithScreenshotWorkers(c.Canvas.ScreenshotWorkers),
		engine.WithProfiling(c.Profiler.Enabled),
	}
	if c.Control.Enabled {
		opts = append(opts, engine.WithSceneControl(c.ControlOptions()...))
	}
	return opts
}

// CameraOptions returns the camera manager settings.
func (c Config) CameraOptions() []camera.ManagerBuilderOption {
	return []camera.ManagerBuilderOption{
		camera.WithAnimation(millis(c.Camera.AnimationMS)),
		camera.WithUIAnimation(millis(c.Camera.UIAnimationMS)),
		camera.WithBookmarkAnimation(millis(c.Camera.BookmarkAnimationMS)),
		camera.WithEase(easeFuncs[c.Camera.Ease]),
		camera.WithInterfaceMode(interfaceModes[c.Camera.Mode]),
	}
}

// ControlOptions returns the camera control handler settings.
func (c Config) ControlOptions() []layer.CameraControlBuilderOption {
	return []layer.CameraControlBuilderOption{
		layer.WithControlPriority(c.Control.Priority),
		layer.WithZoomStep(c.Control.ZoomStep),
		layer.WithRotateSpeed(c.Control.RotateSpeed),
		layer.WithKeyPanStep(c.Control.KeyPanStep),
		layer.WithPanSolver(c.Control.PanIterations, c.Control.PanTolerance),
	}
}

// WindowOptions returns the window settings.
func (c Config) WindowOptions() []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(c.Window.Title),
		window.WithSize(c.Window.Width, c.Window.Height),
		window.WithMinSize(c.Window.MinWidth, c.Window.MinHeight),
		window.WithMaxSize(c.Window.MaxWidth, c.Window.MaxHeight),
	}
}

// Apply updates the settings of a running canvas that can change without
// recreating it: the redraw rate and profiler logging.
//
// Parameters:
//   - canvas: the canvas to update
func (c Config) Apply(canvas engine.Canvas) {
	canvas.SetTargetFPS(c.Canvas.TargetFPS)
	p := canvas.Scheduler().Profiler()
	p.SetUpdateInterval(millis(c.Profiler.IntervalMS))
	p.SetLogging(c.Profiler.Enabled)
}
