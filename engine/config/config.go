// Package config loads viewer settings from a TOML file and maps them onto the
// engine's functional options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/pelletier/go-toml/v2"
	"github.com/tanema/gween/ease"
)

// ErrInvalid is returned for a configuration with out-of-range values.
var ErrInvalid = errors.New("config: invalid value")

// Config is the root of a configuration file. Sections and keys that are
// absent keep their defaults.
type Config struct {
	Canvas   CanvasConfig   `toml:"canvas"`
	Camera   CameraConfig   `toml:"camera"`
	Control  ControlConfig  `toml:"control"`
	Profiler ProfilerConfig `toml:"profiler"`
	Window   WindowConfig   `toml:"window"`
}

type CanvasConfig struct {
	// TargetFPS is the timed redraw rate; 0 redraws on request only.
	TargetFPS         float64 `toml:"target_fps"`
	QueueSize         int     `toml:"queue_size"`
	Width             int     `toml:"width"`
	Height            int     `toml:"height"`
	ScreenshotWorkers int     `toml:"screenshot_workers"`
}

type CameraConfig struct {
	AnimationMS         int    `toml:"animation_ms"`
	UIAnimationMS       int    `toml:"ui_animation_ms"`
	BookmarkAnimationMS int    `toml:"bookmark_animation_ms"`
	Ease                string `toml:"ease"`
	Mode                string `toml:"mode"`
}

type ControlConfig struct {
	Enabled       bool    `toml:"enabled"`
	Priority      int     `toml:"priority"`
	ZoomStep      float32 `toml:"zoom_step"`
	RotateSpeed   float32 `toml:"rotate_speed"`
	KeyPanStep    float32 `toml:"key_pan_step"`
	PanIterations int     `toml:"pan_iterations"`
	PanTolerance  float32 `toml:"pan_tolerance"`
}

type ProfilerConfig struct {
	Enabled    bool `toml:"enabled"`
	IntervalMS int  `toml:"interval_ms"`
}

type WindowConfig struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	MinWidth  int    `toml:"min_width"`
	MinHeight int    `toml:"min_height"`
	MaxWidth  int    `toml:"max_width"`
	MaxHeight int    `toml:"max_height"`
}

var easeFuncs = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
}

var interfaceModes = map[string]camera.InterfaceMode{
	"2d":        camera.Mode2D,
	"2d-rotate": camera.Mode2DRotate,
	"2.5d":      camera.Mode25D,
	"3d":        camera.Mode3D,
}

// Default returns the configuration used when no file is present.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Canvas: CanvasConfig{
			TargetFPS:         30,
			QueueSize:         64,
			Width:             800,
			Height:            600,
			ScreenshotWorkers: 2,
		},
		Camera: CameraConfig{
			AnimationMS:         500,
			UIAnimationMS:       0,
			BookmarkAnimationMS: 1500,
			Ease:                "linear",
			Mode:                "3d",
		},
		Control: ControlConfig{
			Enabled:       true,
			Priority:      100,
			ZoomStep:      1.1,
			RotateSpeed:   0.01,
			KeyPanStep:    0.1,
			PanIterations: 8,
			PanTolerance:  0.05,
		},
		Profiler: ProfilerConfig{
			IntervalMS: 1000,
		},
		Window: WindowConfig{
			Title:  "oxy-view",
			Width:  800,
			Height: 600,
		},
	}
}

// Parse decodes TOML data over the defaults. Unknown keys are rejected so a
// misspelled setting is not silently ignored.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the configuration
//   - error: error if the document is malformed or a value is out of range
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - Config: the configuration
//   - error: error if the file cannot be read or parsed
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
//
// Parameters:
//   - path: the destination file
//   - cfg: the configuration
//
// Returns:
//   - error: error if encoding or writing fails
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every value against its allowed range.
//
// Returns:
//   - error: ErrInvalid naming the first offending key
func (c Config) Validate() error {
	switch {
	case c.Canvas.TargetFPS < 0:
		return fmt.Errorf("%w: canvas.target_fps %v", ErrInvalid, c.Canvas.TargetFPS)
	case c.Canvas.QueueSize < 1:
		return fmt.Errorf("%w: canvas.queue_size %d", ErrInvalid, c.Canvas.QueueSize)
	case c.Canvas.Width < 0 || c.Canvas.Height < 0:
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalid, c.Canvas.Width, c.Canvas.Height)
	case c.Canvas.ScreenshotWorkers < 1:
		return fmt.Errorf("%w: canvas.screenshot_workers %d", ErrInvalid, c.Canvas.ScreenshotWorkers)
	case c.Camera.AnimationMS < 0 || c.Camera.UIAnimationMS < 0 || c.Camera.BookmarkAnimationMS < 0:
		return fmt.Errorf("%w: negative camera animation", ErrInvalid)
	case c.Control.ZoomStep <= 1:
		return fmt.Errorf("%w: control.zoom_step %v must exceed 1", ErrInvalid, c.Control.ZoomStep)
	case c.Control.PanIterations < 1:
		return fmt.Errorf("%w: control.pan_iterations %d", ErrInvalid, c.Control.PanIterations)
	case c.Profiler.IntervalMS < 1:
		return fmt.Errorf("%w: profiler.interval_ms %d", ErrInvalid, c.Profiler.IntervalMS)
	}
	if _, ok := easeFuncs[c.Camera.Ease]; !ok {
		return fmt.Errorf("%w: camera.ease %q (want one of %s)", ErrInvalid, c.Camera.Ease, names(easeFuncs))
	}
	if _, ok := interfaceModes[c.Camera.Mode]; !ok {
		return fmt.Errorf("%w: camera.mode %q (want one of %s)", ErrInvalid, c.Camera.Mode, names(interfaceModes))
	}
	return nil
}

func names[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
