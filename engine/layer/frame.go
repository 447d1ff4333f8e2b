package layer

import (
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
)

// FrameInfo is what one layer resolved during a frame.
type FrameInfo struct {
	Viewport common.Rect
	Camera   camera.CameraPosition

	// Rendered is false when the layer recorded a viewport but drew nothing
	// (for example because the viewport was empty).
	Rendered bool
}

// FrameContext records the viewport and camera each layer resolved while a
// frame was rendered. It is filled on the render goroutine and must not be
// modified once published; input dispatch reads the last published context.
type FrameContext struct {
	Time   time.Time
	Canvas common.Rect

	infos map[Layer]FrameInfo
}

// NewFrameContext creates an empty context for a frame.
//
// Parameters:
//   - now: the frame time
//   - canvas: the canvas rectangle
//
// Returns:
//   - *FrameContext: the context
func NewFrameContext(now time.Time, canvas common.Rect) *FrameContext {
	return &FrameContext{Time: now, Canvas: canvas, infos: make(map[Layer]FrameInfo)}
}

// Info returns what l resolved in this frame.
//
// Parameters:
//   - l: the layer
//
// Returns:
//   - FrameInfo: the layer's viewport and camera
//   - bool: false if l did not render in this frame
func (f *FrameContext) Info(l Layer) (FrameInfo, bool) {
	if f == nil {
		return FrameInfo{}, false
	}
	info, ok := f.infos[l]
	return info, ok
}

// Len returns the number of layers recorded.
func (f *FrameContext) Len() int {
	if f == nil {
		return 0
	}
	return len(f.infos)
}

func (f *FrameContext) recordViewport(l Layer, vp common.Rect) {
	info := f.infos[l]
	info.Viewport = vp
	f.infos[l] = info
}

func (f *FrameContext) recordCamera(l Layer, pos camera.CameraPosition) {
	info := f.infos[l]
	info.Camera = pos
	info.Rendered = true
	f.infos[l] = info
}
