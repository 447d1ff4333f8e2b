package engine

import (
	"github.com/Carmen-Shannon/oxy-view/engine/layer"
)

// WindowToCanvas converts a window position (top-left origin) into canvas
// coordinates (bottom-left origin) for a canvas of the given height.
//
// Parameters:
//   - height: the canvas height in pixels
//   - x, y: the window position
//
// Returns:
//   - float32: canvas x
//   - float32: canvas y
func WindowToCanvas(height int, x, y float32) (float32, float32) {
	return x, float32(height) - y
}

func (c *canvasImpl) HandleWindowEvent(ev layer.Event) bool {
	if ev.Pointer() {
		_, h := c.Size()
		ev.X, ev.Y = WindowToCanvas(h, ev.X, ev.Y)
	}
	return c.HandleEvent(ev)
}

// HandleEvent routes ev using the viewports of the last published frame.
// Presses, moves and wheel events go to the topmost enabled layer under the
// pointer; drags and the release go to the layer that consumed the press;
// keys are offered top-down until a layer consumes them.
func (c *canvasImpl) HandleEvent(ev layer.Event) bool {
	fc := c.frame.Load()

	switch ev.Type {
	case layer.EventDrag, layer.EventRelease:
		c.mu.Lock()
		target := c.pressLayer
		if ev.Type == layer.EventRelease {
			c.pressLayer = nil
		}
		c.mu.Unlock()
		if target == nil {
			return false
		}
		return c.dispatch(target, fc, ev)

	case layer.EventPress, layer.EventMove, layer.EventWheel:
		target := c.hitTest(fc, ev.X, ev.Y)
		if target == nil {
			return false
		}
		consumed := c.dispatch(target, fc, ev)
		if ev.Type == layer.EventPress && consumed {
			c.mu.Lock()
			c.pressLayer = target
			c.mu.Unlock()
		}
		return consumed

	case layer.EventKeyPress, layer.EventKeyRelease:
		layers := c.Layers()
		for i := len(layers) - 1; i >= 0; i-- {
			if !layers[i].Enabled() {
				continue
			}
			if c.dispatch(layers[i], fc, ev) {
				return true
			}
		}
	}
	return false
}

// hitTest returns the topmost enabled layer whose last viewport contains (x, y).
func (c *canvasImpl) hitTest(fc *layer.FrameContext, x, y float32) layer.Layer {
	layers := c.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if !l.Enabled() {
			continue
		}
		info, ok := fc.Info(l)
		if ok && info.Viewport.Contains(x, y) {
			return l
		}
	}
	return nil
}

func (c *canvasImpl) dispatch(l layer.Layer, fc *layer.FrameContext, ev layer.Event) bool {
	info, _ := fc.Info(l)
	ctx := &layer.EventContext{Layer: l, Frame: info, Redraw: c.RequestRedraw}
	return l.Dispatch(ctx, ev)
}
