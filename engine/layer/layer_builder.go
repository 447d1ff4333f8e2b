package layer

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
)

// LayerBuilderOption is a functional option for configuring a Layer.
type LayerBuilderOption func(*layerImpl)

// WithName sets the layer's name.
//
// Parameters:
//   - name: the name
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithName(name string) LayerBuilderOption {
	return func(l *layerImpl) {
		l.name = name
	}
}

// WithCamera sets the layer's camera manager. A default manager is created otherwise.
//
// Parameters:
//   - m: the camera manager
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithCamera(m camera.Manager) LayerBuilderOption {
	return func(l *layerImpl) {
		l.manager = m
	}
}

// WithLayout sets the viewport layout. The layer covers the canvas otherwise.
//
// Parameters:
//   - layout: the layout
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithLayout(layout Layout) LayerBuilderOption {
	return func(l *layerImpl) {
		if layout != nil {
			l.layout = layout
		}
	}
}

// WithManipulation sets the drag anchor strategy.
//
// Parameters:
//   - m: the strategy
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithManipulation(m ManipulationStrategy) LayerBuilderOption {
	return func(l *layerImpl) {
		if m != nil {
			l.manipulation = m
		}
	}
}

// WithLights appends lights to the layer.
//
// Parameters:
//   - lights: the lights
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithLights(lights ...light.Light) LayerBuilderOption {
	return func(l *layerImpl) {
		l.lights = append(l.lights, lights...)
	}
}

// WithBackground sets the clear color.
//
// Parameters:
//   - c: the color
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithBackground(c common.Color) LayerBuilderOption {
	return func(l *layerImpl) {
		l.background = c
	}
}

// WithClearFlags sets the planes cleared before drawing. Overlay layers
// typically clear depth only.
//
// Parameters:
//   - flags: the flags
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithClearFlags(flags renderer.ClearFlags) LayerBuilderOption {
	return func(l *layerImpl) {
		l.clearFlags = flags
	}
}

// WithDrawOrder sets the layer's draw order.
//
// Parameters:
//   - order: the draw order
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithDrawOrder(order int) LayerBuilderOption {
	return func(l *layerImpl) {
		l.drawOrder = order
	}
}

// WithHandlers adds event handlers to the chain.
//
// Parameters:
//   - handlers: the handlers
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithHandlers(handlers ...EventHandler) LayerBuilderOption {
	return func(l *layerImpl) {
		for _, h := range handlers {
			if h != nil {
				l.handlers = insertHandler(l.handlers, h)
			}
		}
	}
}

// WithEnabled sets whether the layer starts enabled.
//
// Parameters:
//   - enabled: true to enable
//
// Returns:
//   - LayerBuilderOption: option function to apply
func WithEnabled(enabled bool) LayerBuilderOption {
	return func(l *layerImpl) {
		l.enabled = enabled
	}
}
