package engine

import (
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/layer"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/Carmen-Shannon/oxy-view/engine/visual"
	"github.com/Carmen-Shannon/oxy-view/engine/world"
)

// DefaultRegistry returns a registry holding every type the engine can write
// into a scene file. Applications add their own object types to it before
// loading scenes that contain them.
//
// Returns:
//   - *serial.Registry: the populated registry
func DefaultRegistry() *serial.Registry {
	reg := serial.NewRegistry()
	world.RegisterTypes(reg)
	camera.RegisterTypes(reg)
	light.RegisterTypes(reg)
	layer.RegisterTypes(reg)
	visual.RegisterTypes(reg)
	return reg
}
