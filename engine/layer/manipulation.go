package layer

import (
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ManipulationStrategy picks the 3D point under the pointer that drag
// operations keep fixed.
type ManipulationStrategy interface {
	// Pick returns the world-space point under window position (x, y).
	//
	// Parameters:
	//   - pos: the camera the pointer was seen through
	//   - x, y: render-context window coordinates
	//
	// Returns:
	//   - mgl32.Vec3: the picked point
	//   - bool: false if nothing could be picked
	Pick(pos camera.CameraPosition, x, y float32) (mgl32.Vec3, bool)
}

// PlaneManipulation picks on the horizontal plane z = Z. Rays that miss the
// plane (parallel to it, or hitting it behind the eye) pick the point at the
// lookat distance along the ray instead.
type PlaneManipulation struct {
	Z float32
}

func (p PlaneManipulation) Pick(pos camera.CameraPosition, x, y float32) (mgl32.Vec3, bool) {
	origin, dir, err := pos.ComputeRay(x, y)
	if err != nil {
		return mgl32.Vec3{}, false
	}
	if math32.Abs(dir[2]) > 1e-6 {
		t := (p.Z - origin[2]) / dir[2]
		if t >= 0 {
			return origin.Add(dir.Mul(t)), true
		}
	}
	return origin.Add(dir.Mul(pos.Distance())), true
}
