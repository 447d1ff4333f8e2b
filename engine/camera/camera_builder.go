package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption configures a CameraPosition built by NewCameraPosition.
type CameraBuilderOption func(*CameraPosition)

// WithEye sets the eye position.
//
// Parameters:
//   - x, y, z: eye position components
//
// Returns:
//   - CameraBuilderOption: a function that sets the eye
func WithEye(x, y, z float32) CameraBuilderOption {
	return func(p *CameraPosition) {
		p.Eye = mgl32.Vec3{x, y, z}
	}
}

// WithLookat sets the point the camera looks at.
//
// Parameters:
//   - x, y, z: lookat components
//
// Returns:
//   - CameraBuilderOption: a function that sets the lookat point
func WithLookat(x, y, z float32) CameraBuilderOption {
	return func(p *CameraPosition) {
		p.Lookat = mgl32.Vec3{x, y, z}
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(p *CameraPosition) {
		p.Up = mgl32.Vec3{x, y, z}
	}
}

// WithFov sets the vertical field of view in degrees.
//
// Parameters:
//   - degrees: vertical field of view
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(degrees float32) CameraBuilderOption {
	return func(p *CameraPosition) {
		p.FovyDegrees = degrees
	}
}

// WithClip sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithClip(near, far float32) CameraBuilderOption {
	return func(p *CameraPosition) {
		p.ZNear = near
		p.ZFar = far
	}
}

// WithPerspectiveness sets the perspective/orthographic blend.
//
// Parameters:
//   - perspectiveness: 1 for perspective, 0 for orthographic
//
// Returns:
//   - CameraBuilderOption: a function that sets the blend
func WithPerspectiveness(perspectiveness float32) CameraBuilderOption {
	return func(p *CameraPosition) {
		p.Perspectiveness = perspectiveness
	}
}

// WithScale sets the anisotropic image scale.
//
// Parameters:
//   - sx, sy: horizontal and vertical scale
//
// Returns:
//   - CameraBuilderOption: a function that sets the scale
func WithScale(sx, sy float32) CameraBuilderOption {
	return func(p *CameraPosition) {
		p.ScaleX = sx
		p.ScaleY = sy
	}
}
