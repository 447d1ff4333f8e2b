package layer

// CameraControlBuilderOption is a functional option for configuring the camera control handler.
type CameraControlBuilderOption func(*cameraControlImpl)

// WithControlPriority sets the handler's priority.
//
// Parameters:
//   - p: the priority
//
// Returns:
//   - CameraControlBuilderOption: option function to apply
func WithControlPriority(p int) CameraControlBuilderOption {
	return func(c *cameraControlImpl) {
		c.priority = p
	}
}

// WithZoomStep sets the zoom factor applied per wheel notch. Values at or below 1 are ignored.
//
// Parameters:
//   - step: the factor
//
// Returns:
//   - CameraControlBuilderOption: option function to apply
func WithZoomStep(step float32) CameraControlBuilderOption {
	return func(c *cameraControlImpl) {
		if step > 1 {
			c.zoomStep = step
		}
	}
}

// WithRotateSpeed sets the rotation applied per dragged pixel, in radians.
//
// Parameters:
//   - radiansPerPixel: the speed
//
// Returns:
//   - CameraControlBuilderOption: option function to apply
func WithRotateSpeed(radiansPerPixel float32) CameraControlBuilderOption {
	return func(c *cameraControlImpl) {
		c.rotateSpeed = radiansPerPixel
	}
}

// WithKeyPanStep sets the arrow-key translation as a fraction of the camera distance.
//
// Parameters:
//   - fraction: the step
//
// Returns:
//   - CameraControlBuilderOption: option function to apply
func WithKeyPanStep(fraction float32) CameraControlBuilderOption {
	return func(c *cameraControlImpl) {
		c.keyPanStep = fraction
	}
}

// WithPanSolver bounds the pan solver.
//
// Parameters:
//   - iterations: maximum Newton steps per drag event
//   - tolerance: acceptable residual in pixels
//
// Returns:
//   - CameraControlBuilderOption: option function to apply
func WithPanSolver(iterations int, tolerance float32) CameraControlBuilderOption {
	return func(c *cameraControlImpl) {
		if iterations > 0 {
			c.panIterations = iterations
		}
		if tolerance > 0 {
			c.panTolerance = tolerance
		}
	}
}
