package light

import "github.com/chewxy/math32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = [3]float32{x, y, z}
	}
}

// WithDirection is an option builder that stores the normalized direction toward
// the light as its position. Used for directional lights.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = normalize3(x, y, z)
	}
}

// WithAmbient is an option builder that sets the ambient color term.
//
// Parameters:
//   - r, g, b: color components
//
// Returns:
//   - LightBuilderOption: a function that applies the ambient option to a lightImpl
func WithAmbient(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.ambient = [3]float32{r, g, b}
	}
}

// WithDiffuse is an option builder that sets the diffuse color term.
//
// Parameters:
//   - r, g, b: color components
//
// Returns:
//   - LightBuilderOption: a function that applies the diffuse option to a lightImpl
func WithDiffuse(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.diffuse = [3]float32{r, g, b}
	}
}

// WithSpecular is an option builder that sets the specular color term.
//
// Parameters:
//   - r, g, b: color components
//
// Returns:
//   - LightBuilderOption: a function that applies the specular option to a lightImpl
func WithSpecular(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.specular = [3]float32{r, g, b}
	}
}

// WithColor is an option builder that sets the diffuse and specular terms to one
// color and the ambient term to a fifth of it.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.diffuse = [3]float32{r, g, b}
		l.specular = [3]float32{r, g, b}
		l.ambient = [3]float32{r * 0.2, g * 0.2, b * 0.2}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithEnabled is an option builder that sets whether the light is active for rendering.
//
// Parameters:
//   - enabled: true to enable the light
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a lightImpl
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

// normalize3 normalizes a 3-component vector. Returns a zero vector if the input
// has zero length.
func normalize3(x, y, z float32) [3]float32 {
	length := math32.Sqrt(x*x + y*y + z*z)
	if length == 0 {
		return [3]float32{0, 0, 0}
	}
	inv := 1.0 / length
	return [3]float32{x * inv, y * inv, z * inv}
}
