// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// Rect is an integer pixel rectangle in render-context coordinates.
// The origin is the bottom-left corner of the canvas, with Y increasing upward.
type Rect struct {
	// X is the left edge in pixels.
	X int
	// Y is the bottom edge in pixels.
	Y int
	// Width is the horizontal extent in pixels.
	Width int
	// Height is the vertical extent in pixels.
	Height int
}

// Contains reports whether the pixel coordinate (x, y) lies inside the rectangle.
// The left and bottom edges are inclusive, the right and top edges exclusive.
//
// Parameters:
//   - x, y: render-context coordinates (bottom-left origin)
//
// Returns:
//   - bool: true if the point is inside
func (r Rect) Contains(x, y float32) bool {
	return x >= float32(r.X) && x < float32(r.X+r.Width) &&
		y >= float32(r.Y) && y < float32(r.Y+r.Height)
}

// Aspect returns width / height, or 1 when the rectangle has no height.
//
// Returns:
//   - float32: the aspect ratio
func (r Rect) Aspect() float32 {
	if r.Height <= 0 || r.Width <= 0 {
		return 1
	}
	return float32(r.Width) / float32(r.Height)
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", r.X, r.Y, r.Width, r.Height)
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Predefined colors.
var (
	ColorBlack = Color{0, 0, 0, 1}
	ColorWhite = Color{1, 1, 1, 1}
	ColorClear = Color{0, 0, 0, 0}
)
