package camera

import (
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/go-gl/mathgl/mgl32"
)

// InterfaceMode constrains the orientation a Manager may resolve to.
type InterfaceMode int

const (
	// Mode2D keeps the eye directly above the lookat point with +Y up.
	Mode2D InterfaceMode = iota
	// Mode2DRotate keeps the eye directly above the lookat point and lets the
	// up vector turn within the XY plane.
	Mode2DRotate
	// Mode25D keeps the horizon level: the up vector is re-derived from a
	// horizontal axis perpendicular to the view direction.
	Mode25D
	// Mode3D applies no correction.
	Mode3D
)

func (m InterfaceMode) String() string {
	switch m {
	case Mode2D:
		return "2d"
	case Mode2DRotate:
		return "2d-rotate"
	case Mode25D:
		return "2.5d"
	case Mode3D:
		return "3d"
	default:
		return "unknown"
	}
}

// TagManager is the serialization tag written for camera managers.
const TagManager = "camera.Manager"

// Manager animates a layer's camera between keyframes.
//
// A Manager holds two keyframes: the position resolved at the previous render
// and the current goal. Every operation installs a new goal that the camera
// moves toward over an animation window. The previous-render keyframe is
// re-captured on every CameraPosition call, so a goal that changes mid-flight
// blends from wherever the camera actually was.
//
// All methods are safe for concurrent use. Goal changes take effect from the
// next CameraPosition call.
type Manager interface {
	serial.Encodable

	// CameraPosition resolves the camera for a render at now and records the
	// result as the starting keyframe for later animation.
	//
	// Parameters:
	//   - viewport: the layer's pixel rectangle for this frame
	//   - now: the frame time
	//
	// Returns:
	//   - CameraPosition: the resolved camera
	CameraPosition(viewport common.Rect, now time.Time) CameraPosition

	// LookAt installs an absolute goal over the standard animation window.
	//
	// Parameters:
	//   - eye: the eye position
	//   - lookat: the point to look at
	//   - up: the up vector
	//   - setDefault: also make the goal the default position
	LookAt(eye, lookat, up mgl32.Vec3, setDefault bool)

	// Rotate composes q onto the goal, turning the goal eye and up about the goal lookat.
	// Successive calls accumulate.
	//
	// Parameters:
	//   - q: the rotation
	Rotate(q mgl32.Quat)

	// Zoom divides the goal eye-to-lookat distance by factor. Factors above 1 move closer.
	//
	// Parameters:
	//   - factor: the zoom factor; non-positive values are ignored
	Zoom(factor float32)

	// Translate moves the goal eye and lookat by delta.
	//
	// Parameters:
	//   - delta: world-space offset
	Translate(delta mgl32.Vec3)

	// GoBookmark installs pos as the goal over the long bookmark window.
	//
	// Parameters:
	//   - pos: the target position
	GoBookmark(pos CameraPosition)

	// GoUI installs pos as the goal over the short interaction window.
	//
	// Parameters:
	//   - pos: the target position
	GoUI(pos CameraPosition)

	// GoDefault animates back to the default position.
	GoDefault()

	// Fit2D requests an orthographic top-down view framing the rectangle
	// [min, max] on the z = 0 plane. The request is resolved by the next
	// CameraPosition call, when the viewport aspect is known.
	//
	// Parameters:
	//   - min: lower-left corner
	//   - max: upper-right corner
	//   - setDefault: also make the framed view the default position
	Fit2D(min, max mgl32.Vec2, setDefault bool)

	// SetInterfaceMode changes the orientation constraint and re-settles the goal.
	//
	// Parameters:
	//   - mode: the new mode
	SetInterfaceMode(mode InterfaceMode)

	// InterfaceMode returns the current orientation constraint.
	//
	// Returns:
	//   - InterfaceMode: the mode
	InterfaceMode() InterfaceMode

	// SetPerspectiveness animates the goal's perspective blend to v, clamped to [0, 1].
	//
	// Parameters:
	//   - v: 1 for perspective, 0 for orthographic
	SetPerspectiveness(v float32)

	// Goal returns the current goal keyframe.
	//
	// Returns:
	//   - CameraPosition: the goal
	Goal() CameraPosition

	// Current returns the position resolved by the most recent CameraPosition call.
	//
	// Returns:
	//   - CameraPosition: the last resolved position
	Current() CameraPosition

	// Default returns the default position.
	//
	// Returns:
	//   - CameraPosition: the default
	Default() CameraPosition

	// SetDefault replaces the default position without moving the camera.
	//
	// Parameters:
	//   - pos: the new default
	SetDefault(pos CameraPosition)

	// Animating reports whether the camera is still moving toward its goal at now.
	//
	// Parameters:
	//   - now: the time to test
	//
	// Returns:
	//   - bool: true while now is before the end of the animation window
	Animating(now time.Time) bool

	// SaveBookmark stores the current goal under name.
	//
	// Parameters:
	//   - name: the bookmark name
	SaveBookmark(name string)

	// Bookmark returns the position stored under name.
	//
	// Parameters:
	//   - name: the bookmark name
	//
	// Returns:
	//   - CameraPosition: the stored position
	//   - bool: true if the bookmark exists
	Bookmark(name string) (CameraPosition, bool)

	// Bookmarks returns the stored bookmark names in sorted order.
	//
	// Returns:
	//   - []string: the names
	Bookmarks() []string
}

// RegisterTypes registers the camera position and manager factories with reg.
//
// Parameters:
//   - reg: the registry to populate
func RegisterTypes(reg *serial.Registry) {
	reg.Register(TagPosition, func() serial.Object { return &CameraPosition{} })
	reg.Register(TagManager, func() serial.Object { return newManager() })
}
