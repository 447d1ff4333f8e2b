package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyR     = 82  // R key (ASCII), return camera to default
	KeyP     = 80  // P key (ASCII), toggle perspective/orthographic
	KeyEsc   = 256 // Escape key (GLFW)
	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)

	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
	Key3 = 51 // 3 key (ASCII)
	Key4 = 52 // 4 key (ASCII)
)

// Modifier key bitmask values, matching glfw.ModifierKey.
const (
	ModShift   = 0x0001
	ModControl = 0x0002
	ModAlt     = 0x0004
	ModSuper   = 0x0008
)

// Mouse button indices, matching glfw.MouseButton.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)
