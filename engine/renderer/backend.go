package renderer

import (
	"image"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ClearFlags selects which framebuffer planes a Clear call resets.
type ClearFlags uint8

const (
	// ClearColor resets the color plane to the supplied color.
	ClearColor ClearFlags = 1 << iota
	// ClearDepth resets the depth plane to the far value.
	ClearDepth
)

// Stream identifies a per-vertex attribute stream.
type Stream int

const (
	StreamVertex Stream = iota
	StreamNormal
	StreamColor
	StreamTexCoord
	StreamIndex
)

func (s Stream) String() string {
	switch s {
	case StreamVertex:
		return "vertex"
	case StreamNormal:
		return "normal"
	case StreamColor:
		return "color"
	case StreamTexCoord:
		return "texcoord"
	case StreamIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Primitive selects how bound vertices are assembled by a draw call.
type Primitive int

const (
	PrimitivePoints Primitive = iota
	PrimitiveLines
	PrimitiveLineStrip
	PrimitiveLineLoop
	PrimitiveTriangles
	PrimitiveTriangleStrip
	PrimitiveTriangleFan
)

// LightState is the fixed-function light description installed into one light slot.
type LightState struct {
	// Position is homogeneous; W == 0 describes a directional light.
	Position [4]float32
	Ambient  [3]float32
	Diffuse  [3]float32
	Specular [3]float32
}

// Material is the fixed-function surface description used by lit draw calls.
type Material struct {
	Ambient   [4]float32
	Diffuse   [4]float32
	Specular  [4]float32
	Shininess float32
}

// Backend is the immediate-mode graphics command interface the engine renders
// through. Implementations wrap a concrete graphics API. Every method is called
// from the render goroutine only, so implementations need no locking of their own.
type Backend interface {
	// Viewport sets the pixel rectangle subsequent draws map into.
	//
	// Parameters:
	//   - r: viewport in render-context (bottom-left origin) pixels
	Viewport(r common.Rect)

	// Scissor restricts clears and draws to r.
	//
	// Parameters:
	//   - r: scissor rectangle in render-context pixels
	Scissor(r common.Rect)

	// Clear resets the planes selected by flags.
	//
	// Parameters:
	//   - flags: planes to clear
	//   - color: color used when ClearColor is set
	Clear(flags ClearFlags, color common.Color)

	// SetProjection replaces the projection matrix.
	//
	// Parameters:
	//   - m: column-major projection matrix
	SetProjection(m mgl32.Mat4)

	// SetModelView replaces the top of the model-view matrix stack.
	//
	// Parameters:
	//   - m: column-major model-view matrix
	SetModelView(m mgl32.Mat4)

	// PushMatrix duplicates the top of the model-view stack.
	PushMatrix()

	// PopMatrix discards the top of the model-view stack.
	PopMatrix()

	// MultMatrix right-multiplies the top of the model-view stack by m.
	//
	// Parameters:
	//   - m: column-major matrix
	MultMatrix(m mgl32.Mat4)

	// BindFloats binds client-side float data to an attribute stream.
	//
	// Parameters:
	//   - s: the stream to bind
	//   - data: packed attribute values
	//   - components: values per vertex (2, 3 or 4)
	BindFloats(s Stream, data []float32, components int)

	// BindIndices binds an index stream used by DrawElements.
	//
	// Parameters:
	//   - indices: vertex indices
	BindIndices(indices []int32)

	// Unbind releases the data bound to s.
	//
	// Parameters:
	//   - s: the stream to unbind
	Unbind(s Stream)

	// DrawArrays draws count vertices starting at first from the bound streams.
	//
	// Parameters:
	//   - p: primitive assembly mode
	//   - first: index of the first vertex
	//   - count: number of vertices
	DrawArrays(p Primitive, first, count int)

	// DrawElements draws count indices starting at first from the bound index stream.
	//
	// Parameters:
	//   - p: primitive assembly mode
	//   - first: offset into the index stream
	//   - count: number of indices
	DrawElements(p Primitive, first, count int)

	// SetLight enables light slot and installs l into it.
	//
	// Parameters:
	//   - slot: zero-based light slot
	//   - l: the light parameters
	SetLight(slot int, l LightState)

	// DisableLight disables light slot.
	//
	// Parameters:
	//   - slot: zero-based light slot
	DisableLight(slot int)

	// SetMaterial installs the material used by subsequent lit draws.
	//
	// Parameters:
	//   - m: the material
	SetMaterial(m Material)

	// ReadPixels reads back the framebuffer contents inside r.
	// Row 0 of the returned image is the top row of r.
	//
	// Parameters:
	//   - r: rectangle in render-context pixels
	//
	// Returns:
	//   - *image.RGBA: the pixels
	//   - error: error if read-back is unsupported or fails
	ReadPixels(r common.Rect) (*image.RGBA, error)

	// Error returns and clears the oldest pending backend error, or nil.
	// The engine queries it once per frame.
	//
	// Returns:
	//   - error: the pending error, or nil
	Error() error
}
