package visual

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/Carmen-Shannon/oxy-view/engine/world"
)

// VertexData draws raw vertex streams with one primitive. Positions are three
// components per vertex; Normals (three) and Colors (four) are optional and,
// when present, must cover the same vertex count. A VertexData must not be
// modified once it has been added to a world.
type VertexData struct {
	Primitive renderer.Primitive
	Vertices  []float32
	Normals   []float32
	Colors    []float32
}

var (
	_ world.Object     = &VertexData{}
	_ serial.Encodable = &VertexData{}
)

// NewPoints creates a point cloud from xyz positions and optional rgba colors.
//
// Parameters:
//   - vertices: packed xyz positions
//   - colors: packed rgba colors, or nil
//
// Returns:
//   - *VertexData: the point cloud
func NewPoints(vertices, colors []float32) *VertexData {
	return &VertexData{Primitive: renderer.PrimitivePoints, Vertices: vertices, Colors: colors}
}

// Count returns the number of vertices.
func (v *VertexData) Count() int {
	return len(v.Vertices) / 3
}

// Validate checks that every stream covers the vertex count.
//
// Returns:
//   - error: error naming the first inconsistent stream
func (v *VertexData) Validate() error {
	n := v.Count()
	if len(v.Vertices) != n*3 {
		return fmt.Errorf("visual: %d vertex values is not a multiple of 3", len(v.Vertices))
	}
	if v.Normals != nil && len(v.Normals) != n*3 {
		return fmt.Errorf("visual: %d normal values for %d vertices", len(v.Normals), n)
	}
	if v.Colors != nil && len(v.Colors) != n*4 {
		return fmt.Errorf("visual: %d color values for %d vertices", len(v.Colors), n)
	}
	return nil
}

// Draw binds the streams, issues one draw call and unbinds them. Invalid data
// draws nothing.
func (v *VertexData) Draw(backend renderer.Backend) {
	if v.Count() == 0 || v.Validate() != nil {
		return
	}
	backend.BindFloats(renderer.StreamVertex, v.Vertices, 3)
	defer backend.Unbind(renderer.StreamVertex)
	if v.Normals != nil {
		backend.BindFloats(renderer.StreamNormal, v.Normals, 3)
		defer backend.Unbind(renderer.StreamNormal)
	}
	if v.Colors != nil {
		backend.BindFloats(renderer.StreamColor, v.Colors, 4)
		defer backend.Unbind(renderer.StreamColor)
	}
	backend.DrawArrays(v.Primitive, 0, v.Count())
}

func (v *VertexData) TypeTag() string { return TagVertexData }

func (v *VertexData) EncodeTo(w *serial.Writer) error {
	w.WriteInt32(int32(v.Primitive))
	w.WriteFloat32s(v.Vertices)
	w.WriteFloat32s(v.Normals)
	w.WriteFloat32s(v.Colors)
	return nil
}

func (v *VertexData) DecodeFrom(r *serial.Reader) error {
	v.Primitive = renderer.Primitive(r.ReadInt32())
	v.Vertices = r.ReadFloat32s()
	v.Normals = r.ReadFloat32s()
	v.Colors = r.ReadFloat32s()
	if err := r.Err(); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", serial.ErrMalformed, err)
	}
	return nil
}
