// Package visual provides small drawable objects: transformed groups of other
// objects and raw vertex streams.
package visual

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/Carmen-Shannon/oxy-view/engine/world"
	"github.com/go-gl/mathgl/mgl32"
)

// Serialization tags for visual objects.
const (
	TagChain      = "visual.Chain"
	TagVertexData = "visual.VertexData"
)

// RegisterTypes registers the visual object factories with reg.
//
// Parameters:
//   - reg: the registry to populate
func RegisterTypes(reg *serial.Registry) {
	reg.Register(TagChain, func() serial.Object { return NewChain() })
	reg.Register(TagVertexData, func() serial.Object { return &VertexData{} })
}

// Chain draws a sequence of objects under one model transform.
type Chain struct {
	mu *sync.Mutex

	matrix  mgl32.Mat4
	objects []world.Object
}

var (
	_ world.Object     = &Chain{}
	_ serial.Encodable = &Chain{}
)

// NewChain creates a chain with the identity transform.
//
// Parameters:
//   - objects: the initial children, drawn in order
//
// Returns:
//   - *Chain: the chain
func NewChain(objects ...world.Object) *Chain {
	return &Chain{
		mu:      &sync.Mutex{},
		matrix:  mgl32.Ident4(),
		objects: append([]world.Object(nil), objects...),
	}
}

// SetMatrix replaces the chain's transform.
func (c *Chain) SetMatrix(m mgl32.Mat4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matrix = m
}

func (c *Chain) Matrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrix
}

// Translate post-multiplies the transform by a translation.
func (c *Chain) Translate(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matrix = c.matrix.Mul4(mgl32.Translate3D(x, y, z))
}

// Add appends obj to the chain.
func (c *Chain) Add(obj world.Object) {
	if obj == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]world.Object, 0, len(c.objects)+1)
	next = append(next, c.objects...)
	c.objects = append(next, obj)
}

func (c *Chain) Objects() []world.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.objects
}

// Draw pushes the transform, draws every child and restores the stack.
func (c *Chain) Draw(backend renderer.Backend) {
	c.mu.Lock()
	m, objects := c.matrix, c.objects
	c.mu.Unlock()

	backend.PushMatrix()
	defer backend.PopMatrix()
	backend.MultMatrix(m)
	for _, obj := range objects {
		obj.Draw(backend)
	}
}

func (c *Chain) TypeTag() string { return TagChain }

// EncodeTo writes the transform and the children that are serializable.
func (c *Chain) EncodeTo(w *serial.Writer) error {
	c.mu.Lock()
	m, objects := c.matrix, c.objects
	c.mu.Unlock()

	w.WriteFloat32s(m[:])
	persisted := make([]serial.Object, 0, len(objects))
	for _, obj := range objects {
		if so, ok := obj.(serial.Object); ok {
			persisted = append(persisted, so)
		}
	}
	return serial.WriteSlice(w, persisted)
}

func (c *Chain) DecodeFrom(r *serial.Reader) error {
	values := r.ReadFloat32s()
	if err := r.Err(); err != nil {
		return err
	}
	if len(values) != 16 {
		return fmt.Errorf("%w: chain matrix has %d values", serial.ErrMalformed, len(values))
	}
	objs, err := serial.ReadSlice[serial.Object](r)
	if err != nil {
		return err
	}

	var m mgl32.Mat4
	copy(m[:], values)
	children := make([]world.Object, 0, len(objs))
	for _, so := range objs {
		if so == nil {
			continue
		}
		obj, ok := so.(world.Object)
		if !ok {
			return fmt.Errorf("%w: %s is not drawable", serial.ErrTypeMismatch, so.TypeTag())
		}
		children = append(children, obj)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.matrix = m
	c.objects = children
	return nil
}
