package layer

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/Carmen-Shannon/oxy-view/engine/world"
)

// Serialization tags for layers and layer stacks.
const (
	TagLayer = "layer.Layer"
	TagStack = "layer.Stack"
)

// Stack is an ordered list of layers persisted as one object, for example as
// the root of a scene file.
type Stack struct {
	Layers []Layer
}

// RegisterTypes registers the layer, stack and layout factories with reg.
//
// Parameters:
//   - reg: the registry to populate
func RegisterTypes(reg *serial.Registry) {
	reg.Register(TagLayer, func() serial.Object { return newLayer() })
	reg.Register(TagStack, func() serial.Object { return &Stack{} })
	reg.Register(TagFractionLayout, func() serial.Object { return &FractionLayout{} })
	reg.Register(TagFixedLayout, func() serial.Object { return &FixedLayout{} })
}

func (s *Stack) TypeTag() string { return TagStack }

func (s *Stack) EncodeTo(w *serial.Writer) error {
	return serial.WriteSlice(w, s.Layers)
}

func (s *Stack) DecodeFrom(r *serial.Reader) error {
	layers, err := serial.ReadSlice[Layer](r)
	if err != nil {
		return err
	}
	s.Layers = layers
	return nil
}

func (l *layerImpl) TypeTag() string { return TagLayer }

// EncodeTo writes the layer's settings, world, camera and lights. Event
// handlers are code, not state, and are not written.
func (l *layerImpl) EncodeTo(w *serial.Writer) error {
	l.mu.Lock()
	name, enabled, order := l.name, l.enabled, l.drawOrder
	bg, flags := l.background, l.clearFlags
	layout, lights := l.layout, l.lights
	hidden := make([]string, 0, len(l.disabledBuffers))
	for b := range l.disabledBuffers {
		hidden = append(hidden, b)
	}
	l.mu.Unlock()
	sort.Strings(hidden)

	sw, ok := l.world.(serial.Object)
	if !ok {
		return fmt.Errorf("layer %q: world %T is not serializable", name, l.world)
	}

	w.WriteString(name)
	w.WriteBool(enabled)
	w.WriteInt32(int32(order))
	w.WriteFloat32s([]float32{bg.R, bg.G, bg.B, bg.A})
	w.WriteUint8(uint8(flags))
	if err := w.WriteObject(layout); err != nil {
		return err
	}
	if err := w.WriteObject(sw); err != nil {
		return err
	}
	if err := w.WriteObject(l.manager); err != nil {
		return err
	}
	if err := serial.WriteSlice(w, lights); err != nil {
		return err
	}
	w.WriteInt32(int32(len(hidden)))
	for _, b := range hidden {
		w.WriteString(b)
	}
	return nil
}

func (l *layerImpl) DecodeFrom(r *serial.Reader) error {
	name := r.ReadString()
	enabled := r.ReadBool()
	order := int(r.ReadInt32())
	bg := r.ReadFloat32s()
	flags := renderer.ClearFlags(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	if len(bg) != 4 {
		return fmt.Errorf("layer %q: background of length %d: %w", name, len(bg), serial.ErrMalformed)
	}

	layout, err := serial.ReadAs[Layout](r)
	if err != nil {
		return fmt.Errorf("layer %q: layout: %w", name, err)
	}
	wo, err := r.ReadObject()
	if err != nil {
		return fmt.Errorf("layer %q: world: %w", name, err)
	}
	wld, ok := wo.(world.World)
	if !ok {
		return fmt.Errorf("layer %q: world record %T: %w", name, wo, serial.ErrTypeMismatch)
	}
	manager, err := serial.ReadAs[camera.Manager](r)
	if err != nil {
		return fmt.Errorf("layer %q: camera: %w", name, err)
	}
	lights, err := serial.ReadSlice[light.Light](r)
	if err != nil {
		return fmt.Errorf("layer %q: lights: %w", name, err)
	}
	n := int(r.ReadInt32())
	if err := r.Err(); err != nil {
		return err
	}
	if n < 0 || n > r.Remaining() {
		return fmt.Errorf("layer %q: hidden buffer count %d: %w", name, n, serial.ErrMalformed)
	}
	hidden := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		hidden[r.ReadString()] = true
	}
	if err := r.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.name, l.enabled, l.drawOrder = name, enabled, order
	l.background = common.Color{R: bg[0], G: bg[1], B: bg[2], A: bg[3]}
	l.clearFlags = flags
	if layout != nil {
		l.layout = layout
	}
	l.world = wld
	if manager != nil {
		l.manager = manager
	}
	l.lights = lights
	l.disabledBuffers = hidden
	return nil
}
