package layer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
)

// Layout computes a layer's viewport from the canvas rectangle.
type Layout interface {
	serial.Encodable

	// Viewport returns the layer's pixel rectangle inside canvas.
	//
	// Parameters:
	//   - canvas: the full canvas rectangle (bottom-left origin)
	//
	// Returns:
	//   - common.Rect: the layer's viewport
	Viewport(canvas common.Rect) common.Rect
}

// Layout serialization tags.
const (
	TagFractionLayout = "layer.FractionLayout"
	TagFixedLayout    = "layer.FixedLayout"
)

// FractionLayout places the viewport at fractions of the canvas size, so it
// follows canvas resizes. The zero value is not useful; see FullLayout.
type FractionLayout struct {
	X, Y, Width, Height float32
}

// FullLayout returns a layout covering the whole canvas.
//
// Returns:
//   - *FractionLayout: the layout
func FullLayout() *FractionLayout {
	return &FractionLayout{Width: 1, Height: 1}
}

func (f *FractionLayout) Viewport(canvas common.Rect) common.Rect {
	w, h := float32(canvas.Width), float32(canvas.Height)
	x0 := canvas.X + int(f.X*w+0.5)
	y0 := canvas.Y + int(f.Y*h+0.5)
	x1 := canvas.X + int((f.X+f.Width)*w+0.5)
	y1 := canvas.Y + int((f.Y+f.Height)*h+0.5)
	return common.Rect{X: x0, Y: y0, Width: max(x1-x0, 0), Height: max(y1-y0, 0)}
}

func (f *FractionLayout) TypeTag() string { return TagFractionLayout }

func (f *FractionLayout) EncodeTo(w *serial.Writer) error {
	w.WriteFloat32s([]float32{f.X, f.Y, f.Width, f.Height})
	return nil
}

func (f *FractionLayout) DecodeFrom(r *serial.Reader) error {
	v := r.ReadFloat32s()
	if err := r.Err(); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("layer: fraction layout of length %d: %w", len(v), serial.ErrMalformed)
	}
	f.X, f.Y, f.Width, f.Height = v[0], v[1], v[2], v[3]
	return nil
}

// FixedLayout places a fixed-size viewport at an offset from the canvas's
// bottom-left corner, clipped to the canvas.
type FixedLayout struct {
	Rect common.Rect
}

func (f *FixedLayout) Viewport(canvas common.Rect) common.Rect {
	x0 := canvas.X + f.Rect.X
	y0 := canvas.Y + f.Rect.Y
	x1 := min(x0+f.Rect.Width, canvas.X+canvas.Width)
	y1 := min(y0+f.Rect.Height, canvas.Y+canvas.Height)
	return common.Rect{X: x0, Y: y0, Width: max(x1-x0, 0), Height: max(y1-y0, 0)}
}

func (f *FixedLayout) TypeTag() string { return TagFixedLayout }

func (f *FixedLayout) EncodeTo(w *serial.Writer) error {
	w.WriteInt32s([]int32{int32(f.Rect.X), int32(f.Rect.Y), int32(f.Rect.Width), int32(f.Rect.Height)})
	return nil
}

func (f *FixedLayout) DecodeFrom(r *serial.Reader) error {
	v := r.ReadInt32s()
	if err := r.Err(); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("layer: fixed layout of length %d: %w", len(v), serial.ErrMalformed)
	}
	f.Rect = common.Rect{X: int(v[0]), Y: int(v[1]), Width: int(v[2]), Height: int(v[3])}
	return nil
}
