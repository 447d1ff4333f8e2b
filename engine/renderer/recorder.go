package renderer

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Op names a recorded backend call.
type Op string

const (
	OpViewport     Op = "viewport"
	OpScissor      Op = "scissor"
	OpClear        Op = "clear"
	OpProjection   Op = "projection"
	OpModelView    Op = "modelview"
	OpPushMatrix   Op = "push"
	OpPopMatrix    Op = "pop"
	OpMultMatrix   Op = "mult"
	OpBind         Op = "bind"
	OpUnbind       Op = "unbind"
	OpDrawArrays   Op = "draw-arrays"
	OpDrawElements Op = "draw-elements"
	OpSetLight     Op = "light"
	OpDisableLight Op = "light-off"
	OpMaterial     Op = "material"
	OpReadPixels   Op = "read-pixels"
)

// Command is one recorded backend call. Only the fields relevant to Op are set.
type Command struct {
	Op        Op
	Rect      common.Rect
	Flags     ClearFlags
	Color     common.Color
	Matrix    mgl32.Mat4
	Stream    Stream
	Length    int
	Primitive Primitive
	First     int
	Count     int
	Slot      int
	Light     LightState
	Material  Material
	// Tag is copied from the recorder's current tag when the command is recorded.
	Tag string
}

// Recorder is a headless Backend that records every call. It tracks the
// model-view stack depth and the last clear color so ReadPixels returns a
// plausible image. It is used for tests, capture-free rendering and debugging
// command sequencing. Recorder is safe to inspect from other goroutines while
// the render goroutine records into it.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	errs     []error
	depth    int
	lastFill common.Color
	tag      string
	// hook, when set, runs on every recorded command outside the lock.
	hook func(Command)
}

var _ Backend = &Recorder{}

// NewRecorder creates an empty Recorder.
//
// Returns:
//   - *Recorder: the new recorder
func NewRecorder() *Recorder {
	return &Recorder{lastFill: common.ColorBlack}
}

// SetHook installs a function called with every recorded command.
//
// Parameters:
//   - hook: the callback, or nil to remove it
func (r *Recorder) SetHook(hook func(Command)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = hook
}

// SetTag labels subsequently recorded commands, e.g. with the object being drawn.
func (r *Recorder) SetTag(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tag = tag
}

// Commands returns a copy of the commands recorded so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Ops returns the Op of each recorded command, in order.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]Op, len(r.commands))
	for i, c := range r.commands {
		ops[i] = c.Op
	}
	return ops
}

// Reset discards all recorded commands and pending errors.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = r.commands[:0]
	r.errs = nil
	r.depth = 0
}

// Depth returns the current model-view stack depth above the base matrix.
func (r *Recorder) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.depth
}

func (r *Recorder) record(c Command) {
	r.mu.Lock()
	c.Tag = r.tag
	r.commands = append(r.commands, c)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(c)
	}
}

func (r *Recorder) Viewport(rect common.Rect) {
	r.record(Command{Op: OpViewport, Rect: rect})
}

func (r *Recorder) Scissor(rect common.Rect) {
	r.record(Command{Op: OpScissor, Rect: rect})
}

func (r *Recorder) Clear(flags ClearFlags, c common.Color) {
	if flags&ClearColor != 0 {
		r.mu.Lock()
		r.lastFill = c
		r.mu.Unlock()
	}
	r.record(Command{Op: OpClear, Flags: flags, Color: c})
}

func (r *Recorder) SetProjection(m mgl32.Mat4) {
	r.record(Command{Op: OpProjection, Matrix: m})
}

func (r *Recorder) SetModelView(m mgl32.Mat4) {
	r.record(Command{Op: OpModelView, Matrix: m})
}

func (r *Recorder) PushMatrix() {
	r.mu.Lock()
	r.depth++
	r.mu.Unlock()
	r.record(Command{Op: OpPushMatrix})
}

func (r *Recorder) PopMatrix() {
	r.mu.Lock()
	if r.depth == 0 {
		r.errs = append(r.errs, fmt.Errorf("renderer: model-view stack underflow"))
	} else {
		r.depth--
	}
	r.mu.Unlock()
	r.record(Command{Op: OpPopMatrix})
}

func (r *Recorder) MultMatrix(m mgl32.Mat4) {
	r.record(Command{Op: OpMultMatrix, Matrix: m})
}

func (r *Recorder) BindFloats(s Stream, data []float32, components int) {
	if components <= 0 || len(data)%components != 0 {
		r.mu.Lock()
		r.errs = append(r.errs, fmt.Errorf("renderer: %s stream of %d values is not a multiple of %d", s, len(data), components))
		r.mu.Unlock()
	}
	r.record(Command{Op: OpBind, Stream: s, Length: len(data), Count: components})
}

func (r *Recorder) BindIndices(indices []int32) {
	r.record(Command{Op: OpBind, Stream: StreamIndex, Length: len(indices)})
}

func (r *Recorder) Unbind(s Stream) {
	r.record(Command{Op: OpUnbind, Stream: s})
}

func (r *Recorder) DrawArrays(p Primitive, first, count int) {
	r.record(Command{Op: OpDrawArrays, Primitive: p, First: first, Count: count})
}

func (r *Recorder) DrawElements(p Primitive, first, count int) {
	r.record(Command{Op: OpDrawElements, Primitive: p, First: first, Count: count})
}

func (r *Recorder) SetLight(slot int, l LightState) {
	r.record(Command{Op: OpSetLight, Slot: slot, Light: l})
}

func (r *Recorder) DisableLight(slot int) {
	r.record(Command{Op: OpDisableLight, Slot: slot})
}

func (r *Recorder) SetMaterial(m Material) {
	r.record(Command{Op: OpMaterial, Material: m})
}

// ReadPixels returns an image filled with the most recent clear color.
func (r *Recorder) ReadPixels(rect common.Rect) (*image.RGBA, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("renderer: empty read-back rectangle %v", rect)
	}
	r.mu.Lock()
	fill := r.lastFill
	r.mu.Unlock()
	r.record(Command{Op: OpReadPixels, Rect: rect})

	img := image.NewRGBA(image.Rect(0, 0, rect.Width, rect.Height))
	c := color.RGBA{
		R: uint8(common.Clamp(fill.R, 0, 1) * 255),
		G: uint8(common.Clamp(fill.G, 0, 1) * 255),
		B: uint8(common.Clamp(fill.B, 0, 1) * 255),
		A: uint8(common.Clamp(fill.A, 0, 1) * 255),
	}
	for y := 0; y < rect.Height; y++ {
		for x := 0; x < rect.Width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

func (r *Recorder) Error() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}
