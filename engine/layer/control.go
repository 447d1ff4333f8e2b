package layer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultControlPriority is the priority of the camera control handler.
// Application handlers with lower values see events before it.
const DefaultControlPriority = 100

const (
	defaultZoomStep      = 1.1
	defaultRotateSpeed   = 0.01
	defaultKeyPanStep    = 0.1
	defaultPanIterations = 8
	defaultPanTolerance  = 0.05
)

type dragMode int

const (
	dragPan dragMode = iota
	dragRotate
)

type dragState struct {
	mode   dragMode
	start  camera.CameraPosition
	anchor mgl32.Vec3
	lastX  float32
	lastY  float32
}

// cameraControlImpl is the default camera handler: left-drag pans, right-drag
// rotates, the wheel zooms and a few keys switch camera state.
type cameraControlImpl struct {
	mu *sync.Mutex

	priority      int
	zoomStep      float32
	rotateSpeed   float32
	keyPanStep    float32
	panIterations int
	panTolerance  float32

	drag *dragState
}

var _ EventHandler = &cameraControlImpl{}

// NewCameraControl creates the default camera control handler.
//
// Bindings:
//   - left drag: pan, keeping the picked point under the cursor
//   - right drag: rotate about the lookat; Ctrl yaw only, Shift pitch only, Ctrl+Shift roll only
//   - wheel: zoom
//   - R: default position; P: toggle perspective; 1-4: interface modes
//   - arrows: translate; Esc: cancel the current drag
//
// Parameters:
//   - options: functional options to configure the handler
//
// Returns:
//   - EventHandler: the handler
func NewCameraControl(options ...CameraControlBuilderOption) EventHandler {
	c := &cameraControlImpl{
		mu:            &sync.Mutex{},
		priority:      DefaultControlPriority,
		zoomStep:      defaultZoomStep,
		rotateSpeed:   defaultRotateSpeed,
		keyPanStep:    defaultKeyPanStep,
		panIterations: defaultPanIterations,
		panTolerance:  defaultPanTolerance,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cameraControlImpl) Priority() int {
	return c.priority
}

func (c *cameraControlImpl) HandleEvent(ctx *EventContext, ev Event) bool {
	if ctx == nil || ctx.Layer == nil {
		return false
	}
	var consumed bool
	switch ev.Type {
	case EventPress:
		consumed = c.press(ctx, ev)
	case EventDrag:
		consumed = c.dragTo(ctx, ev)
	case EventRelease:
		c.mu.Lock()
		consumed = c.drag != nil
		c.drag = nil
		c.mu.Unlock()
	case EventWheel:
		if ev.Wheel != 0 {
			ctx.Layer.Camera().Zoom(math32.Pow(c.zoomStep, ev.Wheel))
			consumed = true
		}
	case EventKeyPress:
		consumed = c.key(ctx, ev)
	}
	if consumed {
		ctx.RequestRedraw()
	}
	return consumed
}

// frameCamera returns the camera the pointer was seen through.
func frameCamera(ctx *EventContext) (camera.CameraPosition, bool) {
	if ctx.Frame.Rendered {
		return ctx.Frame.Camera, true
	}
	if ctx.Frame.Viewport.Empty() {
		return camera.CameraPosition{}, false
	}
	return ctx.Layer.Camera().Goal().WithViewport(ctx.Frame.Viewport), true
}

func (c *cameraControlImpl) press(ctx *EventContext, ev Event) bool {
	var mode dragMode
	switch ev.Button {
	case common.MouseButtonLeft:
		mode = dragPan
	case common.MouseButtonRight:
		mode = dragRotate
	default:
		return false
	}
	start, ok := frameCamera(ctx)
	if !ok {
		return false
	}
	anchor, ok := ctx.Layer.Manipulation().Pick(start, ev.X, ev.Y)
	if !ok {
		anchor = start.Lookat
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.drag = &dragState{mode: mode, start: start, anchor: anchor, lastX: ev.X, lastY: ev.Y}
	return true
}

func (c *cameraControlImpl) dragTo(ctx *EventContext, ev Event) bool {
	c.mu.Lock()
	d := c.drag
	if d == nil {
		c.mu.Unlock()
		return false
	}
	dx, dy := ev.X-d.lastX, ev.Y-d.lastY
	d.lastX, d.lastY = ev.X, ev.Y
	c.mu.Unlock()

	m := ctx.Layer.Camera()
	switch d.mode {
	case dragPan:
		delta := c.solvePan(d.start, d.anchor, ev.X, ev.Y)
		goal := d.start
		goal.Eye = goal.Eye.Add(delta)
		goal.Lookat = goal.Lookat.Add(delta)
		m.GoUI(goal)
	case dragRotate:
		if dx == 0 && dy == 0 {
			return true
		}
		m.Rotate(c.rotation(m.Goal(), dx, dy, ev.Mods))
	}
	return true
}

// solvePan finds the camera translation that puts anchor under window point
// (x, y). The camera moves in its own right/up plane; the two offsets are
// found by Newton iteration with a finite-difference Jacobian, stopping once
// the residual is within the pixel tolerance.
func (c *cameraControlImpl) solvePan(start camera.CameraPosition, anchor mgl32.Vec3, x, y float32) mgl32.Vec3 {
	view := start.ViewMatrix()
	right := view.Row(0).Vec3()
	up := view.Row(1).Vec3()

	h := math32.Max(start.Distance(), 1) * 1e-2
	residual := func(u, v float32) (float32, float32) {
		p := start.Project(anchor.Sub(right.Mul(u)).Sub(up.Mul(v)))
		return p[0] - x, p[1] - y
	}

	var u, v float32
	for i := 0; i < c.panIterations; i++ {
		fx, fy := residual(u, v)
		if math32.Abs(fx) <= c.panTolerance && math32.Abs(fy) <= c.panTolerance {
			break
		}
		ux, uy := residual(u+h, v)
		vx, vy := residual(u, v+h)
		a, b := (ux-fx)/h, (vx-fx)/h
		cc, d := (uy-fy)/h, (vy-fy)/h
		det := a*d - b*cc
		if math32.Abs(det) < 1e-12 || math32.IsNaN(det) || math32.IsInf(det, 0) {
			break
		}
		u -= (d*fx - b*fy) / det
		v -= (a*fy - cc*fx) / det
	}
	return right.Mul(u).Add(up.Mul(v))
}

// rotation converts a pointer delta into a rotation about the goal's lookat.
func (c *cameraControlImpl) rotation(goal camera.CameraPosition, dx, dy float32, mods int) mgl32.Quat {
	view := goal.ViewMatrix()
	right := view.Row(0).Vec3()
	up := view.Row(1).Vec3()
	forward := goal.Direction()

	yaw := mgl32.QuatRotate(-dx*c.rotateSpeed, up)
	pitch := mgl32.QuatRotate(dy*c.rotateSpeed, right)

	ctrl := mods&common.ModControl != 0
	shift := mods&common.ModShift != 0
	switch {
	case ctrl && shift:
		return mgl32.QuatRotate(dx*c.rotateSpeed, forward)
	case ctrl:
		return yaw
	case shift:
		return pitch
	default:
		return yaw.Mul(pitch)
	}
}

func (c *cameraControlImpl) key(ctx *EventContext, ev Event) bool {
	m := ctx.Layer.Camera()
	switch ev.Key {
	case common.KeyR:
		m.GoDefault()
	case common.KeyP:
		if m.Goal().Perspectiveness < 0.5 {
			m.SetPerspectiveness(1)
		} else {
			m.SetPerspectiveness(0)
		}
	case common.Key1:
		m.SetInterfaceMode(camera.Mode2D)
	case common.Key2:
		m.SetInterfaceMode(camera.Mode2DRotate)
	case common.Key3:
		m.SetInterfaceMode(camera.Mode25D)
	case common.Key4:
		m.SetInterfaceMode(camera.Mode3D)
	case common.KeyLeft, common.KeyRight, common.KeyUp, common.KeyDown:
		goal := m.Goal()
		view := goal.ViewMatrix()
		step := goal.Distance() * c.keyPanStep
		var delta mgl32.Vec3
		switch ev.Key {
		case common.KeyLeft:
			delta = view.Row(0).Vec3().Mul(-step)
		case common.KeyRight:
			delta = view.Row(0).Vec3().Mul(step)
		case common.KeyUp:
			delta = view.Row(1).Vec3().Mul(step)
		case common.KeyDown:
			delta = view.Row(1).Vec3().Mul(-step)
		}
		m.Translate(delta)
	case common.KeyEsc:
		c.mu.Lock()
		d := c.drag
		c.drag = nil
		c.mu.Unlock()
		if d == nil {
			return false
		}
		m.GoUI(d.start)
	default:
		return false
	}
	return true
}
