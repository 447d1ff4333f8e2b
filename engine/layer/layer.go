package layer

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/Carmen-Shannon/oxy-view/engine/world"
)

// layerImpl is the implementation of the Layer interface.
type layerImpl struct {
	mu *sync.Mutex

	name         string
	world        world.World
	manager      camera.Manager
	layout       Layout
	manipulation ManipulationStrategy
	lights       []light.Light

	enabled    bool
	background common.Color
	clearFlags renderer.ClearFlags
	drawOrder  int

	// handlers is copy-on-write, sorted by ascending priority.
	handlers        []EventHandler
	disabledBuffers map[string]bool
}

// Layer is a renderable view of one World with its own camera, viewport,
// lights and event-handler chain. Several layers may share one World.
type Layer interface {
	serial.Encodable

	// Name returns the layer's name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// World returns the scene this layer renders.
	//
	// Returns:
	//   - world.World: the world
	World() world.World

	// Camera returns the layer's camera manager.
	//
	// Returns:
	//   - camera.Manager: the manager
	Camera() camera.Manager

	// Layout returns the viewport layout.
	//
	// Returns:
	//   - Layout: the layout
	Layout() Layout

	// SetLayout replaces the viewport layout.
	//
	// Parameters:
	//   - layout: the new layout
	SetLayout(layout Layout)

	// Manipulation returns the strategy used to pick drag anchors.
	//
	// Returns:
	//   - ManipulationStrategy: the strategy
	Manipulation() ManipulationStrategy

	// SetManipulation replaces the drag anchor strategy.
	//
	// Parameters:
	//   - m: the new strategy
	SetManipulation(m ManipulationStrategy)

	// AddLight appends a light. Lights are installed in the order added.
	//
	// Parameters:
	//   - l: the light
	AddLight(l light.Light)

	// RemoveLight removes a light by identity.
	//
	// Parameters:
	//   - l: the light
	//
	// Returns:
	//   - bool: true if the light was present
	RemoveLight(l light.Light) bool

	// Lights returns the layer's lights.
	//
	// Returns:
	//   - []light.Light: the lights in install order
	Lights() []light.Light

	// Enabled reports whether the layer renders and receives events.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled enables or disables the layer.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Background returns the clear color.
	//
	// Returns:
	//   - common.Color: the color
	Background() common.Color

	// SetBackground sets the clear color.
	//
	// Parameters:
	//   - c: the color
	SetBackground(c common.Color)

	// ClearFlags returns the planes cleared before the layer draws.
	//
	// Returns:
	//   - renderer.ClearFlags: the flags
	ClearFlags() renderer.ClearFlags

	// SetClearFlags sets the planes cleared before the layer draws.
	//
	// Parameters:
	//   - flags: the flags; zero clears nothing
	SetClearFlags(flags renderer.ClearFlags)

	// DrawOrder returns the layer's draw order. Higher layers draw later and
	// are hit-tested first.
	//
	// Returns:
	//   - int: the draw order
	DrawOrder() int

	// SetDrawOrder sets the layer's draw order.
	//
	// Parameters:
	//   - order: the draw order
	SetDrawOrder(order int)

	// AddHandler inserts h after every handler of equal or lower priority.
	//
	// Parameters:
	//   - h: the handler
	AddHandler(h EventHandler)

	// RemoveHandler removes h by identity.
	//
	// Parameters:
	//   - h: the handler
	//
	// Returns:
	//   - bool: true if h was present
	RemoveHandler(h EventHandler) bool

	// Handlers returns the handler chain in dispatch order.
	//
	// Returns:
	//   - []EventHandler: the handlers
	Handlers() []EventHandler

	// SetBufferEnabled shows or hides a world buffer in this layer only.
	//
	// Parameters:
	//   - name: the buffer name
	//   - enabled: false to hide it
	SetBufferEnabled(name string, enabled bool)

	// BufferEnabled reports whether a world buffer is drawn by this layer.
	//
	// Parameters:
	//   - name: the buffer name
	//
	// Returns:
	//   - bool: true unless hidden with SetBufferEnabled
	BufferEnabled(name string) bool

	// Render draws the layer. It must be called on the render goroutine.
	//
	// Parameters:
	//   - ctx: the frame context to record the viewport and camera into
	//   - backend: the graphics backend
	//   - canvas: the canvas rectangle
	//   - now: the frame time
	Render(ctx *FrameContext, backend renderer.Backend, canvas common.Rect, now time.Time)

	// Dispatch offers ev to the handler chain until one consumes it.
	//
	// Parameters:
	//   - ctx: dispatch context; its Layer is set to this layer
	//   - ev: the event
	//
	// Returns:
	//   - bool: true if a handler consumed the event
	Dispatch(ctx *EventContext, ev Event) bool
}

var _ Layer = &layerImpl{}

// NewLayer creates a Layer viewing w.
//
// Parameters:
//   - w: the world to render; must not be nil
//   - options: functional options to configure the layer
//
// Returns:
//   - Layer: the new layer
func NewLayer(w world.World, options ...LayerBuilderOption) Layer {
	if w == nil {
		panic("layer: nil world")
	}
	l := newLayer(options...)
	l.world = w
	return l
}

func newLayer(options ...LayerBuilderOption) *layerImpl {
	l := &layerImpl{
		mu:              &sync.Mutex{},
		layout:          FullLayout(),
		manipulation:    PlaneManipulation{},
		enabled:         true,
		background:      common.ColorBlack,
		clearFlags:      renderer.ClearColor | renderer.ClearDepth,
		disabledBuffers: make(map[string]bool),
	}
	for _, opt := range options {
		opt(l)
	}
	if l.manager == nil {
		l.manager = camera.NewManager()
	}
	return l
}

func (l *layerImpl) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

func (l *layerImpl) World() world.World {
	return l.world
}

func (l *layerImpl) Camera() camera.Manager {
	return l.manager
}

func (l *layerImpl) Layout() Layout {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.layout
}

func (l *layerImpl) SetLayout(layout Layout) {
	if layout == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.layout = layout
}

func (l *layerImpl) Manipulation() ManipulationStrategy {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.manipulation
}

func (l *layerImpl) SetManipulation(m ManipulationStrategy) {
	if m == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.manipulation = m
}

func (l *layerImpl) AddLight(lt light.Light) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]light.Light, 0, len(l.lights)+1)
	next = append(next, l.lights...)
	l.lights = append(next, lt)
}

func (l *layerImpl) RemoveLight(lt light.Light) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, cur := range l.lights {
		if cur == lt {
			next := make([]light.Light, 0, len(l.lights)-1)
			next = append(next, l.lights[:i]...)
			l.lights = append(next, l.lights[i+1:]...)
			return true
		}
	}
	return false
}

func (l *layerImpl) Lights() []light.Light {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lights
}

func (l *layerImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *layerImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *layerImpl) Background() common.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.background
}

func (l *layerImpl) SetBackground(c common.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.background = c
}

func (l *layerImpl) ClearFlags() renderer.ClearFlags {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clearFlags
}

func (l *layerImpl) SetClearFlags(flags renderer.ClearFlags) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearFlags = flags
}

func (l *layerImpl) DrawOrder() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drawOrder
}

func (l *layerImpl) SetDrawOrder(order int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drawOrder = order
}

func (l *layerImpl) AddHandler(h EventHandler) {
	if h == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = insertHandler(l.handlers, h)
}

func (l *layerImpl) RemoveHandler(h EventHandler) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, cur := range l.handlers {
		if cur == h {
			next := make([]EventHandler, 0, len(l.handlers)-1)
			next = append(next, l.handlers[:i]...)
			l.handlers = append(next, l.handlers[i+1:]...)
			return true
		}
	}
	return false
}

func (l *layerImpl) Handlers() []EventHandler {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handlers
}

func (l *layerImpl) SetBufferEnabled(name string, enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if enabled {
		delete(l.disabledBuffers, name)
	} else {
		l.disabledBuffers[name] = true
	}
}

func (l *layerImpl) BufferEnabled(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.disabledBuffers[name]
}

func (l *layerImpl) Render(ctx *FrameContext, backend renderer.Backend, canvas common.Rect, now time.Time) {
	l.mu.Lock()
	enabled, layout, lights := l.enabled, l.layout, l.lights
	background, clearFlags := l.background, l.clearFlags
	l.mu.Unlock()

	if !enabled {
		return
	}

	vp := layout.Viewport(canvas)
	ctx.recordViewport(l, vp)
	if vp.Empty() {
		return
	}

	backend.Viewport(vp)
	backend.Scissor(vp)
	if clearFlags != 0 {
		backend.Clear(clearFlags, background)
	}

	// Slots are released even when a drawable panics.
	slots := 0
	defer func() {
		for i := 0; i < slots; i++ {
			backend.DisableLight(i)
		}
	}()
	for _, lt := range lights {
		if !lt.Enabled() {
			continue
		}
		backend.SetLight(slots, lt.State())
		slots++
	}

	pos := l.manager.CameraPosition(vp, now)
	backend.SetProjection(pos.ProjectionMatrix())
	backend.SetModelView(pos.ViewMatrix())

	l.world.Render(backend, now, l.BufferEnabled)
	ctx.recordCamera(l, pos)
}

func (l *layerImpl) Dispatch(ctx *EventContext, ev Event) bool {
	if ctx == nil {
		ctx = &EventContext{}
	}
	ctx.Layer = l
	for _, h := range l.Handlers() {
		if h.HandleEvent(ctx, ev) {
			return true
		}
	}
	return false
}
