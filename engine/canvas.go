package engine

import (
	"context"
	"image"
	"io"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/layer"
	"github.com/Carmen-Shannon/oxy-view/engine/profiler"
	"github.com/Carmen-Shannon/oxy-view/engine/recorder"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/Carmen-Shannon/oxy-view/engine/window"
	"github.com/Carmen-Shannon/oxy-view/engine/world"
)

// worldRef counts the layers sharing one World so its change listener is
// installed once and removed with the last layer.
type worldRef struct {
	count  int
	remove func()
}

// canvasImpl implements the Canvas interface.
type canvasImpl struct {
	mu *sync.Mutex

	scheduler     Scheduler
	ownsScheduler bool
	backend       renderer.Backend
	profiler      *profiler.Profiler
	clock         func() time.Time

	width, height int
	visible       bool

	// layers is copy-on-write, in insertion order.
	layers    []layer.Layer
	worldRefs map[world.World]*worldRef

	redrawTask *Task
	frame      atomic.Pointer[layer.FrameContext]
	pressLayer layer.Layer

	window window.Window
	movie  *recorder.MovieWriter

	screenshotPool    worker.DynamicWorkerPool
	screenshotWorkers int
	nextJobID         int

	initialLayers    []layer.Layer
	profilingEnabled bool
	sceneControls    []layer.CameraControlBuilderOption
	addSceneControl  bool
}

// Canvas owns an ordered set of layers drawn into one graphics backend. All
// drawing happens on its scheduler's render goroutine; every other method is
// safe to call from any goroutine.
type Canvas interface {
	// Scheduler returns the scheduler that runs this canvas's render tasks.
	//
	// Returns:
	//   - Scheduler: the scheduler
	Scheduler() Scheduler

	// AddLayer adds l. Layers draw in ascending draw order, ties in the order added.
	//
	// Parameters:
	//   - l: the layer
	AddLayer(l layer.Layer)

	// RemoveLayer removes l by identity.
	//
	// Parameters:
	//   - l: the layer
	//
	// Returns:
	//   - bool: true if l was present
	RemoveLayer(l layer.Layer) bool

	// Layers returns the layers in draw order.
	//
	// Returns:
	//   - []layer.Layer: the layers, bottom first
	Layers() []layer.Layer

	// SetSize sets the canvas size in pixels and requests a redraw.
	//
	// Parameters:
	//   - width, height: the size
	SetSize(width, height int)

	// Size returns the canvas size in pixels.
	//
	// Returns:
	//   - int: width
	//   - int: height
	Size() (int, int)

	// Rect returns the canvas rectangle at the origin.
	//
	// Returns:
	//   - common.Rect: the rectangle
	Rect() common.Rect

	// SetVisible starts or pauses the timed redraw cadence.
	//
	// Parameters:
	//   - visible: true while the canvas is on screen
	SetVisible(visible bool)

	// SetTargetFPS changes the timed redraw cadence.
	//
	// Parameters:
	//   - fps: frames per second; <= 0 redraws on request only
	SetTargetFPS(fps float64)

	// RequestRedraw schedules a frame. Repeated requests before the frame runs
	// collapse into one.
	RequestRedraw()

	// DrawSync schedules a frame and blocks until it has been drawn.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: the context's error, or ErrClosed
	DrawSync(ctx context.Context) error

	// LastFrame returns what each layer resolved in the most recent frame.
	//
	// Returns:
	//   - *layer.FrameContext: the frame, or nil before the first frame
	LastFrame() *layer.FrameContext

	// HandleEvent routes an input event in canvas coordinates (bottom-left origin).
	//
	// Parameters:
	//   - ev: the event
	//
	// Returns:
	//   - bool: true if a handler consumed it
	HandleEvent(ev layer.Event) bool

	// HandleWindowEvent routes an input event in window coordinates (top-left origin).
	//
	// Parameters:
	//   - ev: the event
	//
	// Returns:
	//   - bool: true if a handler consumed it
	HandleWindowEvent(ev layer.Event) bool

	// Screenshot draws a frame and reads it back.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - *image.RGBA: the pixels, row 0 at the top
	//   - error: error if read-back fails or ctx ends
	Screenshot(ctx context.Context) (*image.RGBA, error)

	// SaveScreenshot captures a frame and writes it as a PNG file without
	// blocking the caller. The channel receives exactly one result.
	//
	// Parameters:
	//   - ctx: bounds the capture
	//   - path: the destination file
	//
	// Returns:
	//   - <-chan error: receives nil on success
	SaveScreenshot(ctx context.Context, path string) <-chan error

	// StartMovie records every subsequent frame into w.
	//
	// Parameters:
	//   - w: the movie stream
	//
	// Returns:
	//   - error: error if a recording is already running
	StartMovie(w io.Writer) error

	// StopMovie ends the recording and flushes the stream.
	//
	// Returns:
	//   - error: the first write error of the recording
	StopMovie() error

	// SaveScene writes the canvas size and layers to w.
	//
	// Parameters:
	//   - w: the destination
	//   - compress: true to gzip the stream
	//
	// Returns:
	//   - error: error if encoding or writing fails
	SaveScene(w io.Writer, compress bool) error

	// LoadScene replaces the canvas layers with those read from r.
	//
	// Parameters:
	//   - r: the source
	//   - reg: registry used to resolve type tags
	//
	// Returns:
	//   - error: error if the stream is malformed
	LoadScene(r io.Reader, reg *serial.Registry) error

	// BindWindow sizes the canvas to w and routes its resize and input events here.
	//
	// Parameters:
	//   - w: the window
	BindWindow(w window.Window)

	// Close stops recording and, if the canvas created its scheduler, closes it.
	Close()
}

var _ Canvas = &canvasImpl{}

// NewCanvas creates a Canvas drawing into backend.
// Panics if backend is nil.
//
// Parameters:
//   - backend: the graphics backend; only the render goroutine touches it
//   - options: functional options for canvas configuration
//
// Returns:
//   - Canvas: the canvas
func NewCanvas(backend renderer.Backend, options ...CanvasBuilderOption) Canvas {
	if backend == nil {
		panic("engine: nil backend")
	}
	c := &canvasImpl{
		mu:                &sync.Mutex{},
		backend:           backend,
		clock:             time.Now,
		visible:           true,
		worldRefs:         make(map[world.World]*worldRef),
		screenshotWorkers: 2,
	}
	c.redrawTask = NewTask("redraw", c.draw)

	for _, opt := range options {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = NewScheduler()
		c.ownsScheduler = true
	}
	c.profiler = c.scheduler.Profiler()
	c.profiler.SetLogging(c.profilingEnabled)
	c.screenshotPool = worker.NewDynamicWorkerPool(c.screenshotWorkers, 16, time.Second)

	for _, l := range c.initialLayers {
		c.AddLayer(l)
	}
	c.initialLayers = nil
	if c.visible {
		c.scheduler.SetTimerTask(c.redrawTask)
	}
	return c
}

func (c *canvasImpl) Scheduler() Scheduler {
	return c.scheduler
}

func (c *canvasImpl) AddLayer(l layer.Layer) {
	if l == nil {
		return
	}
	c.mu.Lock()
	next := make([]layer.Layer, 0, len(c.layers)+1)
	next = append(next, c.layers...)
	c.layers = append(next, l)
	c.retainWorld(l.World())
	c.mu.Unlock()
	c.RequestRedraw()
}

func (c *canvasImpl) RemoveLayer(l layer.Layer) bool {
	c.mu.Lock()
	removed := false
	for i, cur := range c.layers {
		if cur == l {
			next := make([]layer.Layer, 0, len(c.layers)-1)
			next = append(next, c.layers[:i]...)
			c.layers = append(next, c.layers[i+1:]...)
			c.releaseWorld(l.World())
			if c.pressLayer == l {
				c.pressLayer = nil
			}
			removed = true
			break
		}
	}
	c.mu.Unlock()
	if removed {
		c.RequestRedraw()
	}
	return removed
}

// retainWorld must be called with c.mu held.
func (c *canvasImpl) retainWorld(w world.World) {
	if ref, ok := c.worldRefs[w]; ok {
		ref.count++
		return
	}
	c.worldRefs[w] = &worldRef{count: 1, remove: w.AddChangeListener(c.RequestRedraw)}
}

// releaseWorld must be called with c.mu held.
func (c *canvasImpl) releaseWorld(w world.World) {
	ref, ok := c.worldRefs[w]
	if !ok {
		return
	}
	ref.count--
	if ref.count == 0 {
		ref.remove()
		delete(c.worldRefs, w)
	}
}

func (c *canvasImpl) Layers() []layer.Layer {
	c.mu.Lock()
	layers := make([]layer.Layer, len(c.layers))
	copy(layers, c.layers)
	c.mu.Unlock()

	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].DrawOrder() < layers[j].DrawOrder()
	})
	return layers
}

func (c *canvasImpl) SetSize(width, height int) {
	c.mu.Lock()
	c.width, c.height = max(width, 0), max(height, 0)
	c.mu.Unlock()
	c.RequestRedraw()
}

func (c *canvasImpl) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *canvasImpl) Rect() common.Rect {
	w, h := c.Size()
	return common.Rect{Width: w, Height: h}
}

func (c *canvasImpl) SetVisible(visible bool) {
	c.mu.Lock()
	c.visible = visible
	c.mu.Unlock()
	if visible {
		c.scheduler.SetTimerTask(c.redrawTask)
		c.RequestRedraw()
	} else {
		c.scheduler.SetTimerTask(nil)
	}
}

func (c *canvasImpl) SetTargetFPS(fps float64) {
	c.scheduler.SetTargetFPS(fps)
}

func (c *canvasImpl) RequestRedraw() {
	// a full queue already holds work that will draw
	_ = c.scheduler.Enqueue(c.redrawTask)
}

func (c *canvasImpl) DrawSync(ctx context.Context) error {
	if err := c.scheduler.EnqueueWait(ctx, c.redrawTask); err != nil {
		return err
	}
	done := make(chan struct{})
	if err := c.scheduler.EnqueueWait(ctx, NewTask("draw-sync", func() { close(done) })); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.scheduler.Done():
		return ErrClosed
	}
}

func (c *canvasImpl) LastFrame() *layer.FrameContext {
	return c.frame.Load()
}

// draw renders one frame. It runs on the render goroutine.
func (c *canvasImpl) draw() {
	start := time.Now()
	now := c.clock()
	rect := c.Rect()
	fc := layer.NewFrameContext(now, rect)

	animating := false
	for _, l := range c.Layers() {
		l.Render(fc, c.backend, rect, now)
		if l.Enabled() && l.Camera().Animating(now) {
			animating = true
		}
	}
	if err := c.backend.Error(); err != nil {
		log.Printf("[Canvas] backend error: %v", err)
	}
	c.frame.Store(fc)
	c.captureMovieFrame(rect, now)
	c.profiler.RecordFrame(time.Since(start))

	// Without a timer cadence, camera animations drive their own frames.
	if animating && c.scheduler.TargetFPS() <= 0 {
		c.RequestRedraw()
	}
}

func (c *canvasImpl) BindWindow(w window.Window) {
	c.mu.Lock()
	c.window = w
	c.mu.Unlock()

	c.SetSize(w.Size())
	w.SetResizeCallback(c.SetSize)
	w.SetEventCallback(func(ev layer.Event) {
		c.HandleWindowEvent(ev)
	})
}

func (c *canvasImpl) Close() {
	if err := c.StopMovie(); err != nil {
		log.Printf("[Canvas] movie: %v", err)
	}
	c.scheduler.SetTimerTask(nil)
	if c.ownsScheduler {
		c.scheduler.Close()
	}
}
