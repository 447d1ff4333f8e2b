package window

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-view/engine/layer"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the thin platform adapter a canvas binds to. It reports the
// framebuffer size and forwards input in window coordinates (top-left origin).
type Window interface {
	// Size returns the framebuffer size in pixels. On high-DPI displays this
	// differs from the size requested with WithSize.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// SetResizeCallback sets the function called with the new framebuffer size.
	//
	// Parameters:
	//   - callback: function receiving width and height in pixels (nil to disable)
	SetResizeCallback(callback func(width, height int))

	// SetEventCallback sets the function receiving input events. Cursor motion
	// while a button is held is reported as a drag of that button.
	//
	// Parameters:
	//   - callback: function receiving each input event (nil to disable)
	SetEventCallback(callback func(ev layer.Event))

	// SetUpdateCallback sets the function called once per message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (nil to disable)
	SetUpdateCallback(callback func())

	// SurfaceDescriptor returns the platform surface for a GPU backend, or nil
	// once the window is closed.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Running reports whether the window is still open.
	Running() bool

	// ProcessMessages polls platform events until the window closes. It must
	// run on the goroutine that called NewWindow.
	ProcessMessages()

	// Close destroys the window.
	//
	// Returns:
	//   - error: if the window was already closed
	Close() error
}

// viewWindow holds the options and callbacks shared by the platform code.
type viewWindow struct {
	mu *sync.Mutex

	title               string
	width, height       int
	minWidth, minHeight int
	maxWidth, maxHeight int

	onResize func(width, height int)
	onEvent  func(ev layer.Event)
	onUpdate func()

	input    *inputState
	platform *glfwWindow
}

var _ Window = &viewWindow{}

// NewWindow opens a platform window and locks the calling goroutine to its
// OS thread, which must then run ProcessMessages. Panics if the platform
// cannot create a window.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &viewWindow{
		mu:        &sync.Mutex{},
		title:     "oxy-view",
		width:     1280,
		height:    720,
		minWidth:  200,
		minHeight: 150,
		input:     newInputState(time.Now),
	}
	for _, opt := range options {
		opt(w)
	}

	runtime.LockOSThread()
	p, err := openGLFW(w)
	if err != nil {
		panic(fmt.Sprintf("open window: %v", err))
	}
	w.platform = p
	return w
}

func (w *viewWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *viewWindow) SetResizeCallback(callback func(width, height int)) {
	w.mu.Lock()
	w.onResize = callback
	w.mu.Unlock()
}

func (w *viewWindow) SetEventCallback(callback func(ev layer.Event)) {
	w.mu.Lock()
	w.onEvent = callback
	w.mu.Unlock()
}

func (w *viewWindow) SetUpdateCallback(callback func()) {
	w.mu.Lock()
	w.onUpdate = callback
	w.mu.Unlock()
}

// resized stores the framebuffer size and notifies the resize callback.
func (w *viewWindow) resized(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	fn := w.onResize
	w.mu.Unlock()
	if fn != nil {
		fn(width, height)
	}
}

func (w *viewWindow) emit(ev layer.Event) {
	w.mu.Lock()
	fn := w.onEvent
	w.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (w *viewWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if !w.Running() {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *viewWindow) Running() bool {
	return w.platform != nil && w.platform.running()
}

func (w *viewWindow) ProcessMessages() {
	for w.Running() {
		w.platform.poll()

		w.mu.Lock()
		fn := w.onUpdate
		w.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}

func (w *viewWindow) Close() error {
	if w.platform == nil || w.platform.closed {
		return fmt.Errorf("window already closed")
	}
	w.platform.destroy()
	return nil
}
