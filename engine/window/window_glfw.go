package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// pollInterval bounds how long ProcessMessages waits for platform events
// before calling the update callback again.
const pollInterval = 1.0 / 120

// glfwWindow is the GLFW side of a viewWindow.
type glfwWindow struct {
	window *glfw.Window
	closed bool
}

// openGLFW initializes GLFW and creates the window with its callbacks routed
// through w. The caller's goroutine must already be locked to its OS thread.
//
// Reference: https://www.glfw.org/docs/latest/window_guide.html
func openGLFW(w *viewWindow) (*glfwWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	// The backend owns the graphics context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create glfw window: %w", err)
	}
	win.SetSizeLimits(sizeLimit(w.minWidth), sizeLimit(w.minHeight), sizeLimit(w.maxWidth), sizeLimit(w.maxHeight))

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyUnknown {
			return
		}
		w.emit(w.input.key(int(key), action != glfw.Release, int(mods)))
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.emit(w.input.scroll(float32(yoff)))
	})
	win.SetMouseButtonCallback(func(gw *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		x, y := gw.GetCursorPos()
		w.input.cursor(float32(x), float32(y))
		w.emit(w.input.button(int(button), action == glfw.Press, int(mods)))
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.emit(w.input.cursor(float32(x), float32(y)))
	})

	// Canvas pixels follow the framebuffer, not the window's screen coordinates.
	win.SetFramebufferSizeCallback(func(gw *glfw.Window, width, height int) {
		syncScale(w, gw)
		w.resized(width, height)
	})
	win.SetSizeCallback(func(gw *glfw.Window, _, _ int) {
		syncScale(w, gw)
	})
	syncScale(w, win)
	fbw, fbh := win.GetFramebufferSize()
	w.width, w.height = fbw, fbh

	return &glfwWindow{window: win}, nil
}

// syncScale updates the cursor scale from the current window and framebuffer sizes.
func syncScale(w *viewWindow, gw *glfw.Window) {
	winW, winH := gw.GetSize()
	fbW, fbH := gw.GetFramebufferSize()
	w.input.resize(winW, winH, fbW, fbH)
}

func sizeLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) running() bool {
	return !g.closed && !g.window.ShouldClose()
}

func (g *glfwWindow) poll() {
	glfw.WaitEventsTimeout(pollInterval)
}

func (g *glfwWindow) destroy() {
	g.closed = true
	g.window.Destroy()
	glfw.Terminate()
}
