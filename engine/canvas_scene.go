package engine

import (
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-view/engine/layer"
	"github.com/Carmen-Shannon/oxy-view/engine/scenefile"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
)

func (c *canvasImpl) SaveScene(w io.Writer, compress bool) error {
	width, height := c.Size()
	return scenefile.Write(w, scenefile.Scene{
		Width:  width,
		Height: height,
		Root:   &layer.Stack{Layers: c.Layers()},
	}, compress)
}

// LoadScene replaces every layer. The saved size is adopted only when no
// window is bound, since a window owns the canvas size.
func (c *canvasImpl) LoadScene(r io.Reader, reg *serial.Registry) error {
	scene, err := scenefile.Read(r, reg)
	if err != nil {
		return err
	}
	stack, ok := scene.Root.(*layer.Stack)
	if !ok {
		return fmt.Errorf("%w: scene root is %T, want layer stack", serial.ErrTypeMismatch, scene.Root)
	}

	for _, l := range c.Layers() {
		c.RemoveLayer(l)
	}
	for _, l := range stack.Layers {
		if c.addSceneControl {
			l.AddHandler(layer.NewCameraControl(c.sceneControls...))
		}
		c.AddLayer(l)
	}

	c.mu.Lock()
	bound := c.window != nil
	c.mu.Unlock()
	if !bound {
		c.SetSize(scene.Width, scene.Height)
	}
	c.RequestRedraw()
	return nil
}
