package layer

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/Carmen-Shannon/oxy-view/engine/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow    = time.Unix(5000, 0)
	testCanvas = common.Rect{Width: 200, Height: 100}
)

// dot draws a single point.
type dot struct{}

func (dot) Draw(b renderer.Backend) {
	b.DrawArrays(renderer.PrimitivePoints, 0, 1)
}

func fixedClock() time.Time { return testNow }

func testManager(options ...camera.ManagerBuilderOption) camera.Manager {
	return camera.NewManager(append([]camera.ManagerBuilderOption{camera.WithClock(fixedClock)}, options...)...)
}

func TestRenderCommandSequence(t *testing.T) {
	w := world.NewWorld(world.WithClock(fixedClock))
	b := w.Buffer("points")
	b.AddBack(dot{})
	b.Swap()

	l := NewLayer(w,
		WithCamera(testManager()),
		WithLights(
			light.NewLight(light.LightTypeDirectional),
			light.NewLight(light.LightTypePoint, light.WithEnabled(false)),
			light.NewLight(light.LightTypePoint),
		),
		WithBackground(common.ColorWhite),
	)

	rec := renderer.NewRecorder()
	ctx := NewFrameContext(testNow, testCanvas)
	l.Render(ctx, rec, testCanvas, testNow)

	assert.Equal(t, []renderer.Op{
		renderer.OpViewport,
		renderer.OpScissor,
		renderer.OpClear,
		renderer.OpSetLight,
		renderer.OpSetLight,
		renderer.OpProjection,
		renderer.OpModelView,
		renderer.OpDrawArrays,
		renderer.OpDisableLight,
		renderer.OpDisableLight,
	}, rec.Ops())

	cmds := rec.Commands()
	assert.Equal(t, testCanvas, cmds[0].Rect)
	assert.Equal(t, renderer.ClearColor|renderer.ClearDepth, cmds[2].Flags)
	assert.Equal(t, common.ColorWhite, cmds[2].Color)
	assert.Equal(t, 0, cmds[3].Slot)
	assert.Equal(t, 1, cmds[4].Slot)

	info, ok := ctx.Info(l)
	require.True(t, ok)
	assert.True(t, info.Rendered)
	assert.Equal(t, testCanvas, info.Viewport)
	assert.Equal(t, testCanvas, info.Camera.Viewport)
	assert.Equal(t, cmds[5].Matrix, info.Camera.ProjectionMatrix())
}

func TestRenderSkipsClearWithoutFlags(t *testing.T) {
	l := NewLayer(world.NewWorld(), WithCamera(testManager()), WithClearFlags(0))
	rec := renderer.NewRecorder()
	l.Render(NewFrameContext(testNow, testCanvas), rec, testCanvas, testNow)
	assert.NotContains(t, rec.Ops(), renderer.OpClear)
}

// faulty panics while drawing.
type faulty struct{}

func (faulty) Draw(renderer.Backend) { panic("bad geometry") }

func TestPanickingDrawableReleasesLightSlots(t *testing.T) {
	w := world.NewWorld(world.WithClock(fixedClock))
	b := w.Buffer("broken")
	b.AddBack(faulty{})
	b.Swap()

	l := NewLayer(w,
		WithCamera(testManager()),
		WithLights(light.NewLight(light.LightTypeDirectional), light.NewLight(light.LightTypePoint)),
	)
	rec := renderer.NewRecorder()
	assert.Panics(t, func() {
		l.Render(NewFrameContext(testNow, testCanvas), rec, testCanvas, testNow)
	})

	ops := rec.Ops()
	require.GreaterOrEqual(t, len(ops), 2)
	assert.Equal(t, []renderer.Op{renderer.OpDisableLight, renderer.OpDisableLight}, ops[len(ops)-2:])
}

func TestDisabledLayerDrawsNothing(t *testing.T) {
	l := NewLayer(world.NewWorld(), WithEnabled(false))
	rec := renderer.NewRecorder()
	ctx := NewFrameContext(testNow, testCanvas)
	l.Render(ctx, rec, testCanvas, testNow)

	assert.Empty(t, rec.Ops())
	_, ok := ctx.Info(l)
	assert.False(t, ok)
}

func TestEmptyViewportRecordsButDoesNotDraw(t *testing.T) {
	l := NewLayer(world.NewWorld(), WithLayout(&FractionLayout{Width: 0, Height: 1}))
	rec := renderer.NewRecorder()
	ctx := NewFrameContext(testNow, testCanvas)
	l.Render(ctx, rec, testCanvas, testNow)

	assert.Empty(t, rec.Ops())
	info, ok := ctx.Info(l)
	require.True(t, ok)
	assert.False(t, info.Rendered)
	assert.True(t, info.Viewport.Empty())
}

func TestLayerHidesDisabledBuffers(t *testing.T) {
	w := world.NewWorld(world.WithClock(fixedClock))
	for _, name := range []string{"a", "b"} {
		b := w.Buffer(name)
		b.AddBack(dot{})
		b.Swap()
	}
	l := NewLayer(w, WithCamera(testManager()))
	l.SetBufferEnabled("a", false)
	assert.False(t, l.BufferEnabled("a"))
	assert.True(t, l.BufferEnabled("b"))

	rec := renderer.NewRecorder()
	l.Render(NewFrameContext(testNow, testCanvas), rec, testCanvas, testNow)
	var draws int
	for _, op := range rec.Ops() {
		if op == renderer.OpDrawArrays {
			draws++
		}
	}
	assert.Equal(t, 1, draws)
}

func TestLayouts(t *testing.T) {
	canvas := common.Rect{X: 10, Y: 20, Width: 200, Height: 100}

	right := &FractionLayout{X: 0.5, Width: 0.5, Height: 1}
	assert.Equal(t, common.Rect{X: 110, Y: 20, Width: 100, Height: 100}, right.Viewport(canvas))

	inset := &FixedLayout{Rect: common.Rect{X: 150, Y: 50, Width: 100, Height: 100}}
	assert.Equal(t, common.Rect{X: 160, Y: 70, Width: 50, Height: 50}, inset.Viewport(canvas))

	outside := &FixedLayout{Rect: common.Rect{X: 500, Width: 10, Height: 10}}
	assert.True(t, outside.Viewport(canvas).Empty())
}

func TestHandlersRunInPriorityOrderUntilConsumed(t *testing.T) {
	var seen []string
	record := func(name string, consume bool) func(*EventContext, Event) bool {
		return func(*EventContext, Event) bool {
			seen = append(seen, name)
			return consume
		}
	}
	late := &HandlerFunc{Order: 5, Fn: record("late", false)}
	early := &HandlerFunc{Order: 1, Fn: record("early", false)}
	lateTwin := &HandlerFunc{Order: 5, Fn: record("late-twin", true)}
	never := &HandlerFunc{Order: 9, Fn: record("never", false)}

	l := NewLayer(world.NewWorld(), WithHandlers(late, early))
	l.AddHandler(never)
	l.AddHandler(lateTwin)

	ctx := &EventContext{}
	assert.True(t, l.Dispatch(ctx, Event{Type: EventMove}))
	assert.Equal(t, []string{"early", "late", "late-twin"}, seen)
	assert.Same(t, l, ctx.Layer)

	require.True(t, l.RemoveHandler(lateTwin))
	assert.False(t, l.RemoveHandler(lateTwin))
	seen = nil
	assert.False(t, l.Dispatch(ctx, Event{Type: EventMove}))
	assert.Equal(t, []string{"early", "late", "never"}, seen)
}

func TestPlaneManipulationPicksPlanePoint(t *testing.T) {
	pos := camera.NewCameraPosition(camera.WithEye(0, -8, 6)).WithViewport(testCanvas)
	target := mgl32.Vec3{3, 2, 1}
	win := pos.Project(target)

	got, ok := PlaneManipulation{Z: 1}.Pick(pos, win[0], win[1])
	require.True(t, ok)
	assert.InDelta(t, 3, got[0], 1e-2)
	assert.InDelta(t, 2, got[1], 1e-2)
	assert.InDelta(t, 1, got[2], 1e-4)
}

func TestPlaneManipulationFallsBackWhenParallel(t *testing.T) {
	pos := camera.NewCameraPosition(camera.WithEye(0, -10, 0), camera.WithUp(0, 0, 1)).WithViewport(testCanvas)
	got, ok := PlaneManipulation{Z: 5}.Pick(pos, 100, 50)
	require.True(t, ok)
	assert.InDelta(t, 0, got.Sub(pos.Lookat).Len(), 0.2)
}

func TestLayerRoundTrip(t *testing.T) {
	w := world.NewWorld()
	w.Buffer("grid").SetDrawOrder(2)
	m := camera.NewManager()
	m.LookAt(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, true)

	a := NewLayer(w, WithName("main"), WithCamera(m), WithDrawOrder(1),
		WithBackground(common.ColorWhite), WithClearFlags(renderer.ClearDepth),
		WithLights(light.NewLight(light.LightTypePoint, light.WithPosition(1, 1, 1))),
		WithLayout(&FractionLayout{Width: 0.5, Height: 1}))
	a.SetBufferEnabled("grid", false)
	overlay := NewLayer(w, WithName("overlay"), WithDrawOrder(2), WithLayout(&FixedLayout{Rect: common.Rect{Width: 64, Height: 64}}))

	reg := serial.NewRegistry()
	world.RegisterTypes(reg)
	camera.RegisterTypes(reg)
	light.RegisterTypes(reg)
	RegisterTypes(reg)

	data, err := serial.Marshal(&Stack{Layers: []Layer{a, overlay}})
	require.NoError(t, err)
	obj, err := serial.Unmarshal(data, reg)
	require.NoError(t, err)
	stack, ok := obj.(*Stack)
	require.True(t, ok)
	require.Len(t, stack.Layers, 2)

	got := stack.Layers[0]
	assert.Equal(t, "main", got.Name())
	assert.Equal(t, 1, got.DrawOrder())
	assert.Equal(t, common.ColorWhite, got.Background())
	assert.Equal(t, renderer.ClearDepth, got.ClearFlags())
	assert.Equal(t, &FractionLayout{Width: 0.5, Height: 1}, got.Layout())
	assert.False(t, got.BufferEnabled("grid"))
	require.Len(t, got.Lights(), 1)
	assert.Equal(t, [3]float32{1, 1, 1}, got.Lights()[0].Position())
	assert.InDelta(t, 0, got.Camera().Goal().Eye.Sub(mgl32.Vec3{1, 2, 3}).Len(), 1e-5)

	assert.Equal(t, "overlay", stack.Layers[1].Name())
	assert.Same(t, got.World(), stack.Layers[1].World(), "layers sharing a world still share it")
	order, set := got.World().Buffer("grid").DrawOrder()
	assert.True(t, set)
	assert.Equal(t, 2, order)
}
