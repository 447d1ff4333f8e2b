package layer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controlledLayer(options ...camera.ManagerBuilderOption) Layer {
	return NewLayer(world.NewWorld(), WithCamera(testManager(options...)), WithHandlers(NewCameraControl()))
}

// renderedContext renders l once and returns a dispatch context for the frame.
func renderedContext(t *testing.T, l Layer, redraws *int) *EventContext {
	t.Helper()
	fc := NewFrameContext(testNow, testCanvas)
	l.Render(fc, renderer.NewRecorder(), testCanvas, testNow)
	info, ok := fc.Info(l)
	require.True(t, ok)
	return &EventContext{Frame: info, Redraw: func() { *redraws++ }}
}

func press(button int, x, y float32) Event {
	return Event{Type: EventPress, Button: button, X: x, Y: y}
}

func drag(x, y float32, mods int) Event {
	return Event{Type: EventDrag, X: x, Y: y, Mods: mods}
}

func TestPanKeepsPickedPointUnderCursor(t *testing.T) {
	tilted := camera.NewCameraPosition(camera.WithEye(0, -8, 6))
	l := controlledLayer(camera.WithDefaultPosition(tilted))
	var redraws int
	ctx := renderedContext(t, l, &redraws)

	anchor, ok := PlaneManipulation{}.Pick(ctx.Frame.Camera, 120, 60)
	require.True(t, ok)

	require.True(t, l.Dispatch(ctx, press(common.MouseButtonLeft, 120, 60)))
	for _, p := range [][2]float32{{100, 50}, {80, 40}, {60, 30}} {
		require.True(t, l.Dispatch(ctx, drag(p[0], p[1], 0)))

		goal := l.Camera().Goal().WithViewport(testCanvas)
		win := goal.Project(anchor)
		assert.InDelta(t, p[0], win[0], 0.1)
		assert.InDelta(t, p[1], win[1], 0.1)
		assert.InDelta(t, tilted.Distance(), goal.Distance(), 1e-3, "pan does not zoom")
		assert.InDelta(t, 0, goal.Direction().Sub(tilted.Direction()).Len(), 1e-5, "pan does not rotate")
	}

	assert.True(t, l.Dispatch(ctx, Event{Type: EventRelease, Button: common.MouseButtonLeft}))
	assert.False(t, l.Dispatch(ctx, drag(10, 10, 0)), "drags after release are ignored")
	assert.Equal(t, 5, redraws)
}

func TestRotateConstraints(t *testing.T) {
	cases := []struct {
		name  string
		mods  int
		to    [2]float32
		check func(t *testing.T, goal camera.CameraPosition)
	}{
		{
			name: "yaw only",
			mods: common.ModControl,
			to:   [2]float32{110, 60},
			check: func(t *testing.T, goal camera.CameraPosition) {
				assert.InDelta(t, 0, goal.Eye[1], 1e-4)
				assert.InDelta(t, 0.998, abs32(goal.Eye[0]), 1e-3)
				assert.InDelta(t, 1, goal.Up[1], 1e-4)
			},
		},
		{
			name: "pitch only",
			mods: common.ModShift,
			to:   [2]float32{110, 60},
			check: func(t *testing.T, goal camera.CameraPosition) {
				assert.InDelta(t, 0, goal.Eye[0], 1e-4)
				assert.InDelta(t, 0.998, abs32(goal.Eye[1]), 1e-3)
			},
		},
		{
			name: "roll only",
			mods: common.ModControl | common.ModShift,
			to:   [2]float32{110, 50},
			check: func(t *testing.T, goal camera.CameraPosition) {
				assert.InDelta(t, 10, goal.Eye[2], 1e-4)
				assert.InDelta(t, 0.0998, abs32(goal.Up[0]), 1e-3)
				assert.InDelta(t, 0, goal.Up[2], 1e-4)
			},
		},
		{
			name: "free",
			mods: 0,
			to:   [2]float32{110, 60},
			check: func(t *testing.T, goal camera.CameraPosition) {
				assert.Greater(t, abs32(goal.Eye[0]), float32(0.5))
				assert.Greater(t, abs32(goal.Eye[1]), float32(0.5))
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := controlledLayer()
			var redraws int
			ctx := renderedContext(t, l, &redraws)

			require.True(t, l.Dispatch(ctx, press(common.MouseButtonRight, 100, 50)))
			require.True(t, l.Dispatch(ctx, drag(tc.to[0], tc.to[1], tc.mods)))

			goal := l.Camera().Goal()
			assert.InDelta(t, 10, goal.Distance(), 1e-3)
			tc.check(t, goal)
		})
	}
}

func TestWheelZooms(t *testing.T) {
	l := controlledLayer()
	var redraws int
	ctx := renderedContext(t, l, &redraws)

	require.True(t, l.Dispatch(ctx, Event{Type: EventWheel, X: 100, Y: 50, Wheel: 1}))
	assert.InDelta(t, 10/1.1, l.Camera().Goal().Distance(), 1e-4)
	assert.False(t, l.Dispatch(ctx, Event{Type: EventWheel, X: 100, Y: 50}))
	assert.Equal(t, 1, redraws)
}

func TestKeys(t *testing.T) {
	l := controlledLayer()
	var redraws int
	ctx := renderedContext(t, l, &redraws)
	key := func(k int) bool { return l.Dispatch(ctx, Event{Type: EventKeyPress, Key: k}) }

	require.True(t, key(common.KeyRight))
	assert.InDelta(t, 1, l.Camera().Goal().Lookat[0], 1e-4)

	require.True(t, key(common.KeyR))
	assert.InDelta(t, 0, l.Camera().Goal().Eye.Sub(l.Camera().Default().Eye).Len(), 1e-5)

	require.True(t, key(common.KeyP))
	assert.Equal(t, float32(0), l.Camera().Goal().Perspectiveness)
	require.True(t, key(common.KeyP))
	assert.Equal(t, float32(1), l.Camera().Goal().Perspectiveness)

	require.True(t, key(common.Key1))
	assert.Equal(t, camera.Mode2D, l.Camera().InterfaceMode())
	require.True(t, key(common.Key4))
	assert.Equal(t, camera.Mode3D, l.Camera().InterfaceMode())

	assert.False(t, key(common.KeyEsc), "escape without a drag is not consumed")
	assert.False(t, key('Z'))
	assert.False(t, l.Dispatch(ctx, Event{Type: EventKeyRelease, Key: common.KeyR}))
}

func TestEscapeCancelsDrag(t *testing.T) {
	l := controlledLayer()
	var redraws int
	ctx := renderedContext(t, l, &redraws)
	start := l.Camera().Goal()

	require.True(t, l.Dispatch(ctx, press(common.MouseButtonLeft, 100, 50)))
	require.True(t, l.Dispatch(ctx, drag(150, 80, 0)))
	require.NotEqual(t, start.Lookat, l.Camera().Goal().Lookat)

	require.True(t, l.Dispatch(ctx, Event{Type: EventKeyPress, Key: common.KeyEsc}))
	assert.InDelta(t, 0, l.Camera().Goal().Lookat.Sub(start.Lookat).Len(), 1e-5)
	assert.False(t, l.Dispatch(ctx, drag(160, 90, 0)))
}

func TestUnboundButtonsPassThrough(t *testing.T) {
	l := controlledLayer()
	var redraws int
	ctx := renderedContext(t, l, &redraws)

	assert.False(t, l.Dispatch(ctx, press(common.MouseButtonMiddle, 100, 50)))
	assert.False(t, l.Dispatch(ctx, Event{Type: EventRelease}))
	assert.False(t, l.Dispatch(ctx, Event{Type: EventMove, X: 1, Y: 1}))
	assert.Zero(t, redraws)
}

func TestPressWithoutViewportIsIgnored(t *testing.T) {
	l := controlledLayer()
	assert.False(t, l.Dispatch(&EventContext{}, press(common.MouseButtonLeft, 1, 1)))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
