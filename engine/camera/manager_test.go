package camera

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

var testViewport = common.Rect{Width: 200, Height: 100}

var t0 = time.Unix(5000, 0)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

// twoKeyframes returns a manager resting at from with a goal of to, reached
// over [t0, t0+1s].
func twoKeyframes(from, to CameraPosition, options ...ManagerBuilderOption) *managerImpl {
	clock := &fakeClock{now: t0}
	opts := append([]ManagerBuilderOption{
		WithClock(clock.Now),
		WithDefaultPosition(from),
		WithAnimation(time.Second),
	}, options...)
	m := newManager(opts...)
	m.LookAt(to.Eye, to.Lookat, to.Up, false)
	return m
}

func assertVecInDelta(t *testing.T, want, got mgl32.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, msgAndArgs...)
	}
}

func TestHalfwayDistanceScenario(t *testing.T) {
	m := twoKeyframes(NewCameraPosition(WithEye(0, 0, 10)), NewCameraPosition(WithEye(0, 0, 20)))

	p := m.CameraPosition(testViewport, at(500))
	assert.InDelta(t, 15, p.Distance(), 1e-4)
	assertVecInDelta(t, mgl32.Vec3{0, 0, 15}, p.Eye, 1e-4)
	assert.Equal(t, testViewport, p.Viewport)
}

func TestKeyframeBoundariesAreExact(t *testing.T) {
	from := NewCameraPosition(WithEye(3, -7, 10), WithLookat(1, 1, 0), WithUp(0, 0, 1))
	to := NewCameraPosition(WithEye(-20, 4, 6), WithLookat(2, 0, 1), WithUp(0, 1, 0))

	m := twoKeyframes(from, to)
	assert.Equal(t, from.WithViewport(testViewport), m.CameraPosition(testViewport, at(0)))

	m = twoKeyframes(from, to)
	assert.Equal(t, to.WithViewport(testViewport), m.CameraPosition(testViewport, at(1000)))

	m = twoKeyframes(from, to)
	assert.Equal(t, to.WithViewport(testViewport), m.CameraPosition(testViewport, at(5000)))
}

func TestInterpolatedDistanceIsConvex(t *testing.T) {
	from := NewCameraPosition(WithEye(0, 0, 10))
	to := NewCameraPosition(WithEye(20, 0, 5))
	d0, d1 := from.Distance(), to.Distance()

	for _, ms := range []int{1, 100, 250, 500, 750, 999} {
		m := twoKeyframes(from, to)
		p := m.CameraPosition(testViewport, at(ms))
		a := float32(ms) / 1000
		assert.InDelta(t, d0*(1-a)+d1*a, p.Distance(), 1e-3, "t=%dms", ms)
		assert.GreaterOrEqual(t, p.Distance(), math32.Min(d0, d1))
		assert.LessOrEqual(t, p.Distance(), math32.Max(d0, d1))
	}

	// a naive component blend would pull the eye in to 12.5
	m := twoKeyframes(from, to)
	p := m.CameraPosition(testViewport, at(500))
	naive := from.Eye.Add(to.Eye).Mul(0.5).Len()
	assert.Greater(t, p.Distance()-naive, float32(2))
}

func TestEaseKeepsBoundaries(t *testing.T) {
	from := NewCameraPosition(WithEye(0, 0, 10))
	to := NewCameraPosition(WithEye(0, 0, 20))

	m := twoKeyframes(from, to, WithEase(ease.InOutQuad))
	assert.InDelta(t, 15, m.CameraPosition(testViewport, at(500)).Distance(), 1e-4)

	m = twoKeyframes(from, to, WithEase(ease.InOutQuad))
	assert.Less(t, m.CameraPosition(testViewport, at(250)).Distance(), float32(12.5))

	m = twoKeyframes(from, to, WithEase(ease.InOutQuad))
	assert.Equal(t, to.WithViewport(testViewport), m.CameraPosition(testViewport, at(1000)))
}

func TestRetargetBlendsFromLastRender(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(
		WithClock(clock.Now),
		WithDefaultPosition(NewCameraPosition(WithEye(0, 0, 10))),
		WithAnimation(time.Second),
	)
	m.LookAt(mgl32.Vec3{0, 0, 20}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, false)
	mid := m.CameraPosition(testViewport, at(500))
	require.InDelta(t, 15, mid.Distance(), 1e-4)

	clock.now = at(500)
	m.LookAt(mgl32.Vec3{0, 0, 40}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, false)

	assert.Equal(t, mid, m.CameraPosition(testViewport, at(500)))
	assert.InDelta(t, 27.5, m.CameraPosition(testViewport, at(1000)).Distance(), 1e-3)
	assert.InDelta(t, 40, m.CameraPosition(testViewport, at(1500)).Distance(), 1e-4)
}

func TestMode2DForcesTopDown(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now), WithInterfaceMode(Mode2D), WithAnimation(0))
	m.LookAt(mgl32.Vec3{5, -5, 5}, mgl32.Vec3{1, 2, 0}, mgl32.Vec3{1, 0, 0}, false)

	p := m.CameraPosition(testViewport, at(0))
	assertVecInDelta(t, mgl32.Vec3{1, 2, 0}, p.Lookat, 1e-5)
	assert.InDelta(t, 1, p.Eye[0], 1e-5)
	assert.InDelta(t, 2, p.Eye[1], 1e-5)
	assert.InDelta(t, math32.Sqrt(90), p.Eye[2], 1e-4)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, p.Up)
}

func TestMode2DRotateKeepsPlanarUp(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now), WithInterfaceMode(Mode2DRotate), WithAnimation(0))
	m.LookAt(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 3}, false)

	p := m.CameraPosition(testViewport, at(0))
	assertVecInDelta(t, mgl32.Vec3{0, 0, 10}, p.Eye, 1e-5)
	assertVecInDelta(t, mgl32.Vec3{math32.Sqrt2 / 2, math32.Sqrt2 / 2, 0}, p.Up, 1e-5)
}

func TestMode25DLevelsHorizon(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now), WithInterfaceMode(Mode25D), WithAnimation(0))
	m.LookAt(mgl32.Vec3{0, -10, 10}, mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, false)

	p := m.CameraPosition(testViewport, at(0))
	assertVecInDelta(t, mgl32.Vec3{0, -10, 10}, p.Eye, 1e-5)
	assertVecInDelta(t, mgl32.Vec3{0, math32.Sqrt2 / 2, math32.Sqrt2 / 2}, p.Up, 1e-5)
	assert.InDelta(t, 0, p.Up.Dot(p.Direction()), 1e-5)
}

func TestDistanceIsClamped(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now), WithAnimation(0),
		WithDefaultPosition(NewCameraPosition(WithClip(0.1, 300))))

	m.LookAt(mgl32.Vec3{0, 0, 0.01}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, false)
	assert.InDelta(t, 0.3, m.CameraPosition(testViewport, at(0)).Distance(), 1e-5)

	m.LookAt(mgl32.Vec3{0, 0, 5000}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, false)
	assert.InDelta(t, 100, m.CameraPosition(testViewport, at(0)).Distance(), 1e-3)

	// coincident eye and lookat
	m.LookAt(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 1, 0}, false)
	p := m.CameraPosition(testViewport, at(0))
	assert.InDelta(t, 0.3, p.Distance(), 1e-5)
	assertVecInDelta(t, mgl32.Vec3{1, 1, 1.3}, p.Eye, 1e-5)
}

func TestFit2DFramesRectangle(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now), WithAnimation(0))
	m.Fit2D(mgl32.Vec2{0, 0}, mgl32.Vec2{4, 2}, true)
	assert.True(t, m.Animating(at(0)))

	p := m.CameraPosition(testViewport, at(0))
	assert.Equal(t, float32(0), p.Perspectiveness)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, p.Up)
	assertVecInDelta(t, mgl32.Vec3{2, 1, 0}, p.Lookat, 1e-5)

	lowerLeft := p.Project(mgl32.Vec3{0, 0, 0})
	upperRight := p.Project(mgl32.Vec3{4, 2, 0})
	assert.InDelta(t, 0, lowerLeft[0], 1e-2)
	assert.InDelta(t, 0, lowerLeft[1], 1e-2)
	assert.InDelta(t, 200, upperRight[0], 1e-2)
	assert.InDelta(t, 100, upperRight[1], 1e-2)

	assert.Equal(t, m.Goal(), m.Default())
}

func TestFit2DDegenerateRectangle(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now), WithAnimation(0))
	m.Fit2D(mgl32.Vec2{3, 3}, mgl32.Vec2{3, 3}, false)

	p := m.CameraPosition(testViewport, at(0))
	assert.False(t, math32.IsNaN(p.Eye[2]))
	assert.False(t, math32.IsInf(p.ScaleX, 0))
	assert.Greater(t, p.ScaleX, float32(0))
	assertVecInDelta(t, mgl32.Vec3{3, 3, 0}, p.Lookat, 1e-5)
}

func TestRotateAccumulatesOnGoal(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now))
	q := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{1, 0, 0})

	m.Rotate(q)
	assertVecInDelta(t, mgl32.Vec3{0, -10, 0}, m.Goal().Eye, 1e-4)
	m.Rotate(q)
	assertVecInDelta(t, mgl32.Vec3{0, 0, -10}, m.Goal().Eye, 1e-4)
	assertVecInDelta(t, mgl32.Vec3{0, -1, 0}, m.Goal().Up, 1e-4)
}

func TestZoomAndTranslate(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now))

	m.Zoom(2)
	assert.InDelta(t, 5, m.Goal().Distance(), 1e-5)
	m.Zoom(0)
	m.Zoom(-1)
	assert.InDelta(t, 5, m.Goal().Distance(), 1e-5)

	m.Translate(mgl32.Vec3{1, 2, 3})
	assertVecInDelta(t, mgl32.Vec3{1, 2, 3}, m.Goal().Lookat, 1e-5)
	assertVecInDelta(t, mgl32.Vec3{1, 2, 8}, m.Goal().Eye, 1e-5)

	// the interactive window is zero by default
	assert.Equal(t, m.Goal().WithViewport(testViewport), m.CameraPosition(testViewport, at(0)))
}

func TestBookmarksAndDefault(t *testing.T) {
	clock := &fakeClock{now: t0}
	m := newManager(WithClock(clock.Now), WithBookmarkAnimation(2*time.Second))
	home := m.Default()

	m.LookAt(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, false)
	m.SaveBookmark("corner")
	m.GoDefault()
	assert.Equal(t, home, m.Goal())

	mark, ok := m.Bookmark("corner")
	require.True(t, ok)
	_, ok = m.Bookmark("missing")
	assert.False(t, ok)

	m.GoBookmark(mark)
	assert.True(t, m.Animating(at(1999)))
	assert.False(t, m.Animating(at(2000)))
	assert.Equal(t, []string{"corner"}, m.Bookmarks())
}

func TestSetPerspectivenessClamps(t *testing.T) {
	m := newManager()
	m.SetPerspectiveness(3)
	assert.Equal(t, float32(1), m.Goal().Perspectiveness)
	m.SetPerspectiveness(-1)
	assert.Equal(t, float32(0), m.Goal().Perspectiveness)
}

func TestManagerRoundTrip(t *testing.T) {
	m := newManager(WithInterfaceMode(Mode25D))
	m.LookAt(mgl32.Vec3{0, -10, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, true)
	m.SaveBookmark("a")
	m.Zoom(2)
	m.SaveBookmark("b")

	reg := serial.NewRegistry()
	RegisterTypes(reg)
	data, err := serial.Marshal(m)
	require.NoError(t, err)
	obj, err := serial.Unmarshal(data, reg)
	require.NoError(t, err)

	got, ok := obj.(Manager)
	require.True(t, ok)
	assert.Equal(t, Mode25D, got.InterfaceMode())
	assert.Equal(t, m.Default(), got.Default())
	assert.Equal(t, m.Goal(), got.Goal())
	assert.Equal(t, []string{"a", "b"}, got.Bookmarks())
	b, _ := got.Bookmark("b")
	want, _ := m.Bookmark("b")
	assert.Equal(t, want, b)
}
