package camera

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

const (
	defaultAnimation         = 500 * time.Millisecond
	defaultUIAnimation       = 0
	defaultBookmarkAnimation = 1500 * time.Millisecond

	// minFitExtent is the smallest rectangle side Fit2D will frame.
	minFitExtent = 1e-3
)

type fitRequest struct {
	min, max   mgl32.Vec2
	setDefault bool
}

// managerImpl is the implementation of the Manager interface.
type managerImpl struct {
	mu *sync.Mutex

	clock func() time.Time
	ease  ease.TweenFunc

	animation         time.Duration
	uiAnimation       time.Duration
	bookmarkAnimation time.Duration

	mode InterfaceMode

	// (time0, pos0) is the previous render, (time1, pos1) the goal.
	time0, time1 time.Time
	pos0, pos1   CameraPosition
	def          CameraPosition

	fit       *fitRequest
	bookmarks map[string]CameraPosition
}

var _ Manager = &managerImpl{}

// NewManager creates a camera Manager resting at its default position.
//
// Parameters:
//   - options: functional options to configure the manager
//
// Returns:
//   - Manager: the new manager
func NewManager(options ...ManagerBuilderOption) Manager {
	return newManager(options...)
}

func newManager(options ...ManagerBuilderOption) *managerImpl {
	m := &managerImpl{
		mu:                &sync.Mutex{},
		clock:             time.Now,
		ease:              ease.Linear,
		animation:         defaultAnimation,
		uiAnimation:       defaultUIAnimation,
		bookmarkAnimation: defaultBookmarkAnimation,
		mode:              Mode3D,
		def:               NewCameraPosition(),
		bookmarks:         make(map[string]CameraPosition),
	}
	for _, opt := range options {
		opt(m)
	}
	m.def = m.settle(m.def)
	m.reset(m.def)
	return m
}

// reset parks both keyframes at pos.
func (m *managerImpl) reset(pos CameraPosition) {
	now := m.clock()
	m.time0, m.time1 = now, now
	m.pos0, m.pos1 = pos, pos
}

func (m *managerImpl) CameraPosition(viewport common.Rect, now time.Time) CameraPosition {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fit != nil {
		m.resolveFit(viewport.Aspect(), now)
	}

	var out CameraPosition
	switch {
	case !now.Before(m.time1):
		out = m.pos1
	case !now.After(m.time0):
		out = m.pos0
	default:
		out = m.interpolate(now)
	}
	out.Viewport = viewport

	m.time0, m.pos0 = now, out
	return out
}

// interpolate blends the keyframes at now, which lies strictly inside the window.
// The eye is placed along the blended direction at the blended endpoint distance.
func (m *managerImpl) interpolate(now time.Time) CameraPosition {
	total := float32(m.time1.Sub(m.time0).Seconds())
	elapsed := float32(now.Sub(m.time0).Seconds())
	a := common.Clamp(m.ease(elapsed, 0, 1, total), 0, 1)

	p0, p1 := m.pos0, m.pos1
	lerp := func(x, y float32) float32 { return x*(1-a) + y*a }
	lerpV := func(x, y mgl32.Vec3) mgl32.Vec3 { return x.Mul(1 - a).Add(y.Mul(a)) }

	out := CameraPosition{
		Eye:             lerpV(p0.Eye, p1.Eye),
		Lookat:          lerpV(p0.Lookat, p1.Lookat),
		Up:              lerpV(p0.Up, p1.Up),
		Perspectiveness: lerp(p0.Perspectiveness, p1.Perspectiveness),
		FovyDegrees:     lerp(p0.FovyDegrees, p1.FovyDegrees),
		ZNear:           lerp(p0.ZNear, p1.ZNear),
		ZFar:            lerp(p0.ZFar, p1.ZFar),
		ScaleX:          lerp(p0.ScaleX, p1.ScaleX),
		ScaleY:          lerp(p0.ScaleY, p1.ScaleY),
	}

	dist := lerp(p0.Distance(), p1.Distance())
	dir := out.Eye.Sub(out.Lookat)
	if dir.Len() < epsilon {
		// endpoints on opposite sides of the lookat cancel out
		dir = p1.Eye.Sub(p1.Lookat)
	}
	if dir.Len() >= epsilon {
		out.Eye = out.Lookat.Add(dir.Normalize().Mul(dist))
	}
	if out.Up.Len() < epsilon {
		out.Up = p1.Up
	}
	return m.settle(out)
}

// settle applies the interface mode constraint and the distance clamp.
func (m *managerImpl) settle(p CameraPosition) CameraPosition {
	return clampDistance(constrain(p, m.mode))
}

func constrain(p CameraPosition, mode InterfaceMode) CameraPosition {
	switch mode {
	case Mode2D:
		p.Eye = p.Lookat.Add(mgl32.Vec3{0, 0, p.Distance()})
		p.Up = mgl32.Vec3{0, 1, 0}
	case Mode2DRotate:
		heading := p.Direction()
		p.Eye = p.Lookat.Add(mgl32.Vec3{0, 0, p.Distance()})
		p.Up = planarUp(p.Up, heading)
	case Mode25D:
		dir := p.Direction()
		left := mgl32.Vec3{0, 0, 1}.Cross(dir)
		if left.Len() < epsilon {
			p.Up = planarUp(p.Up, mgl32.Vec3{0, 1, 0})
		} else {
			p.Up = dir.Cross(left.Normalize()).Normalize()
		}
	}
	return p
}

// planarUp projects up into the XY plane, falling back to alt and then +Y.
func planarUp(up, alt mgl32.Vec3) mgl32.Vec3 {
	for _, v := range []mgl32.Vec3{up, alt} {
		flat := mgl32.Vec3{v[0], v[1], 0}
		if flat.Len() >= epsilon {
			return flat.Normalize()
		}
	}
	return mgl32.Vec3{0, 1, 0}
}

// clampDistance keeps the eye-to-lookat distance within [3*ZNear, ZFar/3].
func clampDistance(p CameraPosition) CameraPosition {
	lo, hi := 3*p.ZNear, p.ZFar/3
	if hi < lo {
		hi = lo
	}
	off := p.Eye.Sub(p.Lookat)
	d := off.Len()
	c := common.Clamp(d, lo, hi)
	if c == d {
		return p
	}
	var dir mgl32.Vec3
	if d < epsilon {
		dir = mgl32.Vec3{0, 0, 1}
		if p.Up.Cross(dir).Len() < epsilon {
			dir = mgl32.Vec3{0, -1, 0}
		}
	} else {
		dir = off.Mul(1 / d)
	}
	p.Eye = p.Lookat.Add(dir.Mul(c))
	return p
}

// installGoal makes pos the goal, reached d after now. The previous render
// keyframe is kept as the start of the new window.
func (m *managerImpl) installGoal(pos CameraPosition, now time.Time, d time.Duration) {
	m.pos1 = m.settle(pos)
	m.time0 = now
	m.time1 = now.Add(d)
}

func (m *managerImpl) resolveFit(aspect float32, now time.Time) {
	req := m.fit
	m.fit = nil

	w := math32.Max(math32.Abs(req.max[0]-req.min[0]), minFitExtent)
	h := math32.Max(math32.Abs(req.max[1]-req.min[1]), minFitExtent)
	center := req.min.Add(req.max).Mul(0.5)
	halfH := math32.Max(h/2, w/2/aspect)

	goal := m.pos1
	tanHalf := math32.Tan(mgl32.DegToRad(common.Clamp(goal.FovyDegrees, 1, 179)) / 2)
	want := halfH / tanHalf
	got := common.Clamp(want, 3*goal.ZNear, math32.Max(goal.ZFar/3, 3*goal.ZNear))
	scale := got / want

	goal.Lookat = mgl32.Vec3{center[0], center[1], 0}
	goal.Eye = goal.Lookat.Add(mgl32.Vec3{0, 0, got})
	goal.Up = mgl32.Vec3{0, 1, 0}
	goal.Perspectiveness = 0
	goal.ScaleX, goal.ScaleY = scale, scale

	m.installGoal(goal, now, m.animation)
	if req.setDefault {
		m.def = m.pos1
	}
}

func (m *managerImpl) LookAt(eye, lookat, up mgl32.Vec3, setDefault bool) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	goal := m.pos1
	goal.Eye, goal.Lookat, goal.Up = eye, lookat, up
	m.installGoal(goal, now, m.animation)
	if setDefault {
		m.def = m.pos1
	}
}

func (m *managerImpl) Rotate(q mgl32.Quat) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	goal := m.pos1
	goal.Eye = goal.Lookat.Add(q.Rotate(goal.Eye.Sub(goal.Lookat)))
	goal.Up = q.Rotate(goal.Up)
	m.installGoal(goal, now, m.uiAnimation)
}

func (m *managerImpl) Zoom(factor float32) {
	if factor <= 0 {
		return
	}
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	goal := m.pos1
	goal.Eye = goal.Lookat.Add(goal.Eye.Sub(goal.Lookat).Mul(1 / factor))
	m.installGoal(goal, now, m.uiAnimation)
}

func (m *managerImpl) Translate(delta mgl32.Vec3) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	goal := m.pos1
	goal.Eye = goal.Eye.Add(delta)
	goal.Lookat = goal.Lookat.Add(delta)
	m.installGoal(goal, now, m.uiAnimation)
}

func (m *managerImpl) GoBookmark(pos CameraPosition) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installGoal(pos, now, m.bookmarkAnimation)
}

func (m *managerImpl) GoUI(pos CameraPosition) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installGoal(pos, now, m.uiAnimation)
}

func (m *managerImpl) GoDefault() {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installGoal(m.def, now, m.animation)
}

func (m *managerImpl) Fit2D(min, max mgl32.Vec2, setDefault bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fit = &fitRequest{min: min, max: max, setDefault: setDefault}
}

func (m *managerImpl) SetInterfaceMode(mode InterfaceMode) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.installGoal(m.pos1, now, m.animation)
}

func (m *managerImpl) InterfaceMode() InterfaceMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *managerImpl) SetPerspectiveness(v float32) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	goal := m.pos1
	goal.Perspectiveness = common.Clamp(v, 0, 1)
	m.installGoal(goal, now, m.animation)
}

func (m *managerImpl) Goal() CameraPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos1
}

func (m *managerImpl) Current() CameraPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos0
}

func (m *managerImpl) Default() CameraPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.def
}

func (m *managerImpl) SetDefault(pos CameraPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.def = m.settle(pos)
}

func (m *managerImpl) Animating(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fit != nil || now.Before(m.time1)
}

func (m *managerImpl) SaveBookmark(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookmarks[name] = m.pos1
}

func (m *managerImpl) Bookmark(name string) (CameraPosition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bookmarks[name]
	return p, ok
}

func (m *managerImpl) Bookmarks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.bookmarks))
	for name := range m.bookmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *managerImpl) TypeTag() string { return TagManager }

// EncodeTo writes the interface mode, the default and goal positions, and the
// bookmarks in name order. Animation state is not written.
func (m *managerImpl) EncodeTo(w *serial.Writer) error {
	m.mu.Lock()
	mode, def, goal := m.mode, m.def, m.pos1
	names := make([]string, 0, len(m.bookmarks))
	for name := range m.bookmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	marks := make([]CameraPosition, len(names))
	for i, name := range names {
		marks[i] = m.bookmarks[name]
	}
	m.mu.Unlock()

	w.WriteInt32(int32(mode))
	if err := w.WriteObject(&def); err != nil {
		return err
	}
	if err := w.WriteObject(&goal); err != nil {
		return err
	}
	w.WriteInt32(int32(len(names)))
	for i, name := range names {
		w.WriteString(name)
		if err := w.WriteObject(&marks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *managerImpl) DecodeFrom(r *serial.Reader) error {
	mode := InterfaceMode(r.ReadInt32())
	if err := r.Err(); err != nil {
		return err
	}
	def, err := serial.ReadAs[*CameraPosition](r)
	if err != nil {
		return fmt.Errorf("camera: default position: %w", err)
	}
	goal, err := serial.ReadAs[*CameraPosition](r)
	if err != nil {
		return fmt.Errorf("camera: goal position: %w", err)
	}
	n := int(r.ReadInt32())
	if err := r.Err(); err != nil {
		return err
	}
	if n < 0 || n > r.Remaining() {
		return fmt.Errorf("camera: bookmark count %d: %w", n, serial.ErrMalformed)
	}
	marks := make(map[string]CameraPosition, n)
	for i := 0; i < n; i++ {
		name := r.ReadString()
		p, err := serial.ReadAs[*CameraPosition](r)
		if err != nil {
			return fmt.Errorf("camera: bookmark %q: %w", name, err)
		}
		if p != nil {
			marks[name] = *p
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.bookmarks = marks
	if def != nil {
		m.def = *def
	}
	if goal != nil {
		m.reset(*goal)
	} else {
		m.reset(m.def)
	}
	return nil
}
