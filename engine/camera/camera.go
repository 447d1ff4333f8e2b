package camera

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// TagPosition is the serialization tag written for camera positions.
const TagPosition = "camera.Position"

// epsilon is the length below which a vector is treated as zero.
const epsilon = 1e-6

// CameraPosition is a fully resolved camera for one render: where the eye is,
// what it looks at, how it is oriented and how it projects.
//
// CameraPosition is a value type; managers hand out copies.
type CameraPosition struct {
	Eye    mgl32.Vec3
	Lookat mgl32.Vec3
	Up     mgl32.Vec3

	// Perspectiveness blends the projection: 1 is a pure perspective projection,
	// 0 is the orthographic projection that matches it at the lookat distance.
	Perspectiveness float32

	FovyDegrees float32
	ZNear       float32
	ZFar        float32

	// ScaleX and ScaleY stretch the projected image about the viewport center.
	ScaleX float32
	ScaleY float32

	// Viewport is the pixel rectangle the position was resolved for.
	Viewport common.Rect
}

var _ serial.Encodable = &CameraPosition{}

// NewCameraPosition creates a CameraPosition with the default view (eye on +Z
// looking at the origin, +Y up, perspective) and any provided options applied.
//
// Parameters:
//   - options: functional options to configure the position
//
// Returns:
//   - CameraPosition: the new position
func NewCameraPosition(options ...CameraBuilderOption) CameraPosition {
	p := CameraPosition{
		Eye:             mgl32.Vec3{0, 0, 10},
		Lookat:          mgl32.Vec3{0, 0, 0},
		Up:              mgl32.Vec3{0, 1, 0},
		Perspectiveness: 1,
		FovyDegrees:     45,
		ZNear:           0.1,
		ZFar:            1000,
		ScaleX:          1,
		ScaleY:          1,
	}
	for _, opt := range options {
		opt(&p)
	}
	return p
}

// Distance returns the eye-to-lookat distance.
//
// Returns:
//   - float32: the distance
func (p CameraPosition) Distance() float32 {
	return p.Eye.Sub(p.Lookat).Len()
}

// Direction returns the unit view direction from eye to lookat, or -Z if the
// two coincide.
//
// Returns:
//   - mgl32.Vec3: the view direction
func (p CameraPosition) Direction() mgl32.Vec3 {
	d := p.Lookat.Sub(p.Eye)
	if d.Len() < epsilon {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// ViewMatrix returns the world-to-eye transform.
//
// Returns:
//   - mgl32.Mat4: the view matrix (column-major)
func (p CameraPosition) ViewMatrix() mgl32.Mat4 {
	dir := p.Direction()
	up := p.Up
	if up.Len() < epsilon || up.Cross(dir).Len() < epsilon {
		up = fallbackUp(dir)
	}
	// Orthonormalize so a tilted up vector still yields a rigid transform.
	right := dir.Cross(up).Normalize()
	up = right.Cross(dir)
	return mgl32.LookAtV(p.Eye, p.Eye.Add(dir), up)
}

// ProjectionMatrix returns the eye-to-clip transform for the position's viewport.
// The perspective projection and its matched orthographic projection are blended
// by Perspectiveness, then scaled by ScaleX and ScaleY.
//
// Returns:
//   - mgl32.Mat4: the projection matrix (column-major)
func (p CameraPosition) ProjectionMatrix() mgl32.Mat4 {
	return p.projection(p.Viewport.Aspect())
}

func (p CameraPosition) projection(aspect float32) mgl32.Mat4 {
	fovy := mgl32.DegToRad(common.Clamp(p.FovyDegrees, 1, 179))
	near, far := p.ZNear, p.ZFar
	if near <= 0 {
		near = 0.1
	}
	if far <= near {
		far = near * 1000
	}

	persp := mgl32.Perspective(fovy, aspect, near, far)

	halfH := math32.Max(p.Distance(), near) * math32.Tan(fovy/2)
	halfW := halfH * aspect
	ortho := mgl32.Ortho(-halfW, halfW, -halfH, halfH, near, far)

	t := common.Clamp(p.Perspectiveness, 0, 1)
	out := ortho.Mul(1 - t).Add(persp.Mul(t))

	sx, sy := common.Coalesce(p.ScaleX, 1), common.Coalesce(p.ScaleY, 1)
	if sx != 1 || sy != 1 {
		out = mgl32.Scale3D(sx, sy, 1).Mul4(out)
	}
	return out
}

// Project maps a world-space point to window coordinates in the position's
// viewport: x and y in render-context pixels (bottom-left origin), z in [0, 1].
//
// Parameters:
//   - obj: the world-space point
//
// Returns:
//   - mgl32.Vec3: window coordinates
func (p CameraPosition) Project(obj mgl32.Vec3) mgl32.Vec3 {
	vp := p.Viewport
	return mgl32.Project(obj, p.ViewMatrix(), p.ProjectionMatrix(), vp.X, vp.Y, vp.Width, vp.Height)
}

// ComputeRay returns the pick ray through a window point. The ray starts on the
// near plane and points away from the eye.
//
// Parameters:
//   - x, y: window coordinates in render-context pixels (bottom-left origin)
//
// Returns:
//   - origin: ray origin on the near plane
//   - dir: unit ray direction
//   - err: error if the projection cannot be inverted
func (p CameraPosition) ComputeRay(x, y float32) (origin, dir mgl32.Vec3, err error) {
	vp := p.Viewport
	if vp.Empty() {
		return origin, dir, fmt.Errorf("camera: ray in empty viewport %s", vp)
	}
	view, proj := p.ViewMatrix(), p.ProjectionMatrix()
	near, err := mgl32.UnProject(mgl32.Vec3{x, y, 0}, view, proj, vp.X, vp.Y, vp.Width, vp.Height)
	if err != nil {
		return origin, dir, fmt.Errorf("camera: unproject near point: %w", err)
	}
	// mid-depth keeps the second point well conditioned for wide clip ranges
	mid, err := mgl32.UnProject(mgl32.Vec3{x, y, 0.5}, view, proj, vp.X, vp.Y, vp.Width, vp.Height)
	if err != nil {
		return origin, dir, fmt.Errorf("camera: unproject mid point: %w", err)
	}
	d := mid.Sub(near)
	if d.Len() < epsilon {
		return origin, dir, fmt.Errorf("camera: degenerate ray at (%g, %g)", x, y)
	}
	return near, d.Normalize(), nil
}

// WithViewport returns a copy of p resolved for viewport.
//
// Parameters:
//   - viewport: the pixel rectangle
//
// Returns:
//   - CameraPosition: the copy
func (p CameraPosition) WithViewport(viewport common.Rect) CameraPosition {
	p.Viewport = viewport
	return p
}

// String returns a short description of the eye and lookat.
func (p CameraPosition) String() string {
	return fmt.Sprintf("eye=%v lookat=%v up=%v persp=%.2f", p.Eye, p.Lookat, p.Up, p.Perspectiveness)
}

func (p *CameraPosition) TypeTag() string { return TagPosition }

func (p *CameraPosition) EncodeTo(w *serial.Writer) error {
	for _, v := range []mgl32.Vec3{p.Eye, p.Lookat, p.Up} {
		w.WriteFloat32s(v[:])
	}
	w.WriteFloat32(p.Perspectiveness)
	w.WriteFloat32(p.FovyDegrees)
	w.WriteFloat32(p.ZNear)
	w.WriteFloat32(p.ZFar)
	w.WriteFloat32(p.ScaleX)
	w.WriteFloat32(p.ScaleY)
	return nil
}

func (p *CameraPosition) DecodeFrom(r *serial.Reader) error {
	for _, dst := range []*mgl32.Vec3{&p.Eye, &p.Lookat, &p.Up} {
		v := r.ReadFloat32s()
		if err := r.Err(); err != nil {
			return err
		}
		if len(v) != 3 {
			return fmt.Errorf("camera: vector of length %d: %w", len(v), serial.ErrMalformed)
		}
		copy(dst[:], v)
	}
	p.Perspectiveness = r.ReadFloat32()
	p.FovyDegrees = r.ReadFloat32()
	p.ZNear = r.ReadFloat32()
	p.ZFar = r.ReadFloat32()
	p.ScaleX = r.ReadFloat32()
	p.ScaleY = r.ReadFloat32()
	return r.Err()
}

// fallbackUp picks an up vector that is not parallel to dir.
func fallbackUp(dir mgl32.Vec3) mgl32.Vec3 {
	if math32.Abs(dir.Dot(mgl32.Vec3{0, 1, 0})) < 0.99 {
		return mgl32.Vec3{0, 1, 0}
	}
	return mgl32.Vec3{0, 0, 1}
}
