package light

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/serial"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// The light arrives from Position treated as a direction toward the light.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	LightTypePoint
)

// TagLight is the serialization tag written for lights.
const TagLight = "light.Light"

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	lightType LightType
	position  [3]float32
	ambient   [3]float32
	diffuse   [3]float32
	specular  [3]float32
	intensity float32
	enabled   bool
}

// Light defines the interface for a fixed-function light source installed by a layer.
//
// A layer installs its enabled lights into consecutive backend light slots before
// drawing its world, and disables the slot after the last one. Lights may be
// shared between layers and changed from any goroutine; changes apply from the
// next rendered frame.
type Light interface {
	serial.Encodable

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional or point)
	Type() LightType

	// Position returns the world-space position of a point light, or the direction
	// toward a directional light.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Ambient returns the ambient color term.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Ambient() [3]float32

	// Diffuse returns the diffuse color term.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Diffuse() [3]float32

	// Specular returns the specular color term.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Specular() [3]float32

	// Intensity returns the scalar multiplier applied to all three color terms.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Enabled returns whether this light is installed during rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// State returns the backend description of this light with intensity applied.
	//
	// Returns:
	//   - renderer.LightState: the slot contents
	State() renderer.LightState

	// SetPosition sets the position (point) or direction toward the light (directional).
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetAmbient sets the ambient color term.
	//
	// Parameters:
	//   - r, g, b: color components
	SetAmbient(r, g, b float32)

	// SetDiffuse sets the diffuse color term.
	//
	// Parameters:
	//   - r, g, b: color components
	SetDiffuse(r, g, b float32)

	// SetSpecular sets the specular color term.
	//
	// Parameters:
	//   - r, g, b: color components
	SetSpecular(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional or point)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		lightType: lightType,
		position:  [3]float32{0, 0, 1},
		ambient:   [3]float32{0.2, 0.2, 0.2},
		diffuse:   [3]float32{0.8, 0.8, 0.8},
		specular:  [3]float32{1, 1, 1},
		intensity: 1.0,
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RegisterTypes registers the light factory with reg.
//
// Parameters:
//   - reg: the registry to populate
func RegisterTypes(reg *serial.Registry) {
	reg.Register(TagLight, func() serial.Object { return NewLight(LightTypePoint) })
}

func (l *lightImpl) Type() LightType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Ambient() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ambient
}

func (l *lightImpl) Diffuse() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.diffuse
}

func (l *lightImpl) Specular() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.specular
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) State() renderer.LightState {
	l.mu.Lock()
	defer l.mu.Unlock()

	var w float32 = 1
	if l.lightType == LightTypeDirectional {
		w = 0
	}
	return renderer.LightState{
		Position: [4]float32{l.position[0], l.position[1], l.position[2], w},
		Ambient:  scale3(l.ambient, l.intensity),
		Diffuse:  scale3(l.diffuse, l.intensity),
		Specular: scale3(l.specular, l.intensity),
	}
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetAmbient(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ambient = [3]float32{r, g, b}
}

func (l *lightImpl) SetDiffuse(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.diffuse = [3]float32{r, g, b}
}

func (l *lightImpl) SetSpecular(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specular = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) TypeTag() string { return TagLight }

func (l *lightImpl) EncodeTo(w *serial.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	w.WriteInt32(int32(l.lightType))
	for _, v := range [][3]float32{l.position, l.ambient, l.diffuse, l.specular} {
		w.WriteFloat32s(v[:])
	}
	w.WriteFloat32(l.intensity)
	w.WriteBool(l.enabled)
	return nil
}

func (l *lightImpl) DecodeFrom(r *serial.Reader) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lightType = LightType(r.ReadInt32())
	for _, dst := range []*[3]float32{&l.position, &l.ambient, &l.diffuse, &l.specular} {
		v := r.ReadFloat32s()
		if r.Err() != nil {
			return r.Err()
		}
		if len(v) != 3 {
			return fmt.Errorf("light: vector of length %d: %w", len(v), serial.ErrMalformed)
		}
		copy(dst[:], v)
	}
	l.intensity = r.ReadFloat32()
	l.enabled = r.ReadBool()
	return r.Err()
}

func scale3(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}
