package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-view/engine/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateAppliesIntensity(t *testing.T) {
	l := NewLight(LightTypePoint,
		WithPosition(1, 2, 3),
		WithAmbient(0.1, 0.1, 0.1),
		WithDiffuse(0.5, 0.25, 1),
		WithIntensity(2),
	)
	s := l.State()
	assert.Equal(t, [4]float32{1, 2, 3, 1}, s.Position)
	assert.Equal(t, [3]float32{0.2, 0.2, 0.2}, s.Ambient)
	assert.Equal(t, [3]float32{1, 0.5, 2}, s.Diffuse)
	assert.Equal(t, [3]float32{2, 2, 2}, s.Specular)
}

func TestDirectionalLightHasZeroW(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(0, 0, 5))
	s := l.State()
	assert.Equal(t, [4]float32{0, 0, 1, 0}, s.Position)
}

func TestZeroDirectionDoesNotDivide(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(0, 0, 0))
	assert.Equal(t, [3]float32{0, 0, 0}, l.Position())
}

func TestLightRoundTrip(t *testing.T) {
	reg := serial.NewRegistry()
	RegisterTypes(reg)

	l := NewLight(LightTypeDirectional, WithColor(1, 0.5, 0), WithEnabled(false), WithPosition(0, 1, 0))
	data, err := serial.Marshal(l)
	require.NoError(t, err)

	obj, err := serial.Unmarshal(data, reg)
	require.NoError(t, err)
	got, ok := obj.(Light)
	require.True(t, ok)
	assert.Equal(t, LightTypeDirectional, got.Type())
	assert.Equal(t, l.State(), got.State())
	assert.False(t, got.Enabled())
}
