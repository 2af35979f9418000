package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitConversion(t *testing.T) {
	p := New(1.5, Bar)
	assert.InDelta(t, 1.5e5, p.MustIn(Pascal), 1e-9)
	assert.InDelta(t, 0.15, p.MustIn(MegaPascal), 1e-12)

	m := New(44.0962, GramPerMole)
	assert.InDelta(t, 0.0440962, m.MustIn(KilogramPerMole), 1e-12)
}

func TestConversionRejectsWrongDimension(t *testing.T) {
	p := New(1e5, Pascal)
	_, err := p.In(Kelvin)
	require.Error(t, err)
	assert.Panics(t, func() { p.MustIn(Kelvin) })
}

func TestArithmeticCombinesDimensions(t *testing.T) {
	// p V has the dimension of an energy
	pv := New(1e5, Pascal).Mul(New(2, CubicMeter))
	assert.InDelta(t, 2e5, pv.MustIn(Joule), 1e-9)

	// and dividing by moles gives a molar energy
	assert.InDelta(t, 1e5, pv.Div(New(2, Mole)).MustIn(JoulePerMole), 1e-9)
}

func TestAddPanicsOnMismatch(t *testing.T) {
	assert.Panics(t, func() {
		New(1, Kelvin).Add(New(1, Pascal))
	})
}

func TestAddSubScaleNeg(t *testing.T) {
	a := New(300, Kelvin)
	b := New(50, Kelvin)
	assert.InDelta(t, 350, a.Add(b).MustIn(Kelvin), 1e-12)
	assert.InDelta(t, 250, a.Sub(b).MustIn(Kelvin), 1e-12)
	assert.InDelta(t, 600, a.Scale(2).MustIn(Kelvin), 1e-12)
	assert.InDelta(t, -300, a.Neg().MustIn(Kelvin), 1e-12)
	assert.InDelta(t, 300, a.Neg().Abs().MustIn(Kelvin), 1e-12)
}

func TestVector(t *testing.T) {
	v := NewVector([]float64{1, 2, 3}, Mole)
	assert.Equal(t, 3, v.Len())
	assert.InDelta(t, 2.0, v.Get(1).MustIn(Mole), 1e-12)
	moles, err := v.In(Mole)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, moles)
	assert.InDelta(t, 6.0, v.Sum().MustIn(Mole), 1e-12)
}
