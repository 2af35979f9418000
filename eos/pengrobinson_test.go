package eos

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eoscalc/quantity"
)

func propane(t *testing.T) *PengRobinson {
	t.Helper()
	params, err := NewPengRobinsonSimple(
		[]float64{369.96}, []float64{4.25e6}, []float64{0.153}, []float64{44.0962})
	require.NoError(t, err)
	return NewPengRobinson(params)
}

func propaneButane(t *testing.T) *PengRobinson {
	t.Helper()
	params, err := NewPengRobinsonSimple(
		[]float64{369.96, 425.2},
		[]float64{4.25e6, 3.8e6},
		[]float64{0.153, 0.199},
		[]float64{44.0962, 58.123})
	require.NoError(t, err)
	return NewPengRobinson(params)
}

func TestPressureMatchesFiniteDifference(t *testing.T) {
	e := propaneButane(t)
	s, err := newStateNVT(e, 350, 0.01, []float64{0.6, 0.4})
	require.NoError(t, err)

	h := 1e-7 * s.v
	plus, err := newStateNVT(e, s.t, s.v+h, s.moles)
	require.NoError(t, err)
	minus, err := newStateNVT(e, s.t, s.v-h, s.moles)
	require.NoError(t, err)
	fd := -(plus.a0(Total) - minus.a0(Total)) / (2 * h)

	p := s.pressureSI(Total)
	assert.InEpsilon(t, fd, p, 1e-6)
}

func TestEntropyMatchesFiniteDifference(t *testing.T) {
	e := propaneButane(t)
	s, err := newStateNVT(e, 350, 0.01, []float64{0.6, 0.4})
	require.NoError(t, err)

	h := 1e-6 * s.t
	plus, err := newStateNVT(e, s.t+h, s.v, s.moles)
	require.NoError(t, err)
	minus, err := newStateNVT(e, s.t-h, s.v, s.moles)
	require.NoError(t, err)
	fd := -(plus.a0(Total) - minus.a0(Total)) / (2 * h)

	assert.InEpsilon(t, fd, s.entropySI(Total), 1e-5)
}

func TestChemicalPotentialMatchesFiniteDifference(t *testing.T) {
	e := propaneButane(t)
	s, err := newStateNVT(e, 350, 0.01, []float64{0.6, 0.4})
	require.NoError(t, err)

	h := 1e-7
	for i := 0; i < 2; i++ {
		up := append([]float64(nil), s.moles...)
		down := append([]float64(nil), s.moles...)
		up[i] += h
		down[i] -= h
		plus, err := newStateNVT(e, s.t, s.v, up)
		require.NoError(t, err)
		minus, err := newStateNVT(e, s.t, s.v, down)
		require.NoError(t, err)
		fd := (plus.a0(Total) - minus.a0(Total)) / (2 * h)
		assert.InEpsilon(t, fd, s.muSI(Total, i), 1e-5)
	}
}

func TestPropaneVaporDensity(t *testing.T) {
	e := propane(t)
	s, err := NewStateTP(e,
		quantity.New(300, quantity.Kelvin),
		quantity.New(1, quantity.Bar),
		quantity.NewVector([]float64{1}, quantity.Mole),
		InitVapor)
	require.NoError(t, err)

	rho := s.Density().MustIn(quantity.MolPerCubicMeter)
	assert.InDelta(t, 40.76, rho, 0.25)

	z, err := s.CompressibilityFactor()
	require.NoError(t, err)
	assert.Less(t, z, 1.0)
	assert.Greater(t, z, 0.95)
}

func TestEulerRelation(t *testing.T) {
	// G = sum_i n_i mu_i for a model homogeneous of degree one
	e := propaneButane(t)
	s, err := newStateNVT(e, 320, 2e-4, []float64{0.3, 0.7})
	require.NoError(t, err)

	sum := 0.0
	for i := 0; i < 2; i++ {
		sum += s.moles[i] * s.muSI(Total, i)
	}
	assert.InDelta(t, s.gibbsSI(Total), sum, 1e-6*math.Abs(sum)+1e-6)
}

func TestResidualPlusIdealIsTotal(t *testing.T) {
	e := propaneButane(t)
	s, err := newStateNVT(e, 320, 1e-3, []float64{0.5, 0.5})
	require.NoError(t, err)

	assert.InDelta(t, s.a0(Total), s.a0(IdealGas)+s.a0(Residual), 1e-7)
	assert.InDelta(t, s.pressureSI(Total), s.pressureSI(IdealGas)+s.pressureSI(Residual), 1e-5)
}

func TestDefaultIdealGasHeatCapacity(t *testing.T) {
	e := propane(t)
	s, err := newStateNVT(e, 300, 1, []float64{1})
	require.NoError(t, err)

	cp, err := s.MolarIsobaricHeatCapacity(IdealGas)
	require.NoError(t, err)
	assert.InDelta(t, 2.5*RGas, cp.MustIn(quantity.JoulePerMoleKelvin), 1e-8)

	cv, err := s.MolarIsochoricHeatCapacity(IdealGas)
	require.NoError(t, err)
	assert.InDelta(t, 1.5*RGas, cv.MustIn(quantity.JoulePerMoleKelvin), 1e-8)
}

func TestJobackPolynomialHeatCapacity(t *testing.T) {
	rec := &JobackRecord{A: 20, B: 0.1, C: 1e-4, D: -2e-8, E: 0}
	params, err := NewPengRobinsonSimple(
		[]float64{369.96}, []float64{4.25e6}, []float64{0.153}, []float64{44.0962})
	require.NoError(t, err)
	params.records[0].IdealGasRecord = rec
	e := NewPengRobinson(params)

	tk := 415.0
	s, err := newStateNVT(e, tk, 1, []float64{1})
	require.NoError(t, err)
	cp, err := s.MolarIsobaricHeatCapacity(IdealGas)
	require.NoError(t, err)
	want := rec.A + rec.B*tk + rec.C*tk*tk + rec.D*tk*tk*tk
	assert.InDelta(t, want, cp.MustIn(quantity.JoulePerMoleKelvin), 1e-7)
}

func TestSubsetReordersComponents(t *testing.T) {
	e := propaneButane(t)
	sub := e.Subset([]int{1, 0}).(*PengRobinson)
	assert.Equal(t, 2, sub.Components())
	assert.InDelta(t, 425.2, sub.CriticalTemperature()[0], 1e-12)
	assert.InDelta(t, 369.96, sub.CriticalTemperature()[1], 1e-12)

	one := e.Subset([]int{0})
	assert.Equal(t, 1, one.Components())
}

func TestParameterValidation(t *testing.T) {
	_, err := NewPengRobinsonSimple([]float64{369.96}, []float64{4.25e6}, []float64{0.153}, []float64{})
	require.Error(t, err)

	_, err = NewPengRobinsonSimple([]float64{-1}, []float64{4.25e6}, []float64{0.153}, []float64{44.1})
	require.Error(t, err)
}
