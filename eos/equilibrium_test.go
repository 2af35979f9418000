package eos

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eoscalc/dual"
	"eoscalc/quantity"
)

func TestPureSaturation(t *testing.T) {
	e := propane(t)
	temp := 0.8 * 369.96
	vle, err := PureT(e, quantity.New(temp, quantity.Kelvin), nil, SolverOptions{})
	require.NoError(t, err)

	vap, liq := vle.Vapor(), vle.Liquid()
	assert.InDelta(t, temp, vap.t, 1e-9)
	assert.InDelta(t, temp, liq.t, 1e-9)

	// both phases at the same pressure below the critical pressure
	pV := vap.pressureSI(Total)
	pL := liq.pressureSI(Total)
	assert.InEpsilon(t, pV, pL, 1e-8)
	assert.Less(t, pV, 4.25e6)
	assert.Greater(t, pV, 1e5)

	// equal molar Gibbs energy across the phases
	gV := vap.gibbsSI(Total) / vap.n
	gL := liq.gibbsSI(Total) / liq.n
	assert.InDelta(t, gV, gL, 1e-4*RGas*temp)

	// a genuine split, not two copies of the same root
	rhoV := vap.n / vap.v
	rhoL := liq.n / liq.v
	assert.Greater(t, rhoL/rhoV, 10.0)
}

func TestPureSaturationRoundTrip(t *testing.T) {
	e := propane(t)
	temp := 310.0
	vle, err := PureT(e, quantity.New(temp, quantity.Kelvin), nil, SolverOptions{})
	require.NoError(t, err)

	psat := vle.Vapor().pressureSI(Total)
	back, err := PureP(e, quantity.New(psat, quantity.Pascal), nil, SolverOptions{})
	require.NoError(t, err)
	assert.InDelta(t, temp, back.Vapor().t, 1e-2)
}

func TestPureSaturationSupercritical(t *testing.T) {
	e := propane(t)
	_, err := PureT(e, quantity.New(400, quantity.Kelvin), nil, SolverOptions{})
	require.Error(t, err)
	var sc *SuperCriticalError
	assert.True(t, errors.As(err, &sc))
}

func TestPureSaturationContinuation(t *testing.T) {
	e := propane(t)
	first, err := PureT(e, quantity.New(300, quantity.Kelvin), nil, SolverOptions{})
	require.NoError(t, err)
	second, err := PureT(e, quantity.New(305, quantity.Kelvin), first, SolverOptions{})
	require.NoError(t, err)
	assert.Greater(t, second.Vapor().pressureSI(Total), first.Vapor().pressureSI(Total))
}

func TestPhaseDiagramPure(t *testing.T) {
	e := propane(t)
	diagram, err := NewPhaseDiagramPure(e, quantity.New(230, quantity.Kelvin), 21, SolverOptions{})
	require.NoError(t, err)
	require.Len(t, diagram.States, 21)

	rows := diagram.Rows()
	require.Len(t, rows, 22)

	// vapor pressure rises monotonically toward the critical point
	for i := 1; i < len(rows); i++ {
		assert.Greater(t, rows[i].Pressure, rows[i-1].Pressure, "row %d", i)
		assert.Greater(t, rows[i].Temperature, rows[i-1].Temperature, "row %d", i)
	}
	// liquid denser than vapor everywhere except the critical row
	for i := 0; i < len(rows)-1; i++ {
		assert.Greater(t, rows[i].DensityLiquid, rows[i].DensityVapor, "row %d", i)
		assert.Greater(t, rows[i].EnthalpyVaporization, 0.0, "row %d", i)
	}
	last := rows[len(rows)-1]
	assert.InDelta(t, 369.96, last.Temperature, 0.5)
	assert.InEpsilon(t, 4.25e6, last.Pressure, 0.02)
	assert.InDelta(t, last.DensityLiquid, last.DensityVapor, 1e-9)
}

// cappedResidual stops being evaluable above a temperature cap on the
// first-order instantiations the density and property machinery uses.
// The nested instantiations pass through, so critical point solves on
// the wrapped model stay intact.
type cappedResidual struct {
	HelmholtzEnergy
	cap float64
}

func (c cappedResidual) EvalFloat(s StateHD[dual.Float]) dual.Float {
	if s.T.Real() > c.cap {
		return dual.Float(math.NaN())
	}
	return c.HelmholtzEnergy.EvalFloat(s)
}

func (c cappedResidual) EvalDual(s StateHD[dual.Dual64]) dual.Dual64 {
	if s.T.Real() > c.cap {
		return dual.Dual64{Re: dual.Float(math.NaN())}
	}
	return c.HelmholtzEnergy.EvalDual(s)
}

func (c cappedResidual) EvalHyper(s StateHD[dual.Hyper64]) dual.Hyper64 {
	if s.T.Real() > c.cap {
		return dual.Hyper64{Re: dual.Float(math.NaN())}
	}
	return c.HelmholtzEnergy.EvalHyper(s)
}

func (c cappedResidual) EvalThird(s StateHD[dual.Third64]) dual.Third64 {
	if s.T.Real() > c.cap {
		return dual.Third64{Re: dual.Float(math.NaN())}
	}
	return c.HelmholtzEnergy.EvalThird(s)
}

type cappedModel struct {
	*PengRobinson
	cap float64
}

func (m cappedModel) ResidualContributions() []HelmholtzEnergy {
	inner := m.PengRobinson.ResidualContributions()
	out := make([]HelmholtzEnergy, len(inner))
	for i, c := range inner {
		out[i] = cappedResidual{c, m.cap}
	}
	return out
}

func TestPhaseDiagramPureKeepsConvergedPrefix(t *testing.T) {
	// the saturation solve fails above 340 K; the walk has to end there
	// and hand back the points it reached instead of failing whole
	e := cappedModel{propane(t), 340}
	diagram, err := NewPhaseDiagramPure(e, quantity.New(260, quantity.Kelvin), 21, SolverOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, diagram.States)
	assert.Less(t, len(diagram.States), 21)
	for i, vle := range diagram.States {
		assert.LessOrEqual(t, vle.Vapor().t, 340.0, "state %d", i)
	}
	// the critical point solve runs on the nested instantiations and is
	// unaffected by the cap
	assert.InDelta(t, 369.96, diagram.Critical.t, 0.5)
}

func TestAcentricFactorRecovered(t *testing.T) {
	// the kappa correlation was fitted to reproduce the vapor pressure
	// at Tr = 0.7, so the defining relation gives the input back
	e := propane(t)
	omega, err := AcentricFactorFromVaporPressure(e, SolverOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0.153, omega, 0.02)
}

func TestBubblePoint(t *testing.T) {
	e := propaneButane(t)
	x := []float64{0.4, 0.6}
	vle, err := BubblePoint(e, AtTemperature(quantity.New(300, quantity.Kelvin)), x, nil, SolverOptions{})
	require.NoError(t, err)

	// propane enriches the vapor
	assert.Greater(t, vle.Vapor().x[0], x[0])
	assert.InDelta(t, x[0], vle.Liquid().x[0], 1e-10)

	// bubble pressure between the pure component vapor pressures
	psat1, err := PureT(e.Subset([]int{0}), quantity.New(300, quantity.Kelvin), nil, SolverOptions{})
	require.NoError(t, err)
	psat2, err := PureT(e.Subset([]int{1}), quantity.New(300, quantity.Kelvin), nil, SolverOptions{})
	require.NoError(t, err)
	p := vle.Vapor().pressureSI(Total)
	assert.Greater(t, p, psat2.Vapor().pressureSI(Total))
	assert.Less(t, p, psat1.Vapor().pressureSI(Total))
}

func TestDewBelowBubble(t *testing.T) {
	e := propaneButane(t)
	z := []float64{0.4, 0.6}
	spec := AtTemperature(quantity.New(300, quantity.Kelvin))
	bubble, err := BubblePoint(e, spec, z, nil, SolverOptions{})
	require.NoError(t, err)
	dew, err := DewPoint(e, spec, z, nil, SolverOptions{})
	require.NoError(t, err)

	assert.Less(t, dew.Vapor().pressureSI(Total), bubble.Vapor().pressureSI(Total))
	assert.Less(t, dew.Liquid().x[0], z[0])
}

func TestBubblePointAtFixedPressure(t *testing.T) {
	e := propaneButane(t)
	x := []float64{0.4, 0.6}
	vle, err := BubblePoint(e, AtPressure(quantity.New(5, quantity.Bar)), x, nil, SolverOptions{})
	require.NoError(t, err)

	// boiling temperature between the pure boiling temperatures
	t1, err := PureP(e.Subset([]int{0}), quantity.New(5, quantity.Bar), nil, SolverOptions{})
	require.NoError(t, err)
	t2, err := PureP(e.Subset([]int{1}), quantity.New(5, quantity.Bar), nil, SolverOptions{})
	require.NoError(t, err)
	tb := vle.Vapor().t
	assert.Greater(t, tb, t1.Vapor().t)
	assert.Less(t, tb, t2.Vapor().t)
	assert.InEpsilon(t, 5e5, vle.Vapor().pressureSI(Total), 1e-6)
}

func TestHeteroazeotropeRequiresBinary(t *testing.T) {
	e := propane(t)
	_, err := Heteroazeotrope(e, AtTemperature(quantity.New(300, quantity.Kelvin)),
		0.2, 0.8, quantity.New(1, quantity.Bar), SolverOptions{})
	require.Error(t, err)
}

func TestPhaseDiagramBinary(t *testing.T) {
	e := propaneButane(t)
	diagram, err := NewPhaseDiagramBinary(e, AtTemperature(quantity.New(300, quantity.Kelvin)), 21, SolverOptions{})
	require.NoError(t, err)
	rows := diagram.Rows()
	require.GreaterOrEqual(t, len(rows), 10)

	// the walk spans the composition range from pure butane to pure
	// propane, pressure rising with the propane content
	assert.Less(t, rows[0].LiquidX1, 0.01)
	assert.Greater(t, rows[len(rows)-1].LiquidX1, 0.99)
	assert.Less(t, rows[0].Pressure, rows[len(rows)-1].Pressure)
	for _, r := range rows {
		assert.False(t, math.IsNaN(r.VaporY1))
		assert.GreaterOrEqual(t, r.VaporY1+1e-9, r.LiquidX1)
	}
}
