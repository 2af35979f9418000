package eos

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eoscalc/dual"
	"eoscalc/quantity"
)

func TestCriticalPointPure(t *testing.T) {
	// a cubic equation of state reproduces the critical constants it
	// was parameterized with
	e := propane(t)
	cp, err := criticalPointSI(e, []float64{1}, 0, SolverOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 369.96, cp.t, 0.1)
	assert.InEpsilon(t, 4.25e6, cp.pressureSI(Total), 5e-3)
}

func TestCriticalPointPureAllComponents(t *testing.T) {
	e := propaneButane(t)
	cps, err := CriticalPointPure(e, SolverOptions{})
	require.NoError(t, err)
	require.Len(t, cps, 2)
	assert.InDelta(t, 369.96, cps[0].t, 0.1)
	assert.InDelta(t, 425.2, cps[1].t, 0.1)
}

func TestCriticalPointMixture(t *testing.T) {
	e := propaneButane(t)
	cp, err := CriticalPoint(e, []float64{0.5, 0.5}, quantity.Scalar{}, SolverOptions{})
	require.NoError(t, err)

	// the critical temperature interpolates between the pure values,
	// the critical pressure may exceed both
	assert.Greater(t, cp.t, 369.96)
	assert.Less(t, cp.t, 425.2)
	p := cp.pressureSI(Total)
	assert.Greater(t, p, 3.5e6)
	assert.Less(t, p, 6e6)

	// the converged point satisfies both criticality conditions
	rho := cp.n / cp.v
	r1, r2, err := criticalPointObjective(e, cp.x,
		dual.Dual64{Re: dual.Float(cp.t)},
		dual.Dual64{Re: dual.Float(rho)})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r1.Re.Real(), 1e-6)
	assert.InDelta(t, 0.0, r2.Re.Real(), 1e-5)
}

func TestCriticalPointSeededTemperature(t *testing.T) {
	e := propane(t)
	cp, err := CriticalPoint(e, []float64{1}, quantity.New(350, quantity.Kelvin), SolverOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 369.96, cp.t, 0.1)
}

func TestCriticalPointRejectsZeroMoles(t *testing.T) {
	e := propaneButane(t)
	_, err := CriticalPoint(e, []float64{1, 0}, quantity.Scalar{}, SolverOptions{})
	require.Error(t, err)
}

func TestSmallestEigenPerturbation(t *testing.T) {
	// compare the dual eigenvalue against a finite difference on the
	// 2x2 matrix [[a, c], [c, b]] with entries depending on one
	// parameter
	build := func(s float64) [][]float64 {
		return [][]float64{
			{1 + s, 0.3 * s},
			{0.3 * s, 2 - s},
		}
	}
	s0, h := 0.2, 1e-7
	qd := make([][]dual.Dual64, 2)
	m0 := build(s0)
	mp := build(s0 + h)
	mm := build(s0 - h)
	for i := range qd {
		qd[i] = make([]dual.Dual64, 2)
		for j := range qd[i] {
			qd[i][j] = dual.Dual64{
				Re:  dual.Float(m0[i][j]),
				Eps: dual.Float((mp[i][j] - mm[i][j]) / (2 * h)),
			}
		}
	}
	lambda, u := smallestEigen(qd)

	lamOf := func(m [][]float64) float64 {
		tr := m[0][0] + m[1][1]
		det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
		return (tr - math.Sqrt(tr*tr-4*det)) / 2
	}
	assert.InDelta(t, lamOf(m0), lambda.Re.Real(), 1e-10)
	assert.InDelta(t, (lamOf(mp)-lamOf(mm))/(2*h), lambda.Eps.Real(), 1e-5)

	// the eigenvector solves (Q - lambda I) u = 0
	for i := 0; i < 2; i++ {
		r := 0.0
		for j := 0; j < 2; j++ {
			r += m0[i][j] * u[j].Re.Real()
		}
		assert.InDelta(t, lambda.Re.Real()*u[i].Re.Real(), r, 1e-10)
	}
}

func TestSaturationUnavailableAtCritical(t *testing.T) {
	// at the critical temperature itself the saturation solver has no
	// two-phase solution left
	e := propane(t)
	_, err := pureTSI(e, 369.96, nil, SolverOptions{})
	require.Error(t, err)
}
