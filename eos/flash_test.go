package eos

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eoscalc/quantity"
)

func TestStabilityVerdicts(t *testing.T) {
	e := propaneButane(t)

	// compressed liquid well above the bubble pressure is stable
	liq, err := newStateTPSI(e, 300, 2e6, []float64{0.5, 0.5}, InitNone, SolverOptions{})
	require.NoError(t, err)
	res, err := Stability(liq, SolverOptions{})
	require.NoError(t, err)
	assert.True(t, res.Stable)
	assert.GreaterOrEqual(t, res.TangentPlaneDistance, stabilityNegTol)

	// a feed between dew and bubble pressure is unstable
	feed, err := newStateTPSI(e, 300, 5e5, []float64{0.5, 0.5}, InitNone, SolverOptions{})
	require.NoError(t, err)
	res, err = Stability(feed, SolverOptions{})
	require.NoError(t, err)
	assert.False(t, res.Stable)
	assert.Less(t, res.TangentPlaneDistance, 0.0)
	require.Len(t, res.TrialComposition, 2)
}

func TestTPFlash(t *testing.T) {
	e := propaneButane(t)
	z := []float64{0.5, 0.5}
	split, err := TPFlash(e,
		quantity.New(300, quantity.Kelvin),
		quantity.New(5, quantity.Bar),
		z, SolverOptions{})
	require.NoError(t, err)

	beta := split.VaporFraction()
	assert.Greater(t, beta, 0.0)
	assert.Less(t, beta, 1.0)

	vap, liq := split.Vapor(), split.Liquid()
	assert.Greater(t, vap.x[0], liq.x[0])

	// component material balance
	for i := 0; i < 2; i++ {
		total := vap.moles[i] + liq.moles[i]
		assert.InDelta(t, z[i], total, 1e-8, "component %d", i)
	}

	// equal fugacities across the phases
	lnPhiV := vap.lnPhiSI()
	lnPhiL := liq.lnPhiSI()
	for i := 0; i < 2; i++ {
		fugV := lnPhiV[i] + math.Log(vap.x[i])
		fugL := lnPhiL[i] + math.Log(liq.x[i])
		assert.InDelta(t, fugV, fugL, 1e-6, "component %d", i)
	}
}

func TestTPFlashScalesWithFeed(t *testing.T) {
	e := propaneButane(t)
	split, err := TPFlash(e,
		quantity.New(300, quantity.Kelvin),
		quantity.New(5, quantity.Bar),
		[]float64{2, 2}, SolverOptions{})
	require.NoError(t, err)

	total := split.Vapor().n + split.Liquid().n
	assert.InDelta(t, 4.0, total, 1e-8)
}

func TestTPFlashStableFeed(t *testing.T) {
	e := propaneButane(t)
	_, err := TPFlash(e,
		quantity.New(300, quantity.Kelvin),
		quantity.New(20, quantity.Bar),
		[]float64{0.5, 0.5}, SolverOptions{})
	require.Error(t, err)
	var nps *NoPhaseSplitError
	assert.True(t, errors.As(err, &nps))
}

func TestTPFlashRejectsBadFeed(t *testing.T) {
	e := propaneButane(t)
	_, err := TPFlash(e,
		quantity.New(300, quantity.Kelvin),
		quantity.New(5, quantity.Bar),
		[]float64{0.5}, SolverOptions{})
	require.Error(t, err)

	_, err = TPFlash(e,
		quantity.New(300, quantity.Kelvin),
		quantity.New(5, quantity.Bar),
		[]float64{-0.5, 1.5}, SolverOptions{})
	require.Error(t, err)
}

func TestRachfordRice(t *testing.T) {
	z := []float64{0.5, 0.5}
	lnK := []float64{math.Log(2), math.Log(0.5)}
	beta, err := rachfordRice(z, lnK)
	require.NoError(t, err)
	// symmetric K factors give beta = 1/2
	assert.InDelta(t, 0.5, beta, 1e-10)

	f := 0.0
	for i := range z {
		k := math.Exp(lnK[i])
		f += z[i] * (k - 1) / (1 + beta*(k-1))
	}
	assert.InDelta(t, 0.0, f, 1e-12)
}
