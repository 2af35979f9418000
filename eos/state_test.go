package eos

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eoscalc/quantity"
)

func TestStateTPRoundTrip(t *testing.T) {
	e := propaneButane(t)
	s, err := NewStateTP(e,
		quantity.New(330, quantity.Kelvin),
		quantity.New(5, quantity.Bar),
		quantity.NewVector([]float64{0.3, 0.7}, quantity.Mole),
		InitVapor)
	require.NoError(t, err)

	p, err := s.Pressure(Total)
	require.NoError(t, err)
	assert.InEpsilon(t, 5e5, p.MustIn(quantity.Pascal), 1e-9)
	assert.InDelta(t, 330, s.Temperature().MustIn(quantity.Kelvin), 1e-12)
}

func TestDensityBranches(t *testing.T) {
	// below the critical temperature and near the saturation pressure
	// both density branches exist and differ widely
	e := propane(t)
	moles := quantity.NewVector([]float64{1}, quantity.Mole)
	temp := quantity.New(300, quantity.Kelvin)
	p := quantity.New(9, quantity.Bar)

	vap, err := NewStateTP(e, temp, p, moles, InitVapor)
	require.NoError(t, err)
	liq, err := NewStateTP(e, temp, p, moles, InitLiquid)
	require.NoError(t, err)
	assert.Greater(t, liq.Density().MustIn(quantity.MolPerCubicMeter),
		5*vap.Density().MustIn(quantity.MolPerCubicMeter))

	// the unspecified branch picks the root with the lower Gibbs energy
	def, err := NewStateTP(e, temp, p, moles, InitNone)
	require.NoError(t, err)
	gDef := def.gibbsSI(Total)
	assert.LessOrEqual(t, gDef, vap.gibbsSI(Total)+1e-6)
	assert.LessOrEqual(t, gDef, liq.gibbsSI(Total)+1e-6)
}

func TestStateTRho(t *testing.T) {
	e := propane(t)
	s, err := NewStateTRho(e,
		quantity.New(300, quantity.Kelvin),
		quantity.New(40, quantity.MolPerCubicMeter),
		quantity.NewVector([]float64{1}, quantity.Mole))
	require.NoError(t, err)
	assert.InEpsilon(t, 40.0, s.Density().MustIn(quantity.MolPerCubicMeter), 1e-12)
}

func TestCacheIdempotence(t *testing.T) {
	e := propaneButane(t)
	s, err := newStateNVT(e, 330, 1e-3, []float64{0.3, 0.7})
	require.NoError(t, err)

	p1 := s.pressureSI(Total)
	filled := len(s.cache)
	assert.Greater(t, filled, 0)

	p2 := s.pressureSI(Total)
	assert.Equal(t, p1, p2)
	assert.Equal(t, filled, len(s.cache))

	// a second derivative evaluation reuses and extends the cache
	// without disturbing the memoized first derivatives
	_ = s.cpSI(Total)
	assert.Equal(t, p1, s.pressureSI(Total))
	assert.GreaterOrEqual(t, len(s.cache), filled)
}

func TestStateInputsAreCopied(t *testing.T) {
	e := propaneButane(t)
	moles := []float64{0.3, 0.7}
	s, err := newStateNVT(e, 330, 1e-3, moles)
	require.NoError(t, err)

	moles[0] = 99
	assert.InDelta(t, 0.3, s.moles[0], 1e-12)

	x := s.MoleFracs()
	x[0] = 99
	assert.InDelta(t, 0.3, s.x[0], 1e-12)
}

func TestStateValidation(t *testing.T) {
	e := propaneButane(t)
	var ise *InvalidStateError

	_, err := newStateNVT(e, -10, 1e-3, []float64{0.3, 0.7})
	require.Error(t, err)
	assert.True(t, errors.As(err, &ise))

	_, err = newStateNVT(e, 330, -1, []float64{0.3, 0.7})
	require.Error(t, err)

	_, err = newStateNVT(e, 330, 1e-3, []float64{0.3, -0.7})
	require.Error(t, err)

	_, err = newStateNVT(e, 330, 1e-3, []float64{0.3})
	require.Error(t, err)
}

func TestCaloricStateConstruction(t *testing.T) {
	e := propaneButane(t)
	moles := quantity.NewVector([]float64{0.3, 0.7}, quantity.Mole)
	p := quantity.New(2, quantity.Bar)
	s, err := NewStateTP(e, quantity.New(350, quantity.Kelvin), p, moles, InitVapor)
	require.NoError(t, err)

	h, err := s.MolarEnthalpy(Total)
	require.NoError(t, err)
	fromH, err := NewStatePH(e, p, h, moles, InitVapor, quantity.New(300, quantity.Kelvin))
	require.NoError(t, err)
	assert.InDelta(t, 350, fromH.Temperature().MustIn(quantity.Kelvin), 1e-4)

	sm, err := s.MolarEntropy(Total)
	require.NoError(t, err)
	fromS, err := NewStatePS(e, p, sm, moles, InitVapor, quantity.New(300, quantity.Kelvin))
	require.NoError(t, err)
	assert.InDelta(t, 350, fromS.Temperature().MustIn(quantity.Kelvin), 1e-4)
}

func TestDerivedProperties(t *testing.T) {
	e := propane(t)
	s, err := NewStateTP(e,
		quantity.New(300, quantity.Kelvin),
		quantity.New(1, quantity.Bar),
		quantity.NewVector([]float64{1}, quantity.Mole),
		InitVapor)
	require.NoError(t, err)

	cp, err := s.MolarIsobaricHeatCapacity(Total)
	require.NoError(t, err)
	cv, err := s.MolarIsochoricHeatCapacity(Total)
	require.NoError(t, err)
	// cp exceeds cv by roughly R in the dilute gas
	diff := cp.MustIn(quantity.JoulePerMoleKelvin) - cv.MustIn(quantity.JoulePerMoleKelvin)
	assert.InDelta(t, RGas, diff, 0.5)

	w, err := s.SpeedOfSound()
	require.NoError(t, err)
	ws := w.MustIn(quantity.MeterPerSecond)
	assert.Greater(t, ws, 150.0)
	assert.Less(t, ws, 350.0)

	kt, err := s.IsothermalCompressibility()
	require.NoError(t, err)
	// close to the ideal gas value 1/p
	assert.InEpsilon(t, 1e-5, kt.MustIn(quantity.PerPascal), 0.1)

	ks, err := s.IsentropicCompressibility()
	require.NoError(t, err)
	assert.Less(t, ks.MustIn(quantity.PerPascal), kt.MustIn(quantity.PerPascal))

	mrho := s.MassDensity()
	assert.InEpsilon(t, 44.0962e-3*s.n/s.v, mrho.MustIn(quantity.KilogramPerCubicMeter), 1e-9)
}

func TestLnPhiDerivatives(t *testing.T) {
	// analytic fugacity coefficient derivatives against finite
	// differences over rebuilt states
	e := propaneButane(t)
	temp, p := 330.0, 5e5
	x := []float64{0.3, 0.7}
	s, err := newStateTPSI(e, temp, p, x, InitVapor, SolverOptions{})
	require.NoError(t, err)

	hp := 1e-3 * p
	plusP, err := newStateTPSI(e, temp, p+hp, x, InitVapor, SolverOptions{})
	require.NoError(t, err)
	minusP, err := newStateTPSI(e, temp, p-hp, x, InitVapor, SolverOptions{})
	require.NoError(t, err)

	ht := 1e-4 * temp
	plusT, err := newStateTPSI(e, temp+ht, p, x, InitVapor, SolverOptions{})
	require.NoError(t, err)
	minusT, err := newStateTPSI(e, temp-ht, p, x, InitVapor, SolverOptions{})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		fdP := (plusP.lnPhiSI()[i] - minusP.lnPhiSI()[i]) / (2 * hp)
		assert.InDelta(t, fdP, s.dLnPhiDpSI(i), math.Abs(fdP)*1e-3+1e-11, "component %d", i)

		fdT := (plusT.lnPhiSI()[i] - minusT.lnPhiSI()[i]) / (2 * ht)
		assert.InDelta(t, fdT, s.dLnPhiDtSI(i), math.Abs(fdT)*1e-3+1e-8, "component %d", i)
	}
}

func TestParameterFileLoading(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/records.json"
	raw := `[
	  {"identifier": {"cas": "74-98-6", "name": "propane"},
	   "molarweight": 44.0962,
	   "model_record": {"tc": 369.96, "pc": 4.25e6, "acentric_factor": 0.153}},
	  {"identifier": {"cas": "106-97-8", "name": "butane"},
	   "molarweight": 58.123,
	   "model_record": {"tc": 425.2, "pc": 3.8e6, "acentric_factor": 0.199}}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	// records come back in query order regardless of file order
	records, err := LoadPureRecords(path, []string{"butane", "propane"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "butane", records[0].Identifier.Name)
	assert.Equal(t, "propane", records[1].Identifier.Name)

	_, err = LoadPureRecords(path, []string{"pentane"})
	require.Error(t, err)
	var pe *ParameterError
	assert.True(t, errors.As(err, &pe))

	params, err := NewPengRobinsonParameters(records, nil)
	require.NoError(t, err)
	e := NewPengRobinson(params)
	assert.InDelta(t, 425.2, e.CriticalTemperature()[0], 1e-12)
}

func TestBinaryMatrixPlacement(t *testing.T) {
	pure := []PureRecord{
		{Identifier: Identifier{CAS: "74-98-6", Name: "propane"}},
		{Identifier: Identifier{CAS: "106-97-8", Name: "butane"}},
	}
	binary := []BinaryRecord{{
		ID1:         Identifier{Name: "butane"},
		ID2:         Identifier{Name: "propane"},
		ModelRecord: 0.011,
	}}
	kij := BinaryMatrix(pure, binary)
	assert.InDelta(t, 0.011, kij[0][1], 1e-12)
	assert.InDelta(t, 0.011, kij[1][0], 1e-12)
	assert.Zero(t, kij[0][0])
	assert.Zero(t, kij[1][1])
}
