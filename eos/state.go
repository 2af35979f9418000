package eos

import (
	"math"

	"eoscalc/dual"
	"eoscalc/quantity"
)

// variable indexes the independent variables of A(T, V, n): varT, varV
// or a non-negative mole-number index.
type variable int8

const (
	varNone variable = -3
	varT    variable = -2
	varV    variable = -1
)

type propKey struct {
	contrib Contributions
	v1, v2  variable
}

// State is a single thermodynamic point (T, V, n) bound to one equation
// of state. The triple is immutable; derived properties are computed by
// selective differentiation of the Helmholtz energy and memoized per
// requested derivative and contribution selector. A State must not be
// shared across goroutines while its cache is still being filled.
type State struct {
	eos   EquationOfState
	t     float64   // K
	v     float64   // m3
	moles []float64 // mol
	n     float64   // total moles
	x     []float64 // mole fractions
	cache map[propKey]float64
}

// NewStateNVT constructs a state from temperature, volume and mole
// numbers. Non-positive temperature or volume and negative or all-zero
// mole numbers are rejected with InvalidStateError.
func NewStateNVT(e EquationOfState, temperature, volume quantity.Scalar, moles quantity.Vector) (*State, error) {
	t, err := temperature.In(quantity.Kelvin)
	if err != nil {
		return nil, err
	}
	v, err := volume.In(quantity.CubicMeter)
	if err != nil {
		return nil, err
	}
	n, err := moles.In(quantity.Mole)
	if err != nil {
		return nil, err
	}
	return newStateNVT(e, t, v, n)
}

// newStateNVT is the internal constructor on raw SI values.
func newStateNVT(e EquationOfState, t, v float64, moles []float64) (*State, error) {
	if len(moles) != e.Components() {
		return nil, &InvalidStateError{Where: "state", Var: "number of components", Value: float64(len(moles))}
	}
	if !(t > 0) || math.IsNaN(t) {
		return nil, &InvalidStateError{Where: "state", Var: "temperature", Value: t}
	}
	if !(v > 0) || math.IsNaN(v) {
		return nil, &InvalidStateError{Where: "state", Var: "volume", Value: v}
	}
	total := 0.0
	for _, m := range moles {
		if m < 0 || math.IsNaN(m) {
			return nil, &InvalidStateError{Where: "state", Var: "moles", Value: m}
		}
		total += m
	}
	if total <= 0 {
		return nil, &InvalidStateError{Where: "state", Var: "total moles", Value: total}
	}
	ms := make([]float64, len(moles))
	copy(ms, moles)
	x := make([]float64, len(ms))
	for i, m := range ms {
		x[i] = m / total
	}
	return &State{
		eos:   e,
		t:     t,
		v:     v,
		moles: ms,
		n:     total,
		x:     x,
		cache: make(map[propKey]float64),
	}, nil
}

func (s *State) Eos() EquationOfState { return s.eos }

func (s *State) Temperature() quantity.Scalar {
	return quantity.New(s.t, quantity.Kelvin)
}

func (s *State) Volume() quantity.Scalar {
	return quantity.New(s.v, quantity.CubicMeter)
}

func (s *State) Moles() quantity.Vector {
	return quantity.NewVector(s.moles, quantity.Mole)
}

func (s *State) TotalMoles() quantity.Scalar {
	return quantity.New(s.n, quantity.Mole)
}

// MoleFracs returns a copy of the mole fractions.
func (s *State) MoleFracs() []float64 {
	x := make([]float64, len(s.x))
	copy(x, s.x)
	return x
}

// Density is the molar density n/V.
func (s *State) Density() quantity.Scalar {
	return quantity.New(s.n/s.v, quantity.MolPerCubicMeter)
}

// deriv evaluates a partial derivative of the Helmholtz energy by
// seeding the dual evaluator, memoizing every partial the evaluation
// produces along the way. Mixed partials are symmetric, so the key is
// normalized to v1 <= v2.
func (s *State) deriv(c Contributions, v1, v2 variable) float64 {
	if v1 == varNone && v2 != varNone {
		v1, v2 = v2, varNone
	}
	if v2 != varNone && v2 < v1 {
		v1, v2 = v2, v1
	}
	key := propKey{c, v1, v2}
	if val, ok := s.cache[key]; ok {
		return val
	}
	switch {
	case v1 == varNone:
		a := helmholtz(s.eos, c, s.liftFloat())
		s.cache[key] = a.Real()
	case v2 == varNone:
		r := helmholtz(s.eos, c, s.liftDual(v1))
		s.cache[propKey{c, varNone, varNone}] = r.Re.Real()
		s.cache[key] = r.Eps.Real()
	default:
		r := helmholtz(s.eos, c, s.liftHyper(v1, v2))
		s.cache[propKey{c, varNone, varNone}] = r.Re.Real()
		s.cache[propKey{c, v1, varNone}] = r.E1.Real()
		s.cache[propKey{c, v2, varNone}] = r.E2.Real()
		s.cache[key] = r.E12.Real()
	}
	return s.cache[key]
}

func (s *State) liftFloat() StateHD[dual.Float] {
	moles := make([]dual.Float, len(s.moles))
	for i, m := range s.moles {
		moles[i] = dual.Float(m)
	}
	return NewStateHD(dual.Float(s.t), dual.Float(s.v), moles)
}

func (s *State) liftDual(v1 variable) StateHD[dual.Dual64] {
	t := dual.NewDual(dual.Float(s.t))
	v := dual.NewDual(dual.Float(s.v))
	moles := make([]dual.Dual64, len(s.moles))
	for i, m := range s.moles {
		moles[i] = dual.NewDual(dual.Float(m))
	}
	switch v1 {
	case varT:
		t = t.Derive()
	case varV:
		v = v.Derive()
	default:
		moles[v1] = moles[v1].Derive()
	}
	return NewStateHD(t, v, moles)
}

func (s *State) liftHyper(v1, v2 variable) StateHD[dual.Hyper64] {
	t := dual.NewHyperDual(dual.Float(s.t))
	v := dual.NewHyperDual(dual.Float(s.v))
	moles := make([]dual.Hyper64, len(s.moles))
	for i, m := range s.moles {
		moles[i] = dual.NewHyperDual(dual.Float(m))
	}
	seed1 := func(h dual.Hyper64) dual.Hyper64 { return h.Derive1() }
	seed2 := func(h dual.Hyper64) dual.Hyper64 { return h.Derive2() }
	apply := func(vr variable, seed func(dual.Hyper64) dual.Hyper64) {
		switch vr {
		case varT:
			t = seed(t)
		case varV:
			v = seed(v)
		default:
			moles[vr] = seed(moles[vr])
		}
	}
	apply(v1, seed1)
	apply(v2, seed2)
	return NewStateHD(t, v, moles)
}

// Shorthand accessors for the partial derivatives of A.

func (s *State) a0(c Contributions) float64  { return s.deriv(c, varNone, varNone) }
func (s *State) aT(c Contributions) float64  { return s.deriv(c, varT, varNone) }
func (s *State) aV(c Contributions) float64  { return s.deriv(c, varV, varNone) }
func (s *State) aTT(c Contributions) float64 { return s.deriv(c, varT, varT) }
func (s *State) aTV(c Contributions) float64 { return s.deriv(c, varT, varV) }
func (s *State) aVV(c Contributions) float64 { return s.deriv(c, varV, varV) }

func (s *State) aN(c Contributions, i int) float64  { return s.deriv(c, variable(i), varNone) }
func (s *State) aTN(c Contributions, i int) float64 { return s.deriv(c, varT, variable(i)) }
func (s *State) aVN(c Contributions, i int) float64 { return s.deriv(c, varV, variable(i)) }
func (s *State) aNN(c Contributions, i, j int) float64 {
	return s.deriv(c, variable(i), variable(j))
}
