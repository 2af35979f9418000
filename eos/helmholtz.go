package eos

import "eoscalc/dual"

// RGas is the molar gas constant in J/(mol K).
const RGas = 8.31446261815324

// Contributions selects which parts of the Helmholtz energy enter a
// property evaluation, so a property can be decomposed into its
// physical origins.
type Contributions int

const (
	Total Contributions = iota
	IdealGas
	Residual
)

func (c Contributions) String() string {
	switch c {
	case IdealGas:
		return "ideal gas"
	case Residual:
		return "residual"
	default:
		return "total"
	}
}

// StateHD is a state point lifted into the dual domain. Temperature in
// K, volume in m3 and mole numbers in mol; the derivative components of
// the entries carry whatever seeding the caller applied.
type StateHD[D dual.Num[D]] struct {
	T         D
	V         D
	Moles     []D
	MoleFracs []D
	Total     D
}

// NewStateHD derives total moles and mole fractions from the inputs.
func NewStateHD[D dual.Num[D]](t, v D, moles []D) StateHD[D] {
	n := dual.Const[D](0)
	for _, m := range moles {
		n = n.Add(m)
	}
	x := make([]D, len(moles))
	for i, m := range moles {
		x[i] = m.Div(n)
	}
	return StateHD[D]{T: t, V: v, Moles: moles, MoleFracs: x, Total: n}
}

// HelmholtzEnergy is one additive contribution to the Helmholtz energy
// A(T, V, n) in Joule. Contributions are pure functions of the state
// and independent of each other; an equation of state sums them.
//
// The evaluation methods form the closed set of dual instantiations the
// property and solver machinery uses. A model is written once as a
// generic function over dual.Num and wired through one-line adapters;
// external models plug in the same way without touching the solvers.
type HelmholtzEnergy interface {
	Name() string
	EvalFloat(s StateHD[dual.Float]) dual.Float
	EvalDual(s StateHD[dual.Dual64]) dual.Dual64
	EvalHyper(s StateHD[dual.Hyper64]) dual.Hyper64
	EvalThird(s StateHD[dual.Third64]) dual.Third64
	EvalNestedHyper(s StateHD[dual.NestedHyper64]) dual.NestedHyper64
	EvalNestedThird(s StateHD[dual.NestedThird64]) dual.NestedThird64
}

// EquationOfState couples an ideal-gas contribution with an ordered
// list of residual contributions over a shared, immutable parameter
// set. Evaluation is stateless, so one instance may be shared read-only
// by any number of states and solver invocations.
type EquationOfState interface {
	Components() int
	// Subset restricts the equation of state to the given components,
	// in the given order.
	Subset(components []int) EquationOfState
	// MaxDensity is an upper bound on physically meaningful molar
	// densities (mol/m3) for the given mole numbers.
	MaxDensity(moles []float64) float64
	// MolarWeight per component in kg/mol.
	MolarWeight() []float64
	IdealGasContribution() HelmholtzEnergy
	ResidualContributions() []HelmholtzEnergy
}

// evalContribution dispatches a generic instantiation to the matching
// member of the closed evaluation set.
func evalContribution[D dual.Num[D]](c HelmholtzEnergy, s StateHD[D]) D {
	switch s := any(s).(type) {
	case StateHD[dual.Float]:
		return any(c.EvalFloat(s)).(D)
	case StateHD[dual.Dual64]:
		return any(c.EvalDual(s)).(D)
	case StateHD[dual.Hyper64]:
		return any(c.EvalHyper(s)).(D)
	case StateHD[dual.Third64]:
		return any(c.EvalThird(s)).(D)
	case StateHD[dual.NestedHyper64]:
		return any(c.EvalNestedHyper(s)).(D)
	case StateHD[dual.NestedThird64]:
		return any(c.EvalNestedThird(s)).(D)
	default:
		panic("eos: dual instantiation outside the closed evaluation set")
	}
}

// helmholtz sums the selected contributions at the given state.
func helmholtz[D dual.Num[D]](e EquationOfState, contrib Contributions, s StateHD[D]) D {
	a := dual.Const[D](0)
	if contrib == Total || contrib == IdealGas {
		a = a.Add(evalContribution(e.IdealGasContribution(), s))
	}
	if contrib == Total || contrib == Residual {
		for _, c := range e.ResidualContributions() {
			a = a.Add(evalContribution(c, s))
		}
	}
	return a
}
