package eos

import (
	"math"

	"eoscalc/quantity"
)

// Phase tags the role of a state inside a phase equilibrium.
type Phase int

const (
	PhaseVapor Phase = iota
	PhaseLiquid
	PhaseLiquid2
)

func (p Phase) String() string {
	switch p {
	case PhaseVapor:
		return "vapor"
	case PhaseLiquid2:
		return "liquid 2"
	default:
		return "liquid"
	}
}

// PhaseEquilibrium is an ordered set of states sharing temperature and
// pressure at convergence: vapor first, then one liquid, or two liquids
// for a heteroazeotrope. At convergence the fugacity of every component
// is equal across all phases within the solver tolerance.
type PhaseEquilibrium struct {
	states []*State
}

func newTwoPhase(vapor, liquid *State) *PhaseEquilibrium {
	return &PhaseEquilibrium{states: []*State{vapor, liquid}}
}

func (pe *PhaseEquilibrium) Vapor() *State  { return pe.states[0] }
func (pe *PhaseEquilibrium) Liquid() *State { return pe.states[1] }

// Liquid2 is the second liquid of a three-phase equilibrium, nil
// otherwise.
func (pe *PhaseEquilibrium) Liquid2() *State {
	if len(pe.states) < 3 {
		return nil
	}
	return pe.states[2]
}

func (pe *PhaseEquilibrium) States() []*State { return pe.states }

func (pe *PhaseEquilibrium) Temperature() quantity.Scalar {
	return pe.states[0].Temperature()
}

func (pe *PhaseEquilibrium) Pressure() (quantity.Scalar, error) {
	return pe.states[0].Pressure(Total)
}

// TPSpec fixes either the temperature or the pressure of an equilibrium
// computation; the other one is an unknown of the solver.
type TPSpec struct {
	isPressure bool
	value      float64 // SI
}

// AtTemperature fixes the temperature. The argument must be a
// temperature.
func AtTemperature(t quantity.Scalar) TPSpec {
	return TPSpec{isPressure: false, value: t.MustIn(quantity.Kelvin)}
}

// AtPressure fixes the pressure. The argument must be a pressure.
func AtPressure(p quantity.Scalar) TPSpec {
	return TPSpec{isPressure: true, value: p.MustIn(quantity.Pascal)}
}

const (
	pureMaxIter = 50
	pureTol     = 1e-10
)

// PureT computes the vapor-liquid equilibrium of a pure substance at
// the given temperature by Newton iteration on the pressure with the
// equal-Gibbs-energy closure. A previous equilibrium may seed the
// pressure (continuation along a diagram).
func PureT(e EquationOfState, temperature quantity.Scalar, guess *PhaseEquilibrium, opts SolverOptions) (*PhaseEquilibrium, error) {
	t := temperature.MustIn(quantity.Kelvin)
	return pureTSI(e, t, guess, opts)
}

func pureTSI(e EquationOfState, t float64, guess *PhaseEquilibrium, opts SolverOptions) (*PhaseEquilibrium, error) {
	if e.Components() != 1 {
		return nil, &InvalidStateError{Where: "pure saturation", Var: "number of components", Value: float64(e.Components())}
	}
	maxIter, tol := opts.orDefault(pureMaxIter, pureTol)

	p, err := initialSaturationPressure(e, t, guess)
	if err != nil {
		return nil, err
	}

	moles := []float64{1}
	for iter := 0; iter < maxIter; iter++ {
		liq, err := newStateTPSI(e, t, p, moles, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}
		vap, err := newStateTPSI(e, t, p, moles, InitVapor, SolverOptions{})
		if err != nil {
			return nil, err
		}
		if math.Abs(liq.v-vap.v) < 1e-7*vap.v {
			return nil, &TrivialSolutionError{Solver: "pure saturation"}
		}
		f := liq.gibbsSI(Total) - vap.gibbsSI(Total) // per 1 mol
		dfdp := liq.v - vap.v
		opts.trace("saturation iteration %3d: p=%.8e residual=%.8e", iter, p, f)
		if math.Abs(f) <= tol*RGas*t {
			return newTwoPhase(vap, liq), nil
		}
		next := p - f/dfdp
		if next <= 0 {
			next = p / 2
		}
		p = next
	}
	return nil, &ConvergenceError{Solver: "pure saturation", Iterations: maxIter, Residual: math.NaN(), Last: []float64{p}}
}

// PureP computes the saturation temperature of a pure substance at the
// given pressure by Newton iteration on the temperature with the
// equal-Gibbs-energy closure.
func PureP(e EquationOfState, pressure quantity.Scalar, guess *PhaseEquilibrium, opts SolverOptions) (*PhaseEquilibrium, error) {
	p := pressure.MustIn(quantity.Pascal)
	if e.Components() != 1 {
		return nil, &InvalidStateError{Where: "pure saturation", Var: "number of components", Value: float64(e.Components())}
	}
	maxIter, tol := opts.orDefault(pureMaxIter, pureTol)

	t, err := initialSaturationTemperature(e, p, guess)
	if err != nil {
		return nil, err
	}

	moles := []float64{1}
	for iter := 0; iter < maxIter; iter++ {
		liq, err := newStateTPSI(e, t, p, moles, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}
		vap, err := newStateTPSI(e, t, p, moles, InitVapor, SolverOptions{})
		if err != nil {
			return nil, err
		}
		if math.Abs(liq.v-vap.v) < 1e-7*vap.v {
			return nil, &TrivialSolutionError{Solver: "pure saturation"}
		}
		f := liq.gibbsSI(Total) - vap.gibbsSI(Total)
		dfdt := vap.entropySI(Total) - liq.entropySI(Total)
		opts.trace("saturation iteration %3d: T=%.8e residual=%.8e", iter, t, f)
		if math.Abs(f) <= tol*RGas*t {
			return newTwoPhase(vap, liq), nil
		}
		step := f / dfdt
		if math.Abs(step) > 0.1*t {
			step = math.Copysign(0.1*t, step)
		}
		next := t - step
		if next <= 0 {
			next = t / 2
		}
		t = next
	}
	return nil, &ConvergenceError{Solver: "pure saturation", Iterations: maxIter, Residual: math.NaN(), Last: []float64{t}}
}

// initialSaturationPressure seeds the pure saturation solve from a
// previous equilibrium, from the Wilson correlation, or from a freshly
// solved critical point with acentric factor zero.
func initialSaturationPressure(e EquationOfState, t float64, guess *PhaseEquilibrium) (float64, error) {
	if guess != nil {
		return guess.Vapor().pressureSI(Total), nil
	}
	if cc, ok := e.(CriticalConstants); ok {
		tc, pc, omega := cc.CriticalTemperature()[0], cc.CriticalPressure()[0], cc.AcentricFactor()[0]
		if t >= tc {
			return 0, &SuperCriticalError{}
		}
		return pc * math.Exp(5.373*(1+omega)*(1-tc/t)), nil
	}
	cp, err := criticalPointSI(e, []float64{1}, 0, SolverOptions{})
	if err != nil {
		return 0, err
	}
	if t >= cp.t {
		return 0, &SuperCriticalError{}
	}
	return cp.pressureSI(Total) * math.Exp(5.373*(1-cp.t/t)), nil
}

func initialSaturationTemperature(e EquationOfState, p float64, guess *PhaseEquilibrium) (float64, error) {
	if guess != nil {
		return guess.Vapor().t, nil
	}
	var tc, pc, omega float64
	if cc, ok := e.(CriticalConstants); ok {
		tc, pc, omega = cc.CriticalTemperature()[0], cc.CriticalPressure()[0], cc.AcentricFactor()[0]
	} else {
		cp, err := criticalPointSI(e, []float64{1}, 0, SolverOptions{})
		if err != nil {
			return 0, err
		}
		tc, pc = cp.t, cp.pressureSI(Total)
	}
	if p >= pc {
		return 0, &SuperCriticalError{}
	}
	// inverted Wilson correlation
	return tc / (1 - math.Log(p/pc)/(5.373*(1+omega))), nil
}

// vlePureComponents computes the saturation state of every component at
// the given specification; nil entries mark supercritical components.
func vlePureComponents(e EquationOfState, spec TPSpec, opts SolverOptions) []*PhaseEquilibrium {
	out := make([]*PhaseEquilibrium, e.Components())
	for i := range out {
		sub := e.Subset([]int{i})
		var vle *PhaseEquilibrium
		var err error
		if spec.isPressure {
			vle, err = PureP(sub, quantity.New(spec.value, quantity.Pascal), nil, opts)
		} else {
			vle, err = pureTSI(sub, spec.value, nil, opts)
		}
		if err == nil {
			out[i] = vle
		}
	}
	return out
}
