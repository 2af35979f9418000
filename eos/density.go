package eos

import (
	"math"

	"eoscalc/quantity"
)

// DensityInitialization selects the density branch a pressure-based
// state construction aims for.
type DensityInitialization int

const (
	// InitNone solves both branches and keeps the one with the lower
	// molar Gibbs energy.
	InitNone DensityInitialization = iota
	InitVapor
	InitLiquid
)

const (
	densityMaxIter = 50
	densityTol     = 1e-12
	bisectMaxIter  = 100
	scanPoints     = 64
)

// solveDensity finds the molar density rho with p(T, rho, x) = p by
// Newton iteration with the analytic dp/drho, starting from rho0.
// Steps that leave (0, rhoMax) are clamped; a stalled or non-monotone
// iteration falls back to bisection on a bracket scanned from
// near-vacuum to near close-packing. Works on a one-mole basis.
func solveDensity(e EquationOfState, t, p float64, x []float64, rho0 float64, opts SolverOptions) (float64, error) {
	maxIter, tol := opts.orDefault(densityMaxIter, densityTol)
	rhoMax := e.MaxDensity(x)
	rho := math.Min(math.Max(rho0, 1e-10*rhoMax), 0.99*rhoMax)

	for iter := 0; iter < maxIter; iter++ {
		st, err := newStateNVT(e, t, 1/rho, x)
		if err != nil {
			return 0, err
		}
		f := st.pressureSI(Total) - p
		dpdrho := st.dpdvSI(Total) * (-1 / (rho * rho))
		opts.trace("density iteration %3d: rho=%.8e residual=%.8e", iter, rho, f)
		if math.Abs(f) <= tol*math.Max(p, 1.0) {
			return rho, nil
		}
		if math.IsNaN(f) || dpdrho <= 0 {
			// inside the spinodal or outside the model's domain
			return bisectDensity(e, t, p, x, rho0, rhoMax, opts)
		}
		step := f / dpdrho
		next := rho - step
		switch {
		case next <= 0:
			next = rho / 2
		case next >= rhoMax:
			next = (rho + rhoMax) / 2
		}
		rho = next
	}
	return bisectDensity(e, t, p, x, rho0, rhoMax, opts)
}

// bisectDensity scans trial densities for sign changes of p(rho) - p on
// a rising branch and bisects the bracket nearest the seed.
func bisectDensity(e EquationOfState, t, p float64, x []float64, rho0, rhoMax float64, opts SolverOptions) (float64, error) {
	_, tol := opts.orDefault(densityMaxIter, densityTol)
	residual := func(rho float64) float64 {
		st, err := newStateNVT(e, t, 1/rho, x)
		if err != nil {
			return math.NaN()
		}
		return st.pressureSI(Total) - p
	}

	lo, hi := math.NaN(), math.NaN()
	best := math.Inf(1)
	prevRho := 1e-8 * rhoMax
	prevF := residual(prevRho)
	ratio := math.Pow(0.99*rhoMax/prevRho, 1/float64(scanPoints-1))
	for k := 1; k < scanPoints; k++ {
		rho := prevRho * ratio
		f := residual(rho)
		if prevF < 0 && f > 0 || prevF > 0 && f < 0 {
			mid := (prevRho + rho) / 2
			if d := math.Abs(mid - rho0); d < best {
				best = d
				lo, hi = prevRho, rho
			}
		}
		prevRho, prevF = rho, f
	}
	if math.IsNaN(lo) {
		return 0, &ConvergenceError{Solver: "density", Iterations: scanPoints, Residual: prevF, Last: []float64{prevRho}}
	}

	flo := residual(lo)
	for iter := 0; iter < bisectMaxIter; iter++ {
		mid := (lo + hi) / 2
		f := residual(mid)
		opts.trace("density bisection %3d: rho=%.8e residual=%.8e", iter, mid, f)
		if math.Abs(f) <= tol*math.Max(p, 1.0) || hi-lo < 1e-14*rhoMax {
			return mid, nil
		}
		if (f < 0) == (flo < 0) {
			lo, flo = mid, f
		} else {
			hi = mid
		}
	}
	return 0, &ConvergenceError{Solver: "density bisection", Iterations: bisectMaxIter, Residual: residual((lo + hi) / 2), Last: []float64{(lo + hi) / 2}}
}

// newStateTPSI constructs a state at fixed temperature, pressure and
// mole numbers on raw SI values, aiming for the requested density
// branch.
func newStateTPSI(e EquationOfState, t, p float64, moles []float64, init DensityInitialization, opts SolverOptions) (*State, error) {
	if !(p > 0) || math.IsNaN(p) {
		return nil, &InvalidStateError{Where: "state at T,p", Var: "pressure", Value: p}
	}
	ntot := 0.0
	for _, m := range moles {
		ntot += m
	}
	if ntot <= 0 {
		return nil, &InvalidStateError{Where: "state at T,p", Var: "total moles", Value: ntot}
	}
	x := make([]float64, len(moles))
	for i, m := range moles {
		x[i] = m / ntot
	}
	rhoMax := e.MaxDensity(x)

	solveBranch := func(rho0 float64) (*State, error) {
		rho, err := solveDensity(e, t, p, x, rho0, opts)
		if err != nil {
			return nil, err
		}
		return newStateNVT(e, t, ntot/rho, moles)
	}

	switch init {
	case InitVapor:
		return solveBranch(p / (RGas * t))
	case InitLiquid:
		return solveBranch(0.8 * rhoMax)
	default:
		vap, errV := solveBranch(p / (RGas * t))
		liq, errL := solveBranch(0.8 * rhoMax)
		switch {
		case errV != nil && errL != nil:
			return nil, errV
		case errV != nil:
			return liq, nil
		case errL != nil:
			return vap, nil
		}
		if vap.gibbsSI(Total) <= liq.gibbsSI(Total) {
			return vap, nil
		}
		return liq, nil
	}
}

// NewStateTP constructs a state from temperature, pressure and mole
// numbers by solving for the density.
func NewStateTP(e EquationOfState, temperature, pressure quantity.Scalar, moles quantity.Vector, init DensityInitialization) (*State, error) {
	t, err := temperature.In(quantity.Kelvin)
	if err != nil {
		return nil, err
	}
	p, err := pressure.In(quantity.Pascal)
	if err != nil {
		return nil, err
	}
	n, err := moles.In(quantity.Mole)
	if err != nil {
		return nil, err
	}
	if !(t > 0) {
		return nil, &InvalidStateError{Where: "state at T,p", Var: "temperature", Value: t}
	}
	return newStateTPSI(e, t, p, n, init, SolverOptions{})
}

// NewStateTRho constructs a state from temperature, molar density and
// mole numbers.
func NewStateTRho(e EquationOfState, temperature, density quantity.Scalar, moles quantity.Vector) (*State, error) {
	t, err := temperature.In(quantity.Kelvin)
	if err != nil {
		return nil, err
	}
	rho, err := density.In(quantity.MolPerCubicMeter)
	if err != nil {
		return nil, err
	}
	n, err := moles.In(quantity.Mole)
	if err != nil {
		return nil, err
	}
	ntot := 0.0
	for _, m := range n {
		ntot += m
	}
	if !(rho > 0) {
		return nil, &InvalidStateError{Where: "state at T,rho", Var: "density", Value: rho}
	}
	return newStateNVT(e, t, ntot/rho, n)
}

const caloricMaxIter = 50

// newStateCaloric solves an outer 1-D Newton on temperature around the
// density solve so that the given caloric property matches its target.
// property returns the value and its temperature derivative at fixed p.
func newStateCaloric(e EquationOfState, p float64, moles []float64, init DensityInitialization,
	t0, target float64, name string,
	property func(*State) (float64, float64)) (*State, error) {

	t := t0
	for iter := 0; iter < caloricMaxIter; iter++ {
		st, err := newStateTPSI(e, t, p, moles, init, SolverOptions{})
		if err != nil {
			return nil, err
		}
		val, dvdt := property(st)
		f := val - target
		if math.Abs(f) <= 1e-9*math.Max(math.Abs(target), 1.0) {
			return st, nil
		}
		step := f / dvdt
		// temperature steps limited to 20% per iteration
		if math.Abs(step) > 0.2*t {
			step = math.Copysign(0.2*t, step)
		}
		t -= step
		if !(t > 0) {
			return nil, &ConvergenceError{Solver: name, Iterations: iter, Residual: f, Last: []float64{t}}
		}
	}
	return nil, &ConvergenceError{Solver: name, Iterations: caloricMaxIter, Residual: math.NaN(), Last: []float64{t}}
}

// NewStatePH constructs a state from pressure and molar enthalpy.
func NewStatePH(e EquationOfState, pressure, molarEnthalpy quantity.Scalar, moles quantity.Vector, init DensityInitialization, initialTemperature quantity.Scalar) (*State, error) {
	p, err := pressure.In(quantity.Pascal)
	if err != nil {
		return nil, err
	}
	h, err := molarEnthalpy.In(quantity.JoulePerMole)
	if err != nil {
		return nil, err
	}
	n, err := moles.In(quantity.Mole)
	if err != nil {
		return nil, err
	}
	t0, err := initialTemperature.In(quantity.Kelvin)
	if err != nil {
		return nil, err
	}
	return newStateCaloric(e, p, n, init, t0, h, "state at p,h", func(st *State) (float64, float64) {
		return st.enthalpySI(Total) / st.n, st.cpSI(Total) / st.n
	})
}

// NewStatePS constructs a state from pressure and molar entropy.
func NewStatePS(e EquationOfState, pressure, molarEntropy quantity.Scalar, moles quantity.Vector, init DensityInitialization, initialTemperature quantity.Scalar) (*State, error) {
	p, err := pressure.In(quantity.Pascal)
	if err != nil {
		return nil, err
	}
	sTarget, err := molarEntropy.In(quantity.JoulePerMoleKelvin)
	if err != nil {
		return nil, err
	}
	n, err := moles.In(quantity.Mole)
	if err != nil {
		return nil, err
	}
	t0, err := initialTemperature.In(quantity.Kelvin)
	if err != nil {
		return nil, err
	}
	return newStateCaloric(e, p, n, init, t0, sTarget, "state at p,s", func(st *State) (float64, float64) {
		return st.entropySI(Total) / st.n, st.cpSI(Total) / (st.n * st.t)
	})
}
