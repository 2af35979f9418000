package eos

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"eoscalc/dual"
	"eoscalc/quantity"
)

const (
	criticalMaxIter    = 50
	criticalTol        = 1e-8
	criticalMaxStepT   = 0.25
	criticalMaxStepRho = 0.03
)

// CriticalPoint solves for the state at which the mixture of the given
// composition is critical: the smallest eigenvalue of the scaled
// stability matrix and the third directional derivative of the
// Helmholtz energy along its eigenvector vanish simultaneously. The
// optional temperature seeds the Newton iteration.
func CriticalPoint(e EquationOfState, moles []float64, initTemperature quantity.Scalar, opts SolverOptions) (*State, error) {
	tInit := 0.0
	if v, _ := initTemperature.Value(); v != 0 && !math.IsNaN(v) {
		tInit = initTemperature.MustIn(quantity.Kelvin)
	}
	return criticalPointSI(e, moles, tInit, opts)
}

// CriticalPointPure computes the critical point of every component.
func CriticalPointPure(e EquationOfState, opts SolverOptions) ([]*State, error) {
	out := make([]*State, e.Components())
	for i := range out {
		cp, err := criticalPointSI(e.Subset([]int{i}), []float64{1}, 0, opts)
		if err != nil {
			return nil, err
		}
		out[i] = cp
	}
	return out, nil
}

func criticalPointSI(e EquationOfState, moles []float64, tInit float64, opts SolverOptions) (*State, error) {
	n := e.Components()
	if len(moles) != n {
		return nil, &ParameterError{Msg: "composition length does not match the number of components"}
	}
	for _, m := range moles {
		if m <= 0 {
			return nil, &ParameterError{Msg: "critical point requires strictly positive mole numbers"}
		}
	}
	z := normalize(moles)
	rhoMax := e.MaxDensity(z)

	ladder := []float64{300, 700, 500}
	if tInit > 0 {
		ladder = []float64{tInit}
	}
	var lastErr error
	for _, t0 := range ladder {
		cp, err := criticalNewton(e, z, t0, 0.3*rhoMax, rhoMax, opts)
		if err == nil {
			return cp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// criticalNewton runs a two dimensional Newton iteration in temperature
// and molar density. Each residual evaluation is repeated with a dual
// seed on one of the two variables to assemble the Jacobian column by
// column.
func criticalNewton(e EquationOfState, z []float64, t, rho, rhoMax float64, opts SolverOptions) (*State, error) {
	maxIter, tol := opts.orDefault(criticalMaxIter, criticalTol)
	for iter := 0; iter < maxIter; iter++ {
		r1t, r2t, err := criticalPointObjective(e, z,
			dual.Dual64{Re: dual.Float(t), Eps: 1},
			dual.Dual64{Re: dual.Float(rho)})
		if err != nil {
			return nil, err
		}
		r1r, r2r, err := criticalPointObjective(e, z,
			dual.Dual64{Re: dual.Float(t)},
			dual.Dual64{Re: dual.Float(rho), Eps: 1})
		if err != nil {
			return nil, err
		}
		f1, f2 := r1t.Re.Real(), r2t.Re.Real()
		opts.trace("critical point iteration %3d: T=%.6e rho=%.6e residuals=(%.3e, %.3e)", iter, t, rho, f1, f2)
		if math.Abs(f1) < tol && math.Abs(f2) < tol {
			v := 1 / rho
			return newStateNVT(e, t, v, z)
		}
		// 2x2 Jacobian from the two dual evaluations
		j11, j21 := r1t.Eps.Real(), r2t.Eps.Real()
		j12, j22 := r1r.Eps.Real(), r2r.Eps.Real()
		det := j11*j22 - j12*j21
		if det == 0 || math.IsNaN(det) {
			return nil, &ConvergenceError{Solver: "critical point", Iterations: iter, Residual: math.Abs(f1) + math.Abs(f2), Last: []float64{t, rho}}
		}
		dt := (f1*j22 - f2*j12) / det
		drho := (f2*j11 - f1*j21) / det
		if math.Abs(dt) > criticalMaxStepT*t {
			dt = math.Copysign(criticalMaxStepT*t, dt)
		}
		if math.Abs(drho) > criticalMaxStepRho*rhoMax {
			drho = math.Copysign(criticalMaxStepRho*rhoMax, drho)
		}
		t -= dt
		rho -= drho
		if t <= 0 || rho <= 0 || rho >= rhoMax {
			return nil, &ConvergenceError{Solver: "critical point", Iterations: iter, Residual: math.NaN(), Last: []float64{t, rho}}
		}
	}
	return nil, &ConvergenceError{Solver: "critical point", Iterations: maxIter, Residual: math.NaN(), Last: []float64{t, rho}}
}

// criticalPointObjective evaluates the two criticality residuals at the
// given dual temperature and molar density (total amount 1 mol). The
// first residual is the smallest eigenvalue of
//
//	q_ij = sqrt(z_i z_j) d2(A/RT)/dn_i dn_j
//
// at constant T and V, the second the third derivative of A/RT along
// the corresponding eigenvector. Both keep the dual components of the
// inputs alive, so one evaluation also yields a Jacobian column.
func criticalPointObjective(e EquationOfState, z []float64, t, rho dual.Dual64) (r1, r2 dual.Dual64, err error) {
	n := len(z)
	v := rho.Recip()

	// stability matrix via nested hyper-dual evaluations
	q := make([][]dual.Dual64, n)
	for i := range q {
		q[i] = make([]dual.Dual64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			mh := make([]dual.NestedHyper64, n)
			for k := 0; k < n; k++ {
				mh[k] = dual.NewHyperDual(dual.Dual64{Re: dual.Float(z[k])})
			}
			mh[i].E1 = dual.Const[dual.Dual64](1)
			mh[j].E2 = dual.Const[dual.Dual64](1)
			sh := NewStateHD(dual.NewHyperDual(t), dual.NewHyperDual(v), mh)
			a := helmholtz(e, Total, sh)
			rt := t.MulFloat(RGas)
			q[i][j] = a.E12.Div(rt).MulFloat(math.Sqrt(z[i] * z[j]))
			q[j][i] = q[i][j]
		}
	}

	lambda, u := smallestEigen(q)
	r1 = lambda

	// third directional derivative along the scaled eigenvector
	mt := make([]dual.NestedThird64, n)
	for k := 0; k < n; k++ {
		mt[k] = dual.Dual3[dual.Dual64]{
			Re: dual.Dual64{Re: dual.Float(z[k])},
			V1: u[k].MulFloat(math.Sqrt(z[k])),
		}
	}
	st := NewStateHD(dual.NewDual3(t), dual.NewDual3(v), mt)
	a3 := helmholtz(e, Total, st)
	r2 = a3.V3.Div(t.MulFloat(RGas))

	if math.IsNaN(r1.Re.Real()) || math.IsNaN(r2.Re.Real()) {
		return r1, r2, &DomainError{Property: "criticality conditions"}
	}
	return r1, r2, nil
}

// smallestEigen returns the smallest eigenvalue of the symmetric dual
// matrix q together with its eigenvector. The decomposition runs on the
// real parts; the dual components follow from first order perturbation
// theory,
//
//	lambda' = u0' Q' u0
//	u0'     = sum_{k>0} (uk' Q' u0) / (lambda0 - lambdak) uk.
func smallestEigen(q [][]dual.Dual64) (dual.Dual64, []dual.Dual64) {
	n := len(q)
	if n == 1 {
		return q[0][0], []dual.Dual64{{Re: 1}}
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, q[i][j].Re.Real())
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		nan := dual.Dual64{Re: dual.Float(math.NaN())}
		return nan, make([]dual.Dual64, n)
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	// eigenvalues come back in ascending order
	lam0 := vals[0]
	u0 := mat.Col(nil, 0, &vecs)

	// Q' u0 per column of the perturbation
	qpu := make([]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for j := 0; j < n; j++ {
			s += q[i][j].Eps.Real() * u0[j]
		}
		qpu[i] = s
	}
	lamEps := 0.0
	for i := 0; i < n; i++ {
		lamEps += u0[i] * qpu[i]
	}
	uEps := make([]float64, n)
	for k := 1; k < n; k++ {
		uk := mat.Col(nil, k, &vecs)
		num := 0.0
		for i := 0; i < n; i++ {
			num += uk[i] * qpu[i]
		}
		c := num / (lam0 - vals[k])
		for i := 0; i < n; i++ {
			uEps[i] += c * uk[i]
		}
	}

	lambda := dual.Dual64{Re: dual.Float(lam0), Eps: dual.Float(lamEps)}
	u := make([]dual.Dual64, n)
	for i := 0; i < n; i++ {
		u[i] = dual.Dual64{Re: dual.Float(u0[i]), Eps: dual.Float(uEps[i])}
	}
	return lambda, u
}

// CriticalPointBinaryT locates the composition of a binary mixture
// whose critical temperature equals the given one, by bisection over
// the mole fraction of the first component.
func CriticalPointBinaryT(e EquationOfState, temperature quantity.Scalar, opts SolverOptions) (*State, error) {
	t := temperature.MustIn(quantity.Kelvin)
	return criticalBinary(e, opts, func(cp *State) float64 { return cp.t - t })
}

// CriticalPointBinaryP locates the composition of a binary mixture
// whose critical pressure equals the given one.
func CriticalPointBinaryP(e EquationOfState, pressure quantity.Scalar, opts SolverOptions) (*State, error) {
	p := pressure.MustIn(quantity.Pascal)
	return criticalBinary(e, opts, func(cp *State) float64 { return cp.pressureSI(Total) - p })
}

func criticalBinary(e EquationOfState, opts SolverOptions, objective func(*State) float64) (*State, error) {
	if e.Components() != 2 {
		return nil, &ParameterError{Msg: "binary critical point requires exactly two components"}
	}
	const (
		xEps    = 1e-4
		maxIter = 50
		tolX    = 1e-8
	)
	eval := func(x1 float64) (*State, float64, error) {
		cp, err := criticalPointSI(e, []float64{x1, 1 - x1}, 0, opts)
		if err != nil {
			return nil, 0, err
		}
		return cp, objective(cp), nil
	}
	lo, hi := xEps, 1-xEps
	cpLo, fLo, err := eval(lo)
	if err != nil {
		return nil, err
	}
	cpHi, fHi, err := eval(hi)
	if err != nil {
		return nil, err
	}
	if fLo == 0 {
		return cpLo, nil
	}
	if fHi == 0 {
		return cpHi, nil
	}
	if fLo*fHi > 0 {
		return nil, &ConvergenceError{Solver: "binary critical point", Iterations: 0, Residual: math.Min(math.Abs(fLo), math.Abs(fHi)), Last: []float64{lo, hi}}
	}
	var cp *State
	for iter := 0; iter < maxIter; iter++ {
		mid := 0.5 * (lo + hi)
		var f float64
		cp, f, err = eval(mid)
		if err != nil {
			return nil, err
		}
		if f == 0 || hi-lo < tolX {
			return cp, nil
		}
		if f*fLo < 0 {
			hi = mid
		} else {
			lo, fLo = mid, f
		}
	}
	return cp, nil
}
