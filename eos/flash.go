package eos

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"eoscalc/quantity"
)

const (
	flashMaxSS     = 50
	flashMaxNewton = 50
	flashTolSS     = 1e-8
	flashTol       = 1e-12
	rrMaxIter      = 50
	rrTol          = 1e-13
)

// VaporFraction is the molar fraction of the feed in the vapor phase.
func (pe *PhaseEquilibrium) VaporFraction() float64 {
	nv := pe.states[0].n
	total := 0.0
	for _, s := range pe.states {
		total += s.n
	}
	return nv / total
}

// TPFlash splits a feed at fixed temperature and pressure into a vapor
// and a liquid phase. If the feed is stable according to tangent plane
// analysis a NoPhaseSplitError is returned. Successive substitution is
// run first; the remaining distance to the solution is closed by a full
// Newton iteration on the vapor component amounts.
func TPFlash(e EquationOfState, temperature, pressure quantity.Scalar, feed []float64, opts SolverOptions) (*PhaseEquilibrium, error) {
	t := temperature.MustIn(quantity.Kelvin)
	p := pressure.MustIn(quantity.Pascal)
	n := e.Components()
	if len(feed) != n {
		return nil, &ParameterError{Msg: "feed length does not match the number of components"}
	}
	ntot := 0.0
	for _, f := range feed {
		if f < 0 {
			return nil, &ParameterError{Msg: "negative feed amount"}
		}
		ntot += f
	}
	if ntot <= 0 {
		return nil, &ParameterError{Msg: "empty feed"}
	}
	z := normalize(feed)
	maxIter, tol := opts.orDefault(flashMaxNewton, flashTol)

	if n == 1 {
		return nil, &ParameterError{Msg: "flash requires a mixture, use pure saturation instead"}
	}

	feedState, err := newStateTPSI(e, t, p, z, InitNone, SolverOptions{})
	if err != nil {
		return nil, err
	}
	stab, err := Stability(feedState, opts)
	if err != nil {
		return nil, err
	}
	if stab.Stable {
		return nil, &NoPhaseSplitError{}
	}

	lnK := flashInitialLnK(e, feedState, stab, t, p)

	// successive substitution
	var beta float64
	v := make([]float64, n)
	l := make([]float64, n)
	var vap, liq *State
	for iter := 0; iter < flashMaxSS; iter++ {
		beta, err = rachfordRice(z, lnK)
		if err != nil {
			return nil, err
		}
		x := make([]float64, n)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			k := math.Exp(lnK[i])
			x[i] = z[i] / (1 + beta*(k-1))
			y[i] = k * x[i]
		}
		liq, err = newStateTPSI(e, t, p, x, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}
		vap, err = newStateTPSI(e, t, p, y, InitVapor, SolverOptions{})
		if err != nil {
			return nil, err
		}
		lnPhiL := liq.lnPhiSI()
		lnPhiV := vap.lnPhiSI()
		delta := 0.0
		for i := 0; i < n; i++ {
			next := lnPhiL[i] - lnPhiV[i]
			delta += math.Abs(next - lnK[i])
			lnK[i] = next
		}
		opts.trace("flash substitution %3d: beta=%.6f delta=%.6e", iter, beta, delta)
		if delta < flashTolSS {
			break
		}
	}
	for i := 0; i < n; i++ {
		k := math.Exp(lnK[i])
		v[i] = beta * k * z[i] / (1 + beta*(k-1))
		l[i] = z[i] - v[i]
	}

	// Newton iteration on the vapor component amounts
	res := make([]float64, n)
	jac := mat.NewDense(n, n, nil)
	for iter := 0; iter < maxIter; iter++ {
		beta = 0
		for i := 0; i < n; i++ {
			beta += v[i]
		}
		x := make([]float64, n)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			y[i] = v[i] / beta
			x[i] = l[i] / (1 - beta)
		}
		liq, err = newStateTPSI(e, t, p, x, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}
		vap, err = newStateTPSI(e, t, p, y, InitVapor, SolverOptions{})
		if err != nil {
			return nil, err
		}
		lnPhiL := liq.lnPhiSI()
		lnPhiV := vap.lnPhiSI()
		norm := 0.0
		for i := 0; i < n; i++ {
			res[i] = lnPhiV[i] + math.Log(y[i]) - lnPhiL[i] - math.Log(x[i])
			norm += res[i] * res[i]
		}
		norm = math.Sqrt(norm)
		opts.trace("flash newton %3d: beta=%.6f residual=%.6e", iter, beta, norm)
		if norm <= tol*float64(n) || norm <= tol {
			vapF, err := newStateTPSI(e, t, p, scaled(v, ntot), InitVapor, SolverOptions{})
			if err != nil {
				return nil, err
			}
			liqF, err := newStateTPSI(e, t, p, scaled(l, ntot), InitLiquid, SolverOptions{})
			if err != nil {
				return nil, err
			}
			return newTwoPhase(vapF, liqF), nil
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				jij := vap.dLnPhiDnSI(i, j)/beta + liq.dLnPhiDnSI(i, j)/(1-beta) - 1/beta - 1/(1-beta)
				if i == j {
					jij += 1/v[i] + 1/l[i]
				}
				jac.Set(i, j, jij)
			}
		}
		step := mat.NewVecDense(n, nil)
		if err := step.SolveVec(jac, mat.NewVecDense(n, res)); err != nil {
			return nil, &ConvergenceError{Solver: "tp flash", Iterations: iter, Residual: norm, Last: v}
		}
		// damp so every phase keeps a positive amount of every component
		alpha := 1.0
		for i := 0; i < n; i++ {
			d := step.AtVec(i)
			if nv := v[i] - alpha*d; nv <= 0 {
				alpha = 0.5 * v[i] / d
			}
			if nl := l[i] + alpha*d; nl <= 0 {
				alpha = -0.5 * l[i] / d
			}
		}
		for i := 0; i < n; i++ {
			v[i] -= alpha * step.AtVec(i)
			l[i] = z[i] - v[i]
		}
	}
	return nil, &ConvergenceError{Solver: "tp flash", Iterations: maxIter, Residual: math.NaN(), Last: v}
}

// flashInitialLnK seeds the K factors from the Wilson correlation when
// critical constants are available, otherwise from the unstable trial
// composition found by the stability analysis.
func flashInitialLnK(e EquationOfState, feed *State, stab StabilityResult, t, p float64) []float64 {
	if lnK, ok := wilsonLnK(e, t, p); ok {
		return lnK
	}
	lnK := make([]float64, len(stab.TrialComposition))
	for i := range lnK {
		lnK[i] = math.Log(stab.TrialComposition[i] / feed.x[i])
	}
	return lnK
}

// rachfordRice solves the material balance
// sum_i z_i (K_i - 1) / (1 + beta (K_i - 1)) = 0 for the vapor fraction
// with a bisection-safeguarded Newton iteration inside the asymptote
// bounds.
func rachfordRice(z, lnK []float64) (float64, error) {
	lo, hi := 0.0, 1.0
	for i := range z {
		k := math.Exp(lnK[i])
		if k > 1 {
			if b := -1 / (k - 1); b > lo {
				lo = b
			}
		} else if k < 1 {
			if b := 1 / (1 - k); b < hi {
				hi = b
			}
		}
	}
	lo = math.Max(lo, 1e-10)
	hi = math.Min(hi, 1-1e-10)
	if lo >= hi {
		return 0, &ConvergenceError{Solver: "rachford-rice", Iterations: 0, Residual: math.NaN()}
	}
	beta := 0.5 * (lo + hi)
	for iter := 0; iter < rrMaxIter; iter++ {
		var f, df float64
		for i := range z {
			km1 := math.Exp(lnK[i]) - 1
			d := 1 + beta*km1
			f += z[i] * km1 / d
			df -= z[i] * km1 * km1 / (d * d)
		}
		if math.Abs(f) < rrTol {
			return beta, nil
		}
		if f > 0 {
			lo = beta
		} else {
			hi = beta
		}
		next := beta - f/df
		if next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		beta = next
	}
	return beta, nil
}

func scaled(v []float64, factor float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * factor
	}
	return out
}
