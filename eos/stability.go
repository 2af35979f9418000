package eos

import "math"

// CriticalConstants is implemented by models that know their substance
// critical constants, enabling Wilson-correlation initial guesses. The
// solvers fall back to computed critical points when a model does not
// implement it.
type CriticalConstants interface {
	CriticalTemperature() []float64
	CriticalPressure() []float64
	AcentricFactor() []float64
}

// wilsonLnK returns the Wilson correlation estimate
// ln K_i = ln(pc_i/p) + 5.373 (1+omega_i)(1 - tc_i/T).
func wilsonLnK(e EquationOfState, t, p float64) ([]float64, bool) {
	cc, ok := e.(CriticalConstants)
	if !ok {
		return nil, false
	}
	tc, pc, omega := cc.CriticalTemperature(), cc.CriticalPressure(), cc.AcentricFactor()
	lnK := make([]float64, len(tc))
	for i := range tc {
		lnK[i] = math.Log(pc[i]/p) + 5.373*(1+omega[i])*(1-tc[i]/t)
	}
	return lnK, true
}

// StabilityResult is the verdict of the tangent-plane-distance test.
type StabilityResult struct {
	Stable bool
	// TangentPlaneDistance is the lowest reduced TPD over all converged
	// trials; negative for an unstable state.
	TangentPlaneDistance float64
	// TrialComposition minimizes the TPD. Only set when unstable; it
	// seeds the phase-split solvers.
	TrialComposition []float64
}

const (
	stabilityMaxIter = 200
	stabilityTol     = 1e-9
	stabilityNegTol  = -1e-8
)

// Stability runs the tangent-plane-distance test on the bulk state:
// pure-component and Wilson K-factor trial compositions are relaxed by
// successive substitution at the bulk temperature and pressure, and the
// lowest converged TPD decides the verdict. A negative minimum means a
// lower-Gibbs split exists and the minimizer is returned as a seed.
func Stability(s *State, opts SolverOptions) (StabilityResult, error) {
	n := len(s.moles)
	t := s.t
	p := s.pressureSI(Total)
	z := s.x
	lnPhiZ := s.lnPhiSI()

	// d_i is the tangent-plane reference.
	d := make([]float64, n)
	for i := range d {
		d[i] = math.Log(z[i]) + lnPhiZ[i]
	}

	var seeds [][]float64
	for k := 0; k < n; k++ {
		w := make([]float64, n)
		for i := range w {
			w[i] = 0.01 / float64(n)
		}
		w[k] = 0.99
		seeds = append(seeds, w)
	}
	if lnK, ok := wilsonLnK(s.eos, t, p); ok && n > 1 {
		up := make([]float64, n)
		down := make([]float64, n)
		for i := range lnK {
			up[i] = z[i] * math.Exp(lnK[i])
			down[i] = z[i] * math.Exp(-lnK[i])
		}
		seeds = append(seeds, up, down)
	}

	maxIter, tol := opts.orDefault(stabilityMaxIter, stabilityTol)
	best := StabilityResult{Stable: true, TangentPlaneDistance: math.Inf(1)}
	converged := 0
	for _, w := range seeds {
		tm, wmin, ok := minimizeTPD(s.eos, t, p, d, w, maxIter, tol)
		if !ok {
			continue
		}
		converged++
		if tm < best.TangentPlaneDistance {
			best.TangentPlaneDistance = tm
			best.TrialComposition = wmin
		}
		if tm < stabilityNegTol {
			best.Stable = false
		}
	}
	if converged == 0 {
		return StabilityResult{}, &StabilityInconclusiveError{Trials: len(seeds)}
	}
	if best.Stable {
		best.TrialComposition = nil
	}
	return best, nil
}

// minimizeTPD relaxes one trial by successive substitution
// ln W_i <- d_i - ln phi_i(W) and returns the reduced tangent-plane
// distance at the stationary point.
func minimizeTPD(e EquationOfState, t, p float64, d, w0 []float64, maxIter int, tol float64) (float64, []float64, bool) {
	n := len(w0)
	w := make([]float64, n)
	copy(w, w0)
	for iter := 0; iter < maxIter; iter++ {
		st, err := newStateTPSI(e, t, p, w, InitNone, SolverOptions{})
		if err != nil {
			return 0, nil, false
		}
		lnPhiW := st.lnPhiSI()
		delta := 0.0
		for i := range w {
			lnW := d[i] - lnPhiW[i]
			delta = math.Max(delta, math.Abs(lnW-math.Log(w[i])))
			w[i] = math.Exp(lnW)
		}
		if delta < tol {
			tm := 1.0
			for i := range w {
				tm += w[i] * (math.Log(w[i]) + lnPhiW[i] - d[i] - 1)
			}
			x := normalize(w)
			return tm, x, true
		}
	}
	return 0, nil, false
}

func normalize(w []float64) []float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	x := make([]float64, len(w))
	for i, v := range w {
		x[i] = v / total
	}
	return x
}
