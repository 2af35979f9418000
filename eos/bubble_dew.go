package eos

import (
	"math"
)

const (
	bubbleDewMaxOuter = 100
	bubbleDewMaxInner = 5
	bubbleDewTol      = 1e-10
	bubbleDewTolInner = 1e-12
)

// BubblePoint computes the bubble point of a mixture with known liquid
// composition. The specification fixes temperature or pressure; the
// other one is iterated together with the vapor composition. A previous
// equilibrium may seed the iteration.
func BubblePoint(e EquationOfState, spec TPSpec, liquid []float64, guess *PhaseEquilibrium, opts SolverOptions) (*PhaseEquilibrium, error) {
	return bubbleDew(e, spec, liquid, guess, true, opts)
}

// DewPoint computes the dew point of a mixture with known vapor
// composition.
func DewPoint(e EquationOfState, spec TPSpec, vapor []float64, guess *PhaseEquilibrium, opts SolverOptions) (*PhaseEquilibrium, error) {
	return bubbleDew(e, spec, vapor, guess, false, opts)
}

// bubbleDew runs a nested iteration: successive substitution on the
// incipient phase composition inside a Newton loop on the free variable
// (p at fixed T, T at fixed p). Convergence requires both the closure
// sum(K x) = 1 (resp. sum(y/K) = 1) and a stationary composition.
func bubbleDew(e EquationOfState, spec TPSpec, known []float64, guess *PhaseEquilibrium, bubble bool, opts SolverOptions) (*PhaseEquilibrium, error) {
	n := e.Components()
	if len(known) != n {
		return nil, &ParameterError{Msg: "composition length does not match the number of components"}
	}
	maxIter, tol := opts.orDefault(bubbleDewMaxOuter, bubbleDewTol)
	z := normalize(known)

	t, p, incipient, err := bubbleDewInit(e, spec, z, guess, bubble)
	if err != nil {
		return nil, err
	}

	solver := "bubble point"
	if !bubble {
		solver = "dew point"
	}

	var f float64
	for iter := 0; iter < maxIter; iter++ {
		var liq, vap *State
		var lnK []float64
		// inner successive substitution on the incipient phase
		for inner := 0; inner < bubbleDewMaxInner; inner++ {
			xl, yv := z, incipient
			if !bubble {
				xl, yv = incipient, z
			}
			liq, err = newStateTPSI(e, t, p, xl, InitLiquid, SolverOptions{})
			if err != nil {
				return nil, err
			}
			vap, err = newStateTPSI(e, t, p, yv, InitVapor, SolverOptions{})
			if err != nil {
				return nil, err
			}
			lnPhiL := liq.lnPhiSI()
			lnPhiV := vap.lnPhiSI()
			lnK = make([]float64, n)
			next := make([]float64, n)
			var delta float64
			for i := 0; i < n; i++ {
				lnK[i] = lnPhiL[i] - lnPhiV[i]
				if bubble {
					next[i] = z[i] * math.Exp(lnK[i])
				} else {
					next[i] = z[i] * math.Exp(-lnK[i])
				}
			}
			sum := 0.0
			for _, w := range next {
				sum += w
			}
			for i := range next {
				w := next[i] / sum
				delta += math.Abs(w - incipient[i])
				incipient[i] = w
			}
			if delta < bubbleDewTolInner {
				break
			}
		}

		// closure residual and its derivative with respect to the
		// free variable
		f = -1.0
		dfdv := 0.0
		for i := 0; i < n; i++ {
			var ki float64
			if bubble {
				ki = z[i] * math.Exp(lnK[i])
			} else {
				ki = z[i] * math.Exp(-lnK[i])
			}
			f += ki
			var dlnK float64
			if spec.isPressure {
				dlnK = liq.dLnPhiDtSI(i) - vap.dLnPhiDtSI(i)
			} else {
				dlnK = liq.dLnPhiDpSI(i) - vap.dLnPhiDpSI(i)
			}
			if bubble {
				dfdv += ki * dlnK
			} else {
				dfdv -= ki * dlnK
			}
		}
		opts.trace("%s iteration %3d: T=%.6e p=%.6e residual=%.6e", solver, iter, t, p, f)
		if math.Abs(f) <= tol {
			if trivial(z, incipient) {
				return nil, &TrivialSolutionError{Solver: solver}
			}
			return newTwoPhase(vap, liq), nil
		}
		step := f / dfdv
		if spec.isPressure {
			if math.Abs(step) > 0.1*t {
				step = math.Copysign(0.1*t, step)
			}
			t -= step
			if t <= 0 {
				t = (t + step) / 2
			}
		} else {
			if math.Abs(step) > 0.5*p {
				step = math.Copysign(0.5*p, step)
			}
			p -= step
			if p <= 0 {
				p = (p + step) / 2
			}
		}
	}
	return nil, &ConvergenceError{Solver: solver, Iterations: maxIter, Residual: f, Last: []float64{t, p}}
}

// bubbleDewInit seeds temperature, pressure and the incipient phase
// composition from a previous equilibrium or the Wilson correlation.
func bubbleDewInit(e EquationOfState, spec TPSpec, z []float64, guess *PhaseEquilibrium, bubble bool) (t, p float64, incipient []float64, err error) {
	n := len(z)
	if guess != nil {
		t = guess.Vapor().t
		p = guess.Vapor().pressureSI(Total)
		if spec.isPressure {
			p = spec.value
		} else {
			t = spec.value
		}
		src := guess.Vapor()
		if !bubble {
			src = guess.Liquid()
		}
		incipient = append([]float64(nil), src.x...)
		return t, p, incipient, nil
	}

	cc, ok := e.(CriticalConstants)
	if !ok {
		return 0, 0, nil, &ParameterError{Msg: "bubble and dew point iterations need critical constants or an initial guess"}
	}
	tc, pc, omega := cc.CriticalTemperature(), cc.CriticalPressure(), cc.AcentricFactor()

	if spec.isPressure {
		p = spec.value
		// composition-weighted inverted Wilson correlation
		t = 0
		for i := 0; i < n; i++ {
			ti := tc[i] / (1 - math.Log(p/pc[i])/(5.373*(1+omega[i])))
			t += z[i] * ti
		}
	} else {
		t = spec.value
		if bubble {
			p = 0
			for i := 0; i < n; i++ {
				p += z[i] * pc[i] * math.Exp(5.373*(1+omega[i])*(1-tc[i]/t))
			}
		} else {
			inv := 0.0
			for i := 0; i < n; i++ {
				inv += z[i] / (pc[i] * math.Exp(5.373*(1+omega[i])*(1-tc[i]/t)))
			}
			p = 1 / inv
		}
	}

	lnK, _ := wilsonLnK(e, t, p)
	incipient = make([]float64, n)
	for i := 0; i < n; i++ {
		if bubble {
			incipient[i] = z[i] * math.Exp(lnK[i])
		} else {
			incipient[i] = z[i] * math.Exp(-lnK[i])
		}
	}
	return t, p, normalize(incipient), nil
}

func trivial(a, b []float64) bool {
	d := 0.0
	for i := range a {
		d += math.Abs(a[i] - b[i])
	}
	return d < 1e-8
}
