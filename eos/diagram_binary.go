package eos

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"eoscalc/quantity"
)

// PhaseDiagramBinary is an isothermal pxy or isobaric Txy diagram of a
// binary mixture. Every entry is a bubble point: the liquid composition
// is the walked variable, the vapor composition traces the dew curve.
type PhaseDiagramBinary struct {
	Spec   TPSpec
	States []*PhaseEquilibrium
}

// NewPhaseDiagramBinary walks bubble points of a binary mixture over
// the composition range. The walk starts at each subcritical pure end
// with the pure saturation point and continues inward with the
// previous solution as guess; when a component is supercritical at the
// specification its branch ends at the mixture critical line instead of
// the pure substance axis.
func NewPhaseDiagramBinary(e EquationOfState, spec TPSpec, npoints int, opts SolverOptions) (*PhaseDiagramBinary, error) {
	if e.Components() != 2 {
		return nil, &ParameterError{Msg: "binary phase diagram requires exactly two components"}
	}
	if npoints < 2 {
		return nil, &ParameterError{Msg: "binary phase diagram requires at least two points"}
	}
	pure := vlePureComponents(e, spec, opts)

	// composition limits of the walk in x1
	lo, hi := 0.0, 1.0
	if pure[0] == nil {
		cp, err := binaryCriticalAt(e, spec, opts)
		if err != nil {
			return nil, err
		}
		hi = cp.x[0]
	}
	if pure[1] == nil {
		cp, err := binaryCriticalAt(e, spec, opts)
		if err != nil {
			return nil, err
		}
		lo = cp.x[0]
	}
	if pure[0] == nil && pure[1] == nil {
		return nil, &SuperCriticalError{}
	}

	// walk each branch from its pure end toward the middle
	var fromLow, fromHigh []*PhaseEquilibrium
	if pure[1] != nil {
		fromLow = walkBubble(e, spec, pure[1], lo, 0.5*(lo+hi), npoints/2+1, opts)
	}
	if pure[0] != nil {
		fromHigh = walkBubble(e, spec, pure[0], hi, 0.5*(lo+hi), npoints-npoints/2, opts)
	}

	states := make([]*PhaseEquilibrium, 0, npoints+2)
	states = append(states, fromLow...)
	for i := len(fromHigh) - 1; i >= 0; i-- {
		states = append(states, fromHigh[i])
	}
	if len(states) == 0 {
		return nil, &ConvergenceError{Solver: "binary phase diagram", Iterations: 0, Residual: math.NaN()}
	}
	return &PhaseDiagramBinary{Spec: spec, States: states}, nil
}

// walkBubble runs a continuation from x1=start to x1=end. A point that
// fails to converge ends the branch; the diagram keeps what was
// reached.
func walkBubble(e EquationOfState, spec TPSpec, pureEnd *PhaseEquilibrium, start, end float64, npoints int, opts SolverOptions) []*PhaseEquilibrium {
	out := make([]*PhaseEquilibrium, 0, npoints)
	guess := pureVLEAsBinary(e, pureEnd, start)
	if guess == nil {
		return out
	}
	out = append(out, guess)
	for k := 1; k < npoints; k++ {
		x1 := start + (end-start)*float64(k)/float64(npoints-1)
		if x1 <= 0 || x1 >= 1 {
			continue
		}
		vle, err := BubblePoint(e, spec, []float64{x1, 1 - x1}, guess, opts)
		if err != nil {
			break
		}
		out = append(out, vle)
		guess = vle
	}
	return out
}

// pureVLEAsBinary embeds the saturation point of one pure component
// into the binary composition space so it can seed the first mixture
// solve and appear as the diagram end point.
func pureVLEAsBinary(e EquationOfState, vle *PhaseEquilibrium, x1 float64) *PhaseEquilibrium {
	x1 = clampFraction(x1)
	x := []float64{x1, 1 - x1}
	t := vle.Vapor().t
	p := vle.Vapor().pressureSI(Total)
	vap, errV := newStateTPSI(e, t, p, x, InitVapor, SolverOptions{})
	liq, errL := newStateTPSI(e, t, p, x, InitLiquid, SolverOptions{})
	if errV != nil || errL != nil {
		return nil
	}
	return newTwoPhase(vap, liq)
}

func binaryCriticalAt(e EquationOfState, spec TPSpec, opts SolverOptions) (*State, error) {
	if spec.isPressure {
		return CriticalPointBinaryP(e, quantity.New(spec.value, quantity.Pascal), opts)
	}
	return CriticalPointBinaryT(e, quantity.New(spec.value, quantity.Kelvin), opts)
}

// BinaryDiagramRow is one bubble point in SI units, tagged for CSV
// export.
type BinaryDiagramRow struct {
	Temperature   float64 `csv:"temperature [K]"`
	Pressure      float64 `csv:"pressure [Pa]"`
	LiquidX1      float64 `csv:"liquid mole fraction component 1"`
	VaporY1       float64 `csv:"vapor mole fraction component 1"`
	DensityLiquid float64 `csv:"molar density liquid [mol/m3]"`
	DensityVapor  float64 `csv:"molar density vapor [mol/m3]"`
}

func (d *PhaseDiagramBinary) Rows() []BinaryDiagramRow {
	rows := make([]BinaryDiagramRow, 0, len(d.States))
	for _, vle := range d.States {
		v, l := vle.Vapor(), vle.Liquid()
		rows = append(rows, BinaryDiagramRow{
			Temperature:   v.t,
			Pressure:      v.pressureSI(Total),
			LiquidX1:      l.x[0],
			VaporY1:       v.x[0],
			DensityLiquid: l.n / l.v,
			DensityVapor:  v.n / v.v,
		})
	}
	return rows
}

// HeteroAzeotrope is a three phase vapor-liquid-liquid equilibrium of a
// binary mixture.
type HeteroAzeotrope struct {
	Vapor   *State
	Liquid1 *State
	Liquid2 *State
}

const (
	heteroMaxIter = 100
	heteroTol     = 1e-10
)

// Heteroazeotrope solves the three phase equilibrium of a binary
// mixture at fixed temperature or pressure by a full Newton iteration
// on the free variable and the three phase compositions. The initial
// liquid compositions must lie on either side of the miscibility gap.
func Heteroazeotrope(e EquationOfState, spec TPSpec, x1Liquid1, x1Liquid2 float64, guessVar quantity.Scalar, opts SolverOptions) (*HeteroAzeotrope, error) {
	if e.Components() != 2 {
		return nil, &ParameterError{Msg: "heteroazeotrope requires exactly two components"}
	}
	maxIter, tol := opts.orDefault(heteroMaxIter, heteroTol)

	var t, p float64
	if spec.isPressure {
		p = spec.value
		t = guessVar.MustIn(quantity.Kelvin)
	} else {
		t = spec.value
		p = guessVar.MustIn(quantity.Pascal)
	}
	xA := x1Liquid1
	xB := x1Liquid2
	y := 0.5 * (xA + xB)

	res := make([]float64, 4)
	jac := mat.NewDense(4, 4, nil)
	for iter := 0; iter < maxIter; iter++ {
		vap, err := newStateTPSI(e, t, p, []float64{y, 1 - y}, InitVapor, SolverOptions{})
		if err != nil {
			return nil, err
		}
		liqA, err := newStateTPSI(e, t, p, []float64{xA, 1 - xA}, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}
		liqB, err := newStateTPSI(e, t, p, []float64{xB, 1 - xB}, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}

		lnFugV := lnFugacityFractions(vap)
		lnFugA := lnFugacityFractions(liqA)
		lnFugB := lnFugacityFractions(liqB)
		// equal fugacities of both components across V/A and V/B
		res[0] = lnFugV[0] - lnFugA[0]
		res[1] = lnFugV[1] - lnFugA[1]
		res[2] = lnFugV[0] - lnFugB[0]
		res[3] = lnFugV[1] - lnFugB[1]

		norm := 0.0
		for _, r := range res {
			norm += r * r
		}
		norm = math.Sqrt(norm)
		opts.trace("heteroazeotrope iteration %3d: T=%.6e p=%.6e residual=%.6e", iter, t, p, norm)
		if norm <= tol {
			if math.Abs(xA-xB) < 1e-6 {
				return nil, &TrivialSolutionError{Solver: "heteroazeotrope"}
			}
			return &HeteroAzeotrope{Vapor: vap, Liquid1: liqA, Liquid2: liqB}, nil
		}

		dV := lnFugacityGradient(vap)
		dA := lnFugacityGradient(liqA)
		dB := lnFugacityGradient(liqB)
		// unknowns: free variable (ln p or ln T), y, xA, xB
		for i := 0; i < 2; i++ {
			var fv, fa, fb float64
			if spec.isPressure {
				fv = t * vap.dLnPhiDtSI(i)
				fa = t * liqA.dLnPhiDtSI(i)
				fb = t * liqB.dLnPhiDtSI(i)
			} else {
				fv = p * vap.dLnPhiDpSI(i)
				fa = p * liqA.dLnPhiDpSI(i)
				fb = p * liqB.dLnPhiDpSI(i)
			}
			jac.Set(i, 0, fv-fa)
			jac.Set(i, 1, dV[i])
			jac.Set(i, 2, -dA[i])
			jac.Set(i, 3, 0)
			jac.Set(i+2, 0, fv-fb)
			jac.Set(i+2, 1, dV[i])
			jac.Set(i+2, 2, 0)
			jac.Set(i+2, 3, -dB[i])
		}

		step := mat.NewVecDense(4, nil)
		if err := step.SolveVec(jac, mat.NewVecDense(4, res)); err != nil {
			return nil, &ConvergenceError{Solver: "heteroazeotrope", Iterations: iter, Residual: norm, Last: []float64{t, p, y, xA, xB}}
		}
		if spec.isPressure {
			dlnT := clampAbs(step.AtVec(0), 0.1)
			t *= math.Exp(-dlnT)
		} else {
			dlnP := clampAbs(step.AtVec(0), 0.5)
			p *= math.Exp(-dlnP)
		}
		y = clampFraction(y - clampAbs(step.AtVec(1), 0.1))
		xA = clampFraction(xA - clampAbs(step.AtVec(2), 0.1))
		xB = clampFraction(xB - clampAbs(step.AtVec(3), 0.1))
	}
	return nil, &ConvergenceError{Solver: "heteroazeotrope", Iterations: maxIter, Residual: math.NaN(), Last: []float64{t, p, y, xA, xB}}
}

// lnFugacityFractions is ln(x_i phi_i) per component; the pressure
// factor is shared by all phases and drops out of the residuals.
func lnFugacityFractions(s *State) [2]float64 {
	lnPhi := s.lnPhiSI()
	return [2]float64{
		math.Log(s.x[0]) + lnPhi[0],
		math.Log(s.x[1]) + lnPhi[1],
	}
}

// lnFugacityGradient is the derivative of ln(x_i phi_i) with respect to
// the mole fraction of component 1 at constant temperature and
// pressure.
func lnFugacityGradient(s *State) [2]float64 {
	var g [2]float64
	for i := 0; i < 2; i++ {
		dPhi := s.dLnPhiDnSI(i, 0) - s.dLnPhiDnSI(i, 1)
		dLnX := 0.0
		if i == 0 {
			dLnX = 1 / s.x[0]
		} else {
			dLnX = -1 / s.x[1]
		}
		g[i] = dLnX + dPhi*s.n
	}
	return g
}

func clampAbs(v, lim float64) float64 {
	if v > lim {
		return lim
	}
	if v < -lim {
		return -lim
	}
	return v
}

func clampFraction(x float64) float64 {
	return math.Min(1-1e-10, math.Max(1e-10, x))
}

// PhaseDiagramHetero is a Txy or pxy diagram of a binary mixture with a
// miscibility gap: two vapor-liquid branches meeting at the
// heteroazeotrope and a liquid-liquid branch beyond it.
type PhaseDiagramHetero struct {
	VLE1 *PhaseDiagramBinary
	VLE2 *PhaseDiagramBinary
	LLE  []*PhaseEquilibrium
	Azeo *HeteroAzeotrope
}

// NewPhaseDiagramHetero computes the three branches of a binary
// diagram with liquid-liquid demixing. The initial liquid compositions
// seed the heteroazeotrope solve; the VLE branches then run from the
// pure ends to the azeotropic compositions and the LLE branch follows
// the miscibility gap for npointsLLE additional specification steps.
func NewPhaseDiagramHetero(e EquationOfState, spec TPSpec, x1Liquid1, x1Liquid2 float64, guessVar quantity.Scalar, npoints, npointsLLE int, opts SolverOptions) (*PhaseDiagramHetero, error) {
	azeo, err := Heteroazeotrope(e, spec, x1Liquid1, x1Liquid2, guessVar, opts)
	if err != nil {
		return nil, err
	}
	xA, xB := azeo.Liquid1.x[0], azeo.Liquid2.x[0]
	if xA > xB {
		xA, xB = xB, xA
	}

	pure := vlePureComponents(e, spec, opts)
	if pure[0] == nil || pure[1] == nil {
		return nil, &SuperCriticalError{}
	}
	branch1 := walkBubble(e, spec, pure[1], 0, xA, npoints/2+1, opts)
	branch2 := walkBubble(e, spec, pure[0], 1, xB, npoints-npoints/2, opts)
	reverse(branch2)

	lle, err := lleBranch(e, spec, azeo, npointsLLE, opts)
	if err != nil {
		return nil, err
	}
	return &PhaseDiagramHetero{
		VLE1: &PhaseDiagramBinary{Spec: spec, States: branch1},
		VLE2: &PhaseDiagramBinary{Spec: spec, States: branch2},
		LLE:  lle,
		Azeo: azeo,
	}, nil
}

// lleBranch continues the liquid-liquid equilibrium away from the
// heteroazeotrope: rising temperature on an isobar, rising pressure on
// an isotherm. Successive substitution between the two liquids, the
// previous pair seeding the next step.
func lleBranch(e EquationOfState, spec TPSpec, azeo *HeteroAzeotrope, npoints int, opts SolverOptions) ([]*PhaseEquilibrium, error) {
	t := azeo.Vapor.t
	p := azeo.Vapor.pressureSI(Total)
	xA := append([]float64(nil), azeo.Liquid1.x...)
	xB := append([]float64(nil), azeo.Liquid2.x...)

	out := make([]*PhaseEquilibrium, 0, npoints)
	for k := 1; k <= npoints; k++ {
		if spec.isPressure {
			t = azeo.Vapor.t * (1 + 0.002*float64(k))
		} else {
			p = azeo.Vapor.pressureSI(Total) * (1 + 0.05*float64(k))
		}
		pair, err := lleStep(e, t, p, xA, xB, opts)
		if err != nil {
			break
		}
		out = append(out, pair)
		xA = pair.states[0].x
		xB = pair.states[1].x
	}
	return out, nil
}

// lleStep equilibrates two liquid phases at fixed temperature and
// pressure by alternating isoactivity substitution. Each half step
// rebuilds the fugacity coefficients of the phase it just moved before
// the other phase follows. Convergence is judged on the isofugacity
// residual itself, never on stationary compositions: normalization can
// leave a stationary pair whose component fugacities still differ by a
// common offset, and such a pair must keep iterating. The resulting
// pair holds the two liquids in place of the usual vapor/liquid
// ordering.
func lleStep(e EquationOfState, t, p float64, xA, xB []float64, opts SolverOptions) (*PhaseEquilibrium, error) {
	const (
		maxIter = 200
		tolSS   = 1e-10
	)
	n := len(xA)
	a := append([]float64(nil), xA...)
	b := append([]float64(nil), xB...)
	res := math.NaN()
	for iter := 0; iter < maxIter; iter++ {
		sa, err := newStateTPSI(e, t, p, a, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}
		sb, err := newStateTPSI(e, t, p, b, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}
		lnPhiA := sa.lnPhiSI()
		lnPhiB := sb.lnPhiSI()
		res = 0
		for i := 0; i < n; i++ {
			res = math.Max(res, math.Abs(math.Log(a[i])+lnPhiA[i]-math.Log(b[i])-lnPhiB[i]))
		}
		opts.trace("lle substitution %3d: residual=%.6e", iter, res)
		if res < tolSS {
			if trivial(a, b) {
				return nil, &TrivialSolutionError{Solver: "liquid-liquid equilibrium"}
			}
			return &PhaseEquilibrium{states: []*State{sa, sb}}, nil
		}
		// move phase b onto the activity of phase a
		next := make([]float64, n)
		for i := 0; i < n; i++ {
			next[i] = a[i] * math.Exp(lnPhiA[i]-lnPhiB[i])
		}
		b = normalize(next)
		// and phase a onto the refreshed activity of phase b
		sb, err = newStateTPSI(e, t, p, b, InitLiquid, SolverOptions{})
		if err != nil {
			return nil, err
		}
		lnPhiB = sb.lnPhiSI()
		for i := 0; i < n; i++ {
			next[i] = b[i] * math.Exp(lnPhiB[i]-lnPhiA[i])
		}
		a = normalize(next)
	}
	return nil, &ConvergenceError{Solver: "liquid-liquid equilibrium", Iterations: maxIter, Residual: res}
}

func reverse(s []*PhaseEquilibrium) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
