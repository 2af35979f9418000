package eos

import (
	"encoding/json"
	"fmt"
	"math"

	"eoscalc/dual"
)

// PengRobinsonRecord holds the critical constants of one substance.
type PengRobinsonRecord struct {
	Tc             float64 `json:"tc"`              // K
	Pc             float64 `json:"pc"`              // Pa
	AcentricFactor float64 `json:"acentric_factor"` // -
}

// PengRobinsonParameters is the immutable parameter set shared by every
// state built from the same Peng-Robinson equation of state.
type PengRobinsonParameters struct {
	tc          []float64
	pc          []float64
	omega       []float64
	a           []float64 // Pa m6 / mol2
	b           []float64 // m3 / mol
	kappa       []float64
	kij         [][]float64
	molarWeight []float64 // kg/mol
	records     []PureRecord
}

// NewPengRobinsonParameters interprets the model records of the given
// substances and builds the derived parameters. kij may be nil for an
// ideal mixture.
func NewPengRobinsonParameters(records []PureRecord, kij [][]float64) (*PengRobinsonParameters, error) {
	n := len(records)
	if n == 0 {
		return nil, &ParameterError{Msg: "no substance records given"}
	}
	if kij == nil {
		kij = make([][]float64, n)
		for i := range kij {
			kij[i] = make([]float64, n)
		}
	}
	if len(kij) != n {
		return nil, &ParameterError{Msg: fmt.Sprintf("interaction matrix is %dx%d for %d components", len(kij), len(kij), n)}
	}
	p := &PengRobinsonParameters{
		tc:          make([]float64, n),
		pc:          make([]float64, n),
		omega:       make([]float64, n),
		a:           make([]float64, n),
		b:           make([]float64, n),
		kappa:       make([]float64, n),
		kij:         kij,
		molarWeight: make([]float64, n),
		records:     records,
	}
	for i, r := range records {
		var rec PengRobinsonRecord
		if r.ModelRecord == nil {
			return nil, &ParameterError{Msg: fmt.Sprintf("no Peng-Robinson record for %q", r.Identifier.Name)}
		}
		if err := json.Unmarshal(r.ModelRecord, &rec); err != nil {
			return nil, &ParameterError{Msg: fmt.Sprintf("model record of %q: %v", r.Identifier.Name, err)}
		}
		if rec.Tc <= 0 || rec.Pc <= 0 {
			return nil, &ParameterError{Msg: fmt.Sprintf("non-positive critical constants for %q", r.Identifier.Name)}
		}
		p.tc[i] = rec.Tc
		p.pc[i] = rec.Pc
		p.omega[i] = rec.AcentricFactor
		p.a[i] = 0.45724 * RGas * RGas * rec.Tc * rec.Tc / rec.Pc
		p.b[i] = 0.07780 * RGas * rec.Tc / rec.Pc
		p.kappa[i] = 0.37464 + (1.54226-0.26992*rec.AcentricFactor)*rec.AcentricFactor
		p.molarWeight[i] = r.MolarWeight * 1e-3
	}
	return p, nil
}

// NewPengRobinsonSimple builds a parameter set directly from critical
// constants without interaction parameters. Molar weight in g/mol.
func NewPengRobinsonSimple(tc, pc, omega, molarWeight []float64) (*PengRobinsonParameters, error) {
	if len(pc) != len(tc) || len(omega) != len(tc) || len(molarWeight) != len(tc) {
		return nil, &ParameterError{Msg: "each component has to have parameters"}
	}
	records := make([]PureRecord, len(tc))
	for i := range tc {
		raw, err := json.Marshal(PengRobinsonRecord{Tc: tc[i], Pc: pc[i], AcentricFactor: omega[i]})
		if err != nil {
			return nil, &ParameterError{Msg: err.Error()}
		}
		records[i] = PureRecord{
			Identifier:  Identifier{Name: fmt.Sprintf("component %d", i+1)},
			MolarWeight: molarWeight[i],
			ModelRecord: raw,
		}
	}
	return NewPengRobinsonParameters(records, nil)
}

// PengRobinson is the cubic equation of state of Peng and Robinson with
// van der Waals one-fluid mixing rules and a Joback ideal-gas part.
type PengRobinson struct {
	params   *PengRobinsonParameters
	idealGas HelmholtzEnergy
	residual []HelmholtzEnergy
}

// NewPengRobinson builds the equation of state. The ideal-gas part uses
// the Joback records of the substances where present and a constant
// 5R/2 heat capacity otherwise.
func NewPengRobinson(params *PengRobinsonParameters) *PengRobinson {
	jr := make([]JobackRecord, len(params.records))
	for i, r := range params.records {
		if r.IdealGasRecord != nil {
			jr[i] = *r.IdealGasRecord
		} else {
			jr[i] = defaultJobackRecord
		}
	}
	return &PengRobinson{
		params:   params,
		idealGas: &Joback{records: jr},
		residual: []HelmholtzEnergy{&pengRobinsonContribution{params}},
	}
}

func (e *PengRobinson) Components() int { return len(e.params.b) }

func (e *PengRobinson) Subset(components []int) EquationOfState {
	n := len(components)
	records := make([]PureRecord, n)
	kij := make([][]float64, n)
	for i, ci := range components {
		records[i] = e.params.records[ci]
		kij[i] = make([]float64, n)
		for j, cj := range components {
			kij[i][j] = e.params.kij[ci][cj]
		}
	}
	p, err := NewPengRobinsonParameters(records, kij)
	if err != nil {
		// records were validated when the full set was built
		panic(err)
	}
	return NewPengRobinson(p)
}

// MaxDensity bounds the molar density by 90% of the close-packing
// density implied by the covolume.
func (e *PengRobinson) MaxDensity(moles []float64) float64 {
	b, n := 0.0, 0.0
	for i, m := range moles {
		b += m * e.params.b[i]
		n += m
	}
	return 0.9 * n / b
}

func (e *PengRobinson) MolarWeight() []float64 { return e.params.molarWeight }

func (e *PengRobinson) IdealGasContribution() HelmholtzEnergy { return e.idealGas }

func (e *PengRobinson) ResidualContributions() []HelmholtzEnergy { return e.residual }

// Critical constants for correlation-based initial guesses.
func (e *PengRobinson) CriticalTemperature() []float64 { return e.params.tc }
func (e *PengRobinson) CriticalPressure() []float64    { return e.params.pc }
func (e *PengRobinson) AcentricFactor() []float64      { return e.params.omega }

type pengRobinsonContribution struct {
	p *PengRobinsonParameters
}

func (c *pengRobinsonContribution) Name() string { return "Peng-Robinson" }

// pengRobinsonResidual is the residual Helmholtz energy
//
//	A = nRT ln(V/(V-B)) - D/(2 sqrt2 B) ln((V+(1+sqrt2)B)/(V+(1-sqrt2)B))
//
// with B = sum_i n_i b_i and D = sum_ij n_i n_j (a_i a_j)^1/2 (1-k_ij)
// using the temperature-dependent a_i.
func pengRobinsonResidual[D dual.Num[D]](p *PengRobinsonParameters, s StateHD[D]) D {
	n := len(p.b)
	ak := make([]D, n)
	for i := 0; i < n; i++ {
		alpha := s.T.DivFloat(p.tc[i]).Sqrt().Neg().AddFloat(1).MulFloat(p.kappa[i]).AddFloat(1)
		ak[i] = alpha.Mul(alpha).MulFloat(p.a[i])
	}
	dmix := dual.Const[D](0)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aij := ak[i].Mul(ak[j]).Sqrt().MulFloat(1 - p.kij[i][j])
			dmix = dmix.Add(s.Moles[i].Mul(s.Moles[j]).Mul(aij))
		}
	}
	b := dual.Const[D](0)
	for i := 0; i < n; i++ {
		b = b.Add(s.Moles[i].MulFloat(p.b[i]))
	}
	rep := s.Total.Mul(s.T).MulFloat(RGas).Mul(s.V.Div(s.V.Sub(b)).Ln())
	att := dmix.Div(b.MulFloat(2 * math.Sqrt2)).
		Mul(s.V.Add(b.MulFloat(1 + math.Sqrt2)).Div(s.V.Add(b.MulFloat(1 - math.Sqrt2))).Ln())
	return rep.Sub(att)
}

func (c *pengRobinsonContribution) EvalFloat(s StateHD[dual.Float]) dual.Float {
	return pengRobinsonResidual(c.p, s)
}

func (c *pengRobinsonContribution) EvalDual(s StateHD[dual.Dual64]) dual.Dual64 {
	return pengRobinsonResidual(c.p, s)
}

func (c *pengRobinsonContribution) EvalHyper(s StateHD[dual.Hyper64]) dual.Hyper64 {
	return pengRobinsonResidual(c.p, s)
}

func (c *pengRobinsonContribution) EvalThird(s StateHD[dual.Third64]) dual.Third64 {
	return pengRobinsonResidual(c.p, s)
}

func (c *pengRobinsonContribution) EvalNestedHyper(s StateHD[dual.NestedHyper64]) dual.NestedHyper64 {
	return pengRobinsonResidual(c.p, s)
}

func (c *pengRobinsonContribution) EvalNestedThird(s StateHD[dual.NestedThird64]) dual.NestedThird64 {
	return pengRobinsonResidual(c.p, s)
}
