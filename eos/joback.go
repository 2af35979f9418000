package eos

import "eoscalc/dual"

// JobackRecord holds the coefficients of the ideal-gas heat capacity
// polynomial cp(T) = A + B T + C T^2 + D T^3 + E T^4 in J/(mol K).
type JobackRecord struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
}

// defaultJobackRecord is used for substances without an ideal-gas
// record: a temperature-independent cp of 5R/2.
var defaultJobackRecord = JobackRecord{A: 2.5 * RGas}

const (
	jobackT0 = 298.15 // K, caloric reference temperature
	jobackP0 = 1e5    // Pa, entropy reference pressure
)

// Joback is the ideal-gas Helmholtz-energy contribution built from the
// heat-capacity polynomials of the substances. It reproduces the ideal
// gas law and the caloric properties implied by cp(T); absolute
// enthalpy and entropy are referenced to jobackT0 and jobackP0.
type Joback struct {
	records []JobackRecord
}

// NewJoback builds the contribution from one record per substance.
func NewJoback(records []JobackRecord) *Joback {
	return &Joback{records: records}
}

func (j *Joback) Name() string { return "ideal gas (Joback)" }

// jobackHelmholtz evaluates
//
//	A = sum_i n_i [ dh_i(T) - T ds_i(T) + RT ln(n_i R T/(V p0)) - RT ]
//
// with dh = int cp dT and ds = int cp/T dT from the reference
// temperature. The partial pressure term yields the ideal gas law, the
// caloric integrals yield cv = cp - R.
func jobackHelmholtz[D dual.Num[D]](j *Joback, s StateHD[D]) D {
	t := s.T
	a := dual.Const[D](0)
	for i, r := range j.records {
		dh := t.SubFloat(jobackT0).MulFloat(r.A).
			Add(t.PowInt(2).SubFloat(jobackT0 * jobackT0).MulFloat(r.B / 2)).
			Add(t.PowInt(3).SubFloat(jobackT0 * jobackT0 * jobackT0).MulFloat(r.C / 3)).
			Add(t.PowInt(4).SubFloat(jobackT0 * jobackT0 * jobackT0 * jobackT0).MulFloat(r.D / 4)).
			Add(t.PowInt(5).SubFloat(jobackT0 * jobackT0 * jobackT0 * jobackT0 * jobackT0).MulFloat(r.E / 5))
		ds := t.DivFloat(jobackT0).Ln().MulFloat(r.A).
			Add(t.SubFloat(jobackT0).MulFloat(r.B)).
			Add(t.PowInt(2).SubFloat(jobackT0 * jobackT0).MulFloat(r.C / 2)).
			Add(t.PowInt(3).SubFloat(jobackT0 * jobackT0 * jobackT0).MulFloat(r.D / 3)).
			Add(t.PowInt(4).SubFloat(jobackT0 * jobackT0 * jobackT0 * jobackT0).MulFloat(r.E / 4))
		// partial pressure n_i R T / V relative to the reference
		lnp := s.Moles[i].Mul(t).MulFloat(RGas).Div(s.V).DivFloat(jobackP0).Ln()
		ai := dh.Sub(t.Mul(ds)).Add(t.Mul(lnp).MulFloat(RGas)).Sub(t.MulFloat(RGas))
		a = a.Add(s.Moles[i].Mul(ai))
	}
	return a
}

func (j *Joback) EvalFloat(s StateHD[dual.Float]) dual.Float { return jobackHelmholtz(j, s) }

func (j *Joback) EvalDual(s StateHD[dual.Dual64]) dual.Dual64 { return jobackHelmholtz(j, s) }

func (j *Joback) EvalHyper(s StateHD[dual.Hyper64]) dual.Hyper64 { return jobackHelmholtz(j, s) }

func (j *Joback) EvalThird(s StateHD[dual.Third64]) dual.Third64 { return jobackHelmholtz(j, s) }

func (j *Joback) EvalNestedHyper(s StateHD[dual.NestedHyper64]) dual.NestedHyper64 {
	return jobackHelmholtz(j, s)
}

func (j *Joback) EvalNestedThird(s StateHD[dual.NestedThird64]) dual.NestedThird64 {
	return jobackHelmholtz(j, s)
}
