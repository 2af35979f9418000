package eos

import (
	"math"

	"eoscalc/quantity"
)

// PhaseDiagramPure is a vapor pressure curve from a minimum temperature
// up to the critical point, computed by continuation: every saturation
// solve is seeded with its predecessor.
type PhaseDiagramPure struct {
	States   []*PhaseEquilibrium
	Critical *State
}

// NewPhaseDiagramPure walks the saturation curve of a pure substance on
// npoints temperatures between minTemperature and the critical
// temperature. The critical state itself is available separately so
// both phases of every entry are genuine. A point that fails to
// converge ends the walk and the diagram keeps what was reached; only
// a failure at the very first point is an error.
func NewPhaseDiagramPure(e EquationOfState, minTemperature quantity.Scalar, npoints int, opts SolverOptions) (*PhaseDiagramPure, error) {
	if e.Components() != 1 {
		return nil, &ParameterError{Msg: "pure phase diagram requires a single component"}
	}
	if npoints < 2 {
		return nil, &ParameterError{Msg: "pure phase diagram requires at least two points"}
	}
	tMin := minTemperature.MustIn(quantity.Kelvin)

	crit, err := criticalPointSI(e, []float64{1}, 0, opts)
	if err != nil {
		return nil, err
	}
	tc := crit.t
	if tMin >= tc {
		return nil, &SuperCriticalError{}
	}

	// stop slightly below the critical temperature, the saturation
	// solver degenerates at the critical point itself
	tMax := tc * (1 - 1e-4)
	states := make([]*PhaseEquilibrium, 0, npoints)
	var prev *PhaseEquilibrium
	for k := 0; k < npoints; k++ {
		t := tMin + (tMax-tMin)*float64(k)/float64(npoints-1)
		vle, err := pureTSI(e, t, prev, opts)
		if err != nil {
			if len(states) == 0 {
				return nil, err
			}
			break
		}
		states = append(states, vle)
		prev = vle
	}
	return &PhaseDiagramPure{States: states, Critical: crit}, nil
}

// PureDiagramRow is one saturation point in SI units, tagged for CSV
// export.
type PureDiagramRow struct {
	Temperature          float64 `csv:"temperature [K]"`
	Pressure             float64 `csv:"pressure [Pa]"`
	DensityLiquid        float64 `csv:"molar density liquid [mol/m3]"`
	DensityVapor         float64 `csv:"molar density vapor [mol/m3]"`
	MassDensityLiquid    float64 `csv:"mass density liquid [kg/m3]"`
	MassDensityVapor     float64 `csv:"mass density vapor [kg/m3]"`
	EnthalpyVaporization float64 `csv:"enthalpy of vaporization [J/mol]"`
}

// Rows flattens the diagram for tabular output. The critical point is
// appended as a final row with coinciding phases.
func (d *PhaseDiagramPure) Rows() []PureDiagramRow {
	rows := make([]PureDiagramRow, 0, len(d.States)+1)
	for _, vle := range d.States {
		v, l := vle.Vapor(), vle.Liquid()
		rows = append(rows, PureDiagramRow{
			Temperature:          v.t,
			Pressure:             v.pressureSI(Total),
			DensityLiquid:        l.n / l.v,
			DensityVapor:         v.n / v.v,
			MassDensityLiquid:    l.totalMassSI() / l.v,
			MassDensityVapor:     v.totalMassSI() / v.v,
			EnthalpyVaporization: v.enthalpySI(Total)/v.n - l.enthalpySI(Total)/l.n,
		})
	}
	c := d.Critical
	rho := c.n / c.v
	rows = append(rows, PureDiagramRow{
		Temperature:       c.t,
		Pressure:          c.pressureSI(Total),
		DensityLiquid:     rho,
		DensityVapor:      rho,
		MassDensityLiquid: c.totalMassSI() / c.v,
		MassDensityVapor:  c.totalMassSI() / c.v,
	})
	return rows
}

// AcentricFactorFromVaporPressure computes the acentric factor
// -log10(psat(0.7 Tc)/pc) - 1 from the model itself rather than from
// tabulated constants.
func AcentricFactorFromVaporPressure(e EquationOfState, opts SolverOptions) (float64, error) {
	crit, err := criticalPointSI(e, []float64{1}, 0, opts)
	if err != nil {
		return 0, err
	}
	vle, err := pureTSI(e, 0.7*crit.t, nil, opts)
	if err != nil {
		return 0, err
	}
	return -math.Log10(vle.Vapor().pressureSI(Total)/crit.pressureSI(Total)) - 1, nil
}
