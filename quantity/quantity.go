// Package quantity provides dimension-tagged physical values. Every
// physical input and output of the eos package is exchanged as a Scalar
// or Vector so that dimensionally inconsistent combinations are caught
// at the boundary instead of propagating as bare numbers.
package quantity

import (
	"fmt"
	"math"
)

// Dimension holds the exponents of the SI base dimensions used here:
// length, mass, time, amount of substance and temperature.
type Dimension struct {
	Length      int8
	Mass        int8
	Time        int8
	Mole        int8
	Temperature int8
}

func (d Dimension) add(o Dimension) Dimension {
	return Dimension{
		d.Length + o.Length,
		d.Mass + o.Mass,
		d.Time + o.Time,
		d.Mole + o.Mole,
		d.Temperature + o.Temperature,
	}
}

func (d Dimension) sub(o Dimension) Dimension {
	return Dimension{
		d.Length - o.Length,
		d.Mass - o.Mass,
		d.Time - o.Time,
		d.Mole - o.Mole,
		d.Temperature - o.Temperature,
	}
}

func (d Dimension) String() string {
	s := ""
	app := func(sym string, e int8) {
		if e != 0 {
			s += fmt.Sprintf("%s^%d ", sym, e)
		}
	}
	app("m", d.Length)
	app("kg", d.Mass)
	app("s", d.Time)
	app("mol", d.Mole)
	app("K", d.Temperature)
	if s == "" {
		return "1"
	}
	return s[:len(s)-1]
}

// Scalar is a value in SI base units together with its dimension.
type Scalar struct {
	value float64
	dim   Dimension
}

// New returns v expressed in the given unit, e.g. New(300, Kelvin).
func New(v float64, unit Scalar) Scalar {
	return Scalar{v * unit.value, unit.dim}
}

// Value returns the raw SI value and the dimension.
func (s Scalar) Value() (float64, Dimension) { return s.value, s.dim }

// In converts s to the given unit. The dimensions must match.
func (s Scalar) In(unit Scalar) (float64, error) {
	if s.dim != unit.dim {
		return 0, fmt.Errorf("quantity: cannot express %s in %s", s.dim, unit.dim)
	}
	return s.value / unit.value, nil
}

// MustIn is In for contexts where the dimensions are known to match.
func (s Scalar) MustIn(unit Scalar) float64 {
	v, err := s.In(unit)
	if err != nil {
		panic(err)
	}
	return v
}

func (s Scalar) Add(o Scalar) Scalar {
	if s.dim != o.dim {
		panic(fmt.Sprintf("quantity: dimension mismatch %s + %s", s.dim, o.dim))
	}
	return Scalar{s.value + o.value, s.dim}
}

func (s Scalar) Sub(o Scalar) Scalar {
	if s.dim != o.dim {
		panic(fmt.Sprintf("quantity: dimension mismatch %s - %s", s.dim, o.dim))
	}
	return Scalar{s.value - o.value, s.dim}
}

func (s Scalar) Mul(o Scalar) Scalar {
	return Scalar{s.value * o.value, s.dim.add(o.dim)}
}

func (s Scalar) Div(o Scalar) Scalar {
	return Scalar{s.value / o.value, s.dim.sub(o.dim)}
}

func (s Scalar) Scale(f float64) Scalar {
	return Scalar{s.value * f, s.dim}
}

func (s Scalar) Neg() Scalar {
	return Scalar{-s.value, s.dim}
}

func (s Scalar) Abs() Scalar {
	return Scalar{math.Abs(s.value), s.dim}
}

func (s Scalar) IsNaN() bool { return math.IsNaN(s.value) }

func (s Scalar) String() string {
	return fmt.Sprintf("%v %s", s.value, s.dim)
}

// Vector is a slice of values sharing one dimension.
type Vector struct {
	values []float64
	dim    Dimension
}

// NewVector returns vs expressed in the given unit.
func NewVector(vs []float64, unit Scalar) Vector {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v * unit.value
	}
	return Vector{out, unit.dim}
}

func (v Vector) Len() int { return len(v.values) }

func (v Vector) Get(i int) Scalar { return Scalar{v.values[i], v.dim} }

// In converts every entry to the given unit.
func (v Vector) In(unit Scalar) ([]float64, error) {
	if v.dim != unit.dim {
		return nil, fmt.Errorf("quantity: cannot express %s in %s", v.dim, unit.dim)
	}
	out := make([]float64, len(v.values))
	for i, x := range v.values {
		out[i] = x / unit.value
	}
	return out, nil
}

// Sum returns the sum of all entries.
func (v Vector) Sum() Scalar {
	t := 0.0
	for _, x := range v.values {
		t += x
	}
	return Scalar{t, v.dim}
}

// Base and derived units.
var (
	Dimensionless = Scalar{1, Dimension{}}
	Meter         = Scalar{1, Dimension{Length: 1}}
	Kilogram      = Scalar{1, Dimension{Mass: 1}}
	Second        = Scalar{1, Dimension{Time: 1}}
	Mole          = Scalar{1, Dimension{Mole: 1}}
	Kelvin        = Scalar{1, Dimension{Temperature: 1}}

	CubicMeter = Scalar{1, Dimension{Length: 3}}
	Pascal     = Scalar{1, Dimension{Length: -1, Mass: 1, Time: -2}}
	Bar        = Scalar{1e5, Dimension{Length: -1, Mass: 1, Time: -2}}
	MegaPascal = Scalar{1e6, Dimension{Length: -1, Mass: 1, Time: -2}}
	Joule      = Scalar{1, Dimension{Length: 2, Mass: 1, Time: -2}}

	MolPerCubicMeter      = Scalar{1, Dimension{Length: -3, Mole: 1}}
	CubicMeterPerMole     = Scalar{1, Dimension{Length: 3, Mole: -1}}
	JoulePerMole          = Scalar{1, Dimension{Length: 2, Mass: 1, Time: -2, Mole: -1}}
	JoulePerMoleKelvin    = Scalar{1, Dimension{Length: 2, Mass: 1, Time: -2, Mole: -1, Temperature: -1}}
	JoulePerKelvin        = Scalar{1, Dimension{Length: 2, Mass: 1, Time: -2, Temperature: -1}}
	KilogramPerMole       = Scalar{1, Dimension{Mass: 1, Mole: -1}}
	GramPerMole           = Scalar{1e-3, Dimension{Mass: 1, Mole: -1}}
	KilogramPerCubicMeter = Scalar{1, Dimension{Length: -3, Mass: 1}}
	MeterPerSecond        = Scalar{1, Dimension{Length: 1, Time: -1}}
	PerPascal             = Scalar{1, Dimension{Length: 1, Mass: -1, Time: 2}}
	KelvinPerPascal       = Scalar{1, Dimension{Length: 1, Mass: -1, Time: 2, Temperature: 1}}
)
