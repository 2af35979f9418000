// Package dual implements forward-mode automatic differentiation
// scalars. A function written against the Num capability set is
// evaluated once per requested derivative: seeding an input with a unit
// derivative component propagates exact first, second (including mixed)
// and third directional derivatives through the chain and product
// rules, with no finite differencing.
//
// The types are generic over their component type so that they nest:
// HyperDual[Dual64] carries second partials whose components are
// themselves dual numbers, which is what the critical-point solver uses
// to obtain the Jacobian of derivative-valued residuals.
package dual

import "math"

// Num is the closed set of operations a differentiable model may use.
// Any type in this package, including nested instantiations, satisfies
// Num over itself.
type Num[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Neg() T
	Recip() T
	AddFloat(float64) T
	SubFloat(float64) T
	MulFloat(float64) T
	DivFloat(float64) T
	Ln() T
	Exp() T
	Sqrt() T
	PowInt(int) T
	PowFloat(float64) T
	Real() float64
	Lift(float64) T
}

// Float is the plain scalar at the bottom of every nesting.
type Float float64

func (a Float) Add(b Float) Float        { return a + b }
func (a Float) Sub(b Float) Float        { return a - b }
func (a Float) Mul(b Float) Float        { return a * b }
func (a Float) Div(b Float) Float        { return a / b }
func (a Float) Neg() Float               { return -a }
func (a Float) Recip() Float             { return 1 / a }
func (a Float) AddFloat(f float64) Float { return a + Float(f) }
func (a Float) SubFloat(f float64) Float { return a - Float(f) }
func (a Float) MulFloat(f float64) Float { return a * Float(f) }
func (a Float) DivFloat(f float64) Float { return a / Float(f) }
func (a Float) Ln() Float                { return Float(math.Log(float64(a))) }
func (a Float) Exp() Float               { return Float(math.Exp(float64(a))) }
func (a Float) Sqrt() Float              { return Float(math.Sqrt(float64(a))) }
func (a Float) PowInt(n int) Float       { return Float(math.Pow(float64(a), float64(n))) }
func (a Float) PowFloat(p float64) Float { return Float(math.Pow(float64(a), p)) }
func (a Float) Real() float64            { return float64(a) }
func (Float) Lift(f float64) Float       { return Float(f) }

// Const builds a constant of any dual shape. All derivative components
// are zero, so constants do not alias independent variables.
func Const[D Num[D]](f float64) D {
	var z D
	return z.Lift(f)
}

// Shorthand instantiations used by the closed evaluation set of the
// Helmholtz-energy contributions.
type (
	Dual64        = Dual[Float]
	Hyper64       = HyperDual[Float]
	Third64       = Dual3[Float]
	NestedHyper64 = HyperDual[Dual64]
	NestedThird64 = Dual3[Dual64]
)
