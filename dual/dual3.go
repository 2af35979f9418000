package dual

// Dual3 carries a value and the first three derivatives along a single
// direction. It is used where a third-order directional derivative is
// required, such as the criticality condition along the eigenvector of
// the stability matrix.
type Dual3[T Num[T]] struct {
	Re T
	V1 T
	V2 T
	V3 T
}

// NewDual3 lifts re with all derivative components zero.
func NewDual3[T Num[T]](re T) Dual3[T] {
	z := re.Lift(0)
	return Dual3[T]{Re: re, V1: z, V2: z, V3: z}
}

// Derive seeds a unit first derivative along the direction.
func (a Dual3[T]) Derive() Dual3[T] {
	a.V1 = a.V1.Lift(1)
	return a
}

func (a Dual3[T]) Add(b Dual3[T]) Dual3[T] {
	return Dual3[T]{a.Re.Add(b.Re), a.V1.Add(b.V1), a.V2.Add(b.V2), a.V3.Add(b.V3)}
}

func (a Dual3[T]) Sub(b Dual3[T]) Dual3[T] {
	return Dual3[T]{a.Re.Sub(b.Re), a.V1.Sub(b.V1), a.V2.Sub(b.V2), a.V3.Sub(b.V3)}
}

// Mul propagates first to third derivatives by the Leibniz rule.
func (a Dual3[T]) Mul(b Dual3[T]) Dual3[T] {
	return Dual3[T]{
		a.Re.Mul(b.Re),
		a.V1.Mul(b.Re).Add(a.Re.Mul(b.V1)),
		a.V2.Mul(b.Re).Add(a.V1.Mul(b.V1).MulFloat(2)).Add(a.Re.Mul(b.V2)),
		a.V3.Mul(b.Re).
			Add(a.V2.Mul(b.V1).MulFloat(3)).
			Add(a.V1.Mul(b.V2).MulFloat(3)).
			Add(a.Re.Mul(b.V3)),
	}
}

func (a Dual3[T]) Div(b Dual3[T]) Dual3[T] {
	return a.Mul(b.Recip())
}

func (a Dual3[T]) Neg() Dual3[T] {
	return Dual3[T]{a.Re.Neg(), a.V1.Neg(), a.V2.Neg(), a.V3.Neg()}
}

func (a Dual3[T]) Recip() Dual3[T] {
	inv := a.Re.Recip()
	inv2 := inv.Mul(inv)
	return a.chain(inv, inv2.Neg(), inv2.Mul(inv).MulFloat(2), inv2.Mul(inv2).MulFloat(-6))
}

func (a Dual3[T]) AddFloat(f float64) Dual3[T] {
	a.Re = a.Re.AddFloat(f)
	return a
}

func (a Dual3[T]) SubFloat(f float64) Dual3[T] {
	a.Re = a.Re.SubFloat(f)
	return a
}

func (a Dual3[T]) MulFloat(f float64) Dual3[T] {
	return Dual3[T]{a.Re.MulFloat(f), a.V1.MulFloat(f), a.V2.MulFloat(f), a.V3.MulFloat(f)}
}

func (a Dual3[T]) DivFloat(f float64) Dual3[T] {
	return Dual3[T]{a.Re.DivFloat(f), a.V1.DivFloat(f), a.V2.DivFloat(f), a.V3.DivFloat(f)}
}

// chain composes a scalar function with derivatives f1..f3 by the Faa
// di Bruno formula for third order.
func (a Dual3[T]) chain(f0, f1, f2, f3 T) Dual3[T] {
	return Dual3[T]{
		f0,
		a.V1.Mul(f1),
		a.V2.Mul(f1).Add(a.V1.Mul(a.V1).Mul(f2)),
		a.V3.Mul(f1).
			Add(a.V1.Mul(a.V2).Mul(f2).MulFloat(3)).
			Add(a.V1.Mul(a.V1).Mul(a.V1).Mul(f3)),
	}
}

func (a Dual3[T]) Ln() Dual3[T] {
	inv := a.Re.Recip()
	inv2 := inv.Mul(inv)
	return a.chain(a.Re.Ln(), inv, inv2.Neg(), inv2.Mul(inv).MulFloat(2))
}

func (a Dual3[T]) Exp() Dual3[T] {
	e := a.Re.Exp()
	return a.chain(e, e, e, e)
}

func (a Dual3[T]) Sqrt() Dual3[T] {
	s := a.Re.Sqrt()
	f1 := s.MulFloat(2).Recip()
	f2 := f1.Div(a.Re.MulFloat(-2))
	f3 := f2.Mul(a.Re.MulFloat(-2.0 / 3.0).Recip())
	return a.chain(s, f1, f2, f3)
}

func (a Dual3[T]) PowInt(n int) Dual3[T] {
	return a.chain(
		a.Re.PowInt(n),
		a.Re.PowInt(n-1).MulFloat(float64(n)),
		a.Re.PowInt(n-2).MulFloat(float64(n*(n-1))),
		a.Re.PowInt(n-3).MulFloat(float64(n*(n-1)*(n-2))),
	)
}

func (a Dual3[T]) PowFloat(p float64) Dual3[T] {
	return a.chain(
		a.Re.PowFloat(p),
		a.Re.PowFloat(p-1).MulFloat(p),
		a.Re.PowFloat(p-2).MulFloat(p*(p-1)),
		a.Re.PowFloat(p-3).MulFloat(p*(p-1)*(p-2)),
	)
}

func (a Dual3[T]) Real() float64 { return a.Re.Real() }

func (Dual3[T]) Lift(f float64) Dual3[T] {
	var z T
	zero := z.Lift(0)
	return Dual3[T]{z.Lift(f), zero, zero, zero}
}
