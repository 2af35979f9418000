package dual

// HyperDual carries a value, two independent first derivative
// components and the mixed second derivative, following the hyper-dual
// construction of Fike. Seeding the same input in both epsilon slots
// yields a plain second derivative, seeding two different inputs yields
// the mixed partial.
type HyperDual[T Num[T]] struct {
	Re  T
	E1  T
	E2  T
	E12 T
}

// NewHyperDual lifts re with all derivative components zero.
func NewHyperDual[T Num[T]](re T) HyperDual[T] {
	z := re.Lift(0)
	return HyperDual[T]{Re: re, E1: z, E2: z, E12: z}
}

// Derive1 seeds the first epsilon slot with a unit derivative.
func (a HyperDual[T]) Derive1() HyperDual[T] {
	a.E1 = a.E1.Lift(1)
	return a
}

// Derive2 seeds the second epsilon slot with a unit derivative.
func (a HyperDual[T]) Derive2() HyperDual[T] {
	a.E2 = a.E2.Lift(1)
	return a
}

func (a HyperDual[T]) Add(b HyperDual[T]) HyperDual[T] {
	return HyperDual[T]{a.Re.Add(b.Re), a.E1.Add(b.E1), a.E2.Add(b.E2), a.E12.Add(b.E12)}
}

func (a HyperDual[T]) Sub(b HyperDual[T]) HyperDual[T] {
	return HyperDual[T]{a.Re.Sub(b.Re), a.E1.Sub(b.E1), a.E2.Sub(b.E2), a.E12.Sub(b.E12)}
}

func (a HyperDual[T]) Mul(b HyperDual[T]) HyperDual[T] {
	return HyperDual[T]{
		a.Re.Mul(b.Re),
		a.Re.Mul(b.E1).Add(a.E1.Mul(b.Re)),
		a.Re.Mul(b.E2).Add(a.E2.Mul(b.Re)),
		a.Re.Mul(b.E12).Add(a.E1.Mul(b.E2)).Add(a.E2.Mul(b.E1)).Add(a.E12.Mul(b.Re)),
	}
}

func (a HyperDual[T]) Div(b HyperDual[T]) HyperDual[T] {
	return a.Mul(b.Recip())
}

func (a HyperDual[T]) Neg() HyperDual[T] {
	return HyperDual[T]{a.Re.Neg(), a.E1.Neg(), a.E2.Neg(), a.E12.Neg()}
}

func (a HyperDual[T]) Recip() HyperDual[T] {
	inv := a.Re.Recip()
	inv2 := inv.Mul(inv)
	return a.chain(inv, inv2.Neg(), inv2.Mul(inv).MulFloat(2))
}

func (a HyperDual[T]) AddFloat(f float64) HyperDual[T] {
	a.Re = a.Re.AddFloat(f)
	return a
}

func (a HyperDual[T]) SubFloat(f float64) HyperDual[T] {
	a.Re = a.Re.SubFloat(f)
	return a
}

func (a HyperDual[T]) MulFloat(f float64) HyperDual[T] {
	return HyperDual[T]{a.Re.MulFloat(f), a.E1.MulFloat(f), a.E2.MulFloat(f), a.E12.MulFloat(f)}
}

func (a HyperDual[T]) DivFloat(f float64) HyperDual[T] {
	return HyperDual[T]{a.Re.DivFloat(f), a.E1.DivFloat(f), a.E2.DivFloat(f), a.E12.DivFloat(f)}
}

// chain applies a scalar function with value f0 and first and second
// derivatives f1, f2.
func (a HyperDual[T]) chain(f0, f1, f2 T) HyperDual[T] {
	return HyperDual[T]{
		f0,
		a.E1.Mul(f1),
		a.E2.Mul(f1),
		a.E12.Mul(f1).Add(a.E1.Mul(a.E2).Mul(f2)),
	}
}

func (a HyperDual[T]) Ln() HyperDual[T] {
	inv := a.Re.Recip()
	return a.chain(a.Re.Ln(), inv, inv.Mul(inv).Neg())
}

func (a HyperDual[T]) Exp() HyperDual[T] {
	e := a.Re.Exp()
	return a.chain(e, e, e)
}

func (a HyperDual[T]) Sqrt() HyperDual[T] {
	s := a.Re.Sqrt()
	f1 := s.MulFloat(2).Recip()
	return a.chain(s, f1, f1.Div(a.Re.MulFloat(-2)))
}

func (a HyperDual[T]) PowInt(n int) HyperDual[T] {
	return a.chain(
		a.Re.PowInt(n),
		a.Re.PowInt(n-1).MulFloat(float64(n)),
		a.Re.PowInt(n-2).MulFloat(float64(n*(n-1))),
	)
}

func (a HyperDual[T]) PowFloat(p float64) HyperDual[T] {
	return a.chain(
		a.Re.PowFloat(p),
		a.Re.PowFloat(p-1).MulFloat(p),
		a.Re.PowFloat(p-2).MulFloat(p*(p-1)),
	)
}

func (a HyperDual[T]) Real() float64 { return a.Re.Real() }

func (HyperDual[T]) Lift(f float64) HyperDual[T] {
	var z T
	zero := z.Lift(0)
	return HyperDual[T]{z.Lift(f), zero, zero, zero}
}
