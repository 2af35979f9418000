package dual

// Dual carries a value and one first derivative component.
type Dual[T Num[T]] struct {
	Re  T
	Eps T
}

// NewDual lifts re into the dual plane with a zero derivative.
func NewDual[T Num[T]](re T) Dual[T] {
	return Dual[T]{Re: re, Eps: re.Lift(0)}
}

// Derive marks the receiver as the independent variable by seeding a
// unit derivative.
func (a Dual[T]) Derive() Dual[T] {
	a.Eps = a.Eps.Lift(1)
	return a
}

func (a Dual[T]) Add(b Dual[T]) Dual[T] {
	return Dual[T]{a.Re.Add(b.Re), a.Eps.Add(b.Eps)}
}

func (a Dual[T]) Sub(b Dual[T]) Dual[T] {
	return Dual[T]{a.Re.Sub(b.Re), a.Eps.Sub(b.Eps)}
}

func (a Dual[T]) Mul(b Dual[T]) Dual[T] {
	return Dual[T]{a.Re.Mul(b.Re), a.Re.Mul(b.Eps).Add(a.Eps.Mul(b.Re))}
}

func (a Dual[T]) Div(b Dual[T]) Dual[T] {
	re := a.Re.Div(b.Re)
	return Dual[T]{re, a.Eps.Sub(re.Mul(b.Eps)).Div(b.Re)}
}

func (a Dual[T]) Neg() Dual[T] {
	return Dual[T]{a.Re.Neg(), a.Eps.Neg()}
}

func (a Dual[T]) Recip() Dual[T] {
	inv := a.Re.Recip()
	return Dual[T]{inv, a.Eps.Mul(inv).Mul(inv).Neg()}
}

func (a Dual[T]) AddFloat(f float64) Dual[T] {
	a.Re = a.Re.AddFloat(f)
	return a
}

func (a Dual[T]) SubFloat(f float64) Dual[T] {
	a.Re = a.Re.SubFloat(f)
	return a
}

func (a Dual[T]) MulFloat(f float64) Dual[T] {
	return Dual[T]{a.Re.MulFloat(f), a.Eps.MulFloat(f)}
}

func (a Dual[T]) DivFloat(f float64) Dual[T] {
	return Dual[T]{a.Re.DivFloat(f), a.Eps.DivFloat(f)}
}

// chain applies a scalar function with value f0 and derivative f1.
func (a Dual[T]) chain(f0, f1 T) Dual[T] {
	return Dual[T]{f0, a.Eps.Mul(f1)}
}

func (a Dual[T]) Ln() Dual[T] {
	return a.chain(a.Re.Ln(), a.Re.Recip())
}

func (a Dual[T]) Exp() Dual[T] {
	e := a.Re.Exp()
	return a.chain(e, e)
}

func (a Dual[T]) Sqrt() Dual[T] {
	s := a.Re.Sqrt()
	return a.chain(s, s.MulFloat(2).Recip())
}

func (a Dual[T]) PowInt(n int) Dual[T] {
	return a.chain(a.Re.PowInt(n), a.Re.PowInt(n-1).MulFloat(float64(n)))
}

func (a Dual[T]) PowFloat(p float64) Dual[T] {
	return a.chain(a.Re.PowFloat(p), a.Re.PowFloat(p-1).MulFloat(p))
}

func (a Dual[T]) Real() float64 { return a.Re.Real() }

func (Dual[T]) Lift(f float64) Dual[T] {
	var z T
	return Dual[T]{z.Lift(f), z.Lift(0)}
}
