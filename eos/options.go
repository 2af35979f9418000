package eos

import "log"

// SolverOptions bounds and instruments an iteration. Zero values pick
// the solver's defaults. Every loop in this package runs under a hard
// iteration ceiling; exceeding it surfaces as ConvergenceError, never
// as an unbounded loop.
type SolverOptions struct {
	MaxIter int
	Tol     float64
	Verbose bool
}

func (o SolverOptions) orDefault(maxIter int, tol float64) (int, float64) {
	if o.MaxIter <= 0 {
		o.MaxIter = maxIter
	}
	if o.Tol <= 0 {
		o.Tol = tol
	}
	return o.MaxIter, o.Tol
}

// trace prints one solver iteration line when verbosity is requested.
func (o SolverOptions) trace(format string, args ...interface{}) {
	if o.Verbose {
		log.Printf(format, args...)
	}
}
