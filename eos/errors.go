package eos

import "fmt"

// InvalidStateError reports a non-physical state variable at
// construction time.
type InvalidStateError struct {
	Where string
	Var   string
	Value float64
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state in %s: %s = %g", e.Where, e.Var, e.Value)
}

// ParameterError reports malformed or missing substance or interaction
// data. It is raised before any State is constructed.
type ParameterError struct {
	Msg string
}

func (e *ParameterError) Error() string {
	return "parameter error: " + e.Msg
}

// DomainError reports a property whose derivative is undefined at the
// requested state, such as a logarithm evaluated at a non-positive
// argument inside a contribution.
type DomainError struct {
	Property string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error: %s is undefined at the requested state", e.Property)
}

// ConvergenceError reports an iteration that exceeded its bound or
// diverged. The last iterate and residual are kept for diagnosis.
type ConvergenceError struct {
	Solver     string
	Iterations int
	Residual   float64
	Last       []float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s did not converge within %d iterations (residual %e)",
		e.Solver, e.Iterations, e.Residual)
}

// TrivialSolutionError reports an equilibrium iteration that collapsed
// onto identical phases.
type TrivialSolutionError struct {
	Solver string
}

func (e *TrivialSolutionError) Error() string {
	return e.Solver + ": iteration resulted in trivial solution"
}

// NoPhaseSplitError reports a flash on a feed that stability analysis
// found to be single-phase.
type NoPhaseSplitError struct{}

func (e *NoPhaseSplitError) Error() string {
	return "no phase split according to stability analysis"
}

// SuperCriticalError reports a phase-split request above the critical
// point.
type SuperCriticalError struct{}

func (e *SuperCriticalError) Error() string {
	return "system is supercritical"
}

// StabilityInconclusiveError reports a tangent-plane search that
// exhausted its trial seeds without a definitive verdict.
type StabilityInconclusiveError struct {
	Trials int
}

func (e *StabilityInconclusiveError) Error() string {
	return fmt.Sprintf("stability analysis inconclusive after %d trial compositions", e.Trials)
}
