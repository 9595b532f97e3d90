package regalloc

import "fmt"

// InvalidInput signals a malformed program or configuration: a negative
// frequency, k < 1, a duplicate definition within one instruction, or an
// empty program.
type InvalidInput struct {
	Reason string
}

func (e *InvalidInput) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// UnallocatableProgram signals that the driver's safety bound on spill
// rounds was exceeded. It carries the accumulated spill set at the point
// of failure for diagnosis.
type UnallocatableProgram struct {
	Rounds  int
	Spilled SymbolSet
}

func (e *UnallocatableProgram) Error() string {
	return fmt.Sprintf("unallocatable program: exceeded safety bound of %d spill rounds (accumulated %d spilled symbols)", e.Rounds, len(e.Spilled))
}

// InternalInvariantViolation signals a bug: graph asymmetry, a degree
// mismatch, or a Select-phase node with no available color. It surfaces
// as a hard failure rather than an incorrect output.
type InternalInvariantViolation struct {
	Detail string
}

func (e *InternalInvariantViolation) Error() string {
	return fmt.Sprintf("internal invariant violation: %s", e.Detail)
}
