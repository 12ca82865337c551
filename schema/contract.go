package schema

import "fmt"

// ContractError is the panic value of a violated registration or usage
// contract. It indicates a programming error, not a data problem.
type ContractError struct {
	Op  string
	Msg string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("plainprops: contract violation in %s: %s", e.Op, e.Msg)
}

// Violation panics with a *ContractError.
func Violation(op, format string, args ...any) {
	panic(&ContractError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// Check panics with a *ContractError unless cond holds.
func Check(cond bool, op, format string, args ...any) {
	if !cond {
		Violation(op, format, args...)
	}
}
