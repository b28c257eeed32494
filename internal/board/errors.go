package board

import (
	"errors"
	"fmt"
)

// ErrInvariant marks a programming-invariant violation: a move submitted for
// the wrong player, an out-of-bounds index, an empty captured record. The
// engine has no recovery path for these; they are raised with panic.
var ErrInvariant = errors.New("invariant violation")

// InvariantError is the panic value carried by invariant violations.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvariant, e.Op, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// Invariant panics with an *InvariantError.
func Invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
