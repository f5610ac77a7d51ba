package eigo

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyEvaluations is returned when the evaluation source holds no
	// batches, or a batch holds no vectors.
	ErrEmptyEvaluations = errors.New("empty evaluation set")

	// ErrProductRequiresOrthogonal is returned when a custom inner product
	// is supplied together with EI projection, which would silently ignore
	// it.
	ErrProductRequiresOrthogonal = errors.New("product is only used with orthogonal projection")

	// ErrNotPositiveDefinite is returned when the basis Gramian fails to
	// Cholesky-factorize. This is fatal; no partial result is returned.
	ErrNotPositiveDefinite = errors.New("gramian is not positive definite")
)

// ErrInvalidProjection indicates an unsupported projection mode.
type ErrInvalidProjection struct {
	Projection Projection
}

func (e *ErrInvalidProjection) Error() string {
	return fmt.Sprintf("invalid projection mode: %d", int(e.Projection))
}

// ErrDimensionMismatch indicates evaluation batches of inconsistent vector
// dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrIndexOutOfRange indicates an evaluation-provider access outside
// [0, Len).
type ErrIndexOutOfRange struct {
	Index int
	Len   int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Len)
}

// ErrUnknownOperator indicates an operator name not present in the model.
type ErrUnknownOperator struct {
	Name string
}

func (e *ErrUnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Name)
}
