package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the reconstructability-analysis domain, grouped by the
// taxonomy the core distinguishes: validation failures fail synchronously at
// the caller boundary, fit failures are normally captured in a FitResult
// unless strict mode is enabled.
var (
	// Validation errors.
	ErrUnknownAbbreviation = errors.New("unknown variable abbreviation")
	ErrMalformedModel      = errors.New("malformed model string")
	ErrCardinalityRange    = errors.New("cardinality out of range")
	ErrDuplicateVariable   = errors.New("duplicate variable")
	ErrRowLengthMismatch   = errors.New("row length does not match variable count")

	// Junction-tree errors.
	ErrRIPViolated = errors.New("running intersection property not satisfied")

	// Convergence errors.
	ErrNotConverged = errors.New("IPF did not converge within the iteration budget")

	// Computation errors.
	ErrNumericalIssue  = errors.New("NaN or Inf encountered in potential")
	ErrDivideByZeroHit = errors.New("division by zero in strict mode")

	// Internal invariants - bugs, not user errors.
	ErrKeyOrderViolation = errors.New("contingency table keys not strictly increasing after sort")
)

// NewValidationError wraps a sentinel validation error with the offending token.
func NewValidationError(sentinel error, token string) error {
	return fmt.Errorf("%w: %q", sentinel, token)
}

// IsValidationError reports whether err is one of the validation sentinels.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnknownAbbreviation) ||
		errors.Is(err, ErrMalformedModel) ||
		errors.Is(err, ErrCardinalityRange) ||
		errors.Is(err, ErrDuplicateVariable) ||
		errors.Is(err, ErrRowLengthMismatch)
}
