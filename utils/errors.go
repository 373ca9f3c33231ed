package utils

import (
	"fmt"
	"strings"
)

// InsufficientDOFError is returned when fewer free degrees of freedom remain
// than eigenpairs were requested. The mode count is never reduced to fit.
type InsufficientDOFError struct {
	Free      int // Free DOFs available to the eigensolver
	Requested int // Eigenpairs requested, including rigid modes when unconstrained
}

func (e *InsufficientDOFError) Error() string {
	return fmt.Sprintf("insufficient degrees of freedom: %d free, %d eigenpairs requested",
		e.Free, e.Requested)
}

// IllConditionedSystemError reports a restricted (K, M) pair the eigensolver
// cannot use: non-positive mass, indefinite stiffness or non-convergence.
type IllConditionedSystemError struct {
	Reason string
	Err    error
}

func (e *IllConditionedSystemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ill-conditioned system: %s: %v", e.Reason, e.Err)
	}
	return "ill-conditioned system: " + e.Reason
}

func (e *IllConditionedSystemError) Unwrap() error { return e.Err }

// MissingCompanionMeshError is returned by loaders when a surface mesh is
// given without the volumetric mesh it was tetrahedralized into.
type MissingCompanionMeshError struct {
	Path  string   // The surface mesh that was requested
	Tried []string // Companion paths that were looked for
}

func (e *MissingCompanionMeshError) Error() string {
	return fmt.Sprintf("no volumetric companion mesh for %s (tried %s)",
		e.Path, strings.Join(e.Tried, ", "))
}

// UnsupportedConstraintSpecError flags a conflicting or malformed fixed-node
// specification.
type UnsupportedConstraintSpecError struct {
	Reason string
}

func (e *UnsupportedConstraintSpecError) Error() string {
	return "unsupported constraint specification: " + e.Reason
}
