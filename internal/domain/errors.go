package domain

import "errors"

var (
	// ErrInvalidParameter signals malformed input: negative weights, unknown
	// code systems, empty source lists. Rejected before any computation.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotFound signals a missing or expired lane score set or run.
	// Expired and never-created are indistinguishable by design.
	ErrNotFound = errors.New("not found")
	// ErrInconsistent signals a state violation: cyclic lineage, or mutation
	// of a lane run. The targeted state is left unchanged.
	ErrInconsistent = errors.New("inconsistent state")
)
