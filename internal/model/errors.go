package model

import "errors"

var (
	// ErrInvalidParameter marks malformed grid, guard or sizing inputs.
	// Callers must fix the inputs before retrying.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptyInput marks a simulation or fetch that produced no bars.
	ErrEmptyInput = errors.New("empty input")
)
