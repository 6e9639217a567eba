package itensor

import (
	"github.com/pkg/errors"
)

var (
	// ErrResultIsZero is returned when a decomposition leaves no states, meaning the decomposed tensor vanished.
	// It is a legitimate outcome, such as an annihilated state, rather than a fault.
	ErrResultIsZero = errors.New("result is zero")

	// ErrNotImplemented is returned by decompositions of complex tensors.
	ErrNotImplemented = errors.New("not implemented")
)
