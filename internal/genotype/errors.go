package genotype

import "errors"

var (
	// ErrInvalidArgument reports a malformed call: mismatched parent lengths,
	// a rate outside [0,1], an empty gene or a missing random source.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedOperation reports an unknown recombination method or
	// mutation mode.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)
