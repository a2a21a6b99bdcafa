package mtx

import "errors"

var (
	// ErrMalformedHeader indicates a missing or unparseable dimension line.
	ErrMalformedHeader = errors.New("malformed matrix header")
	// ErrMalformedLine indicates a data line that does not split into three
	// non-negative integer tokens.
	ErrMalformedLine = errors.New("malformed matrix line")
	// ErrOutOfRange indicates a coordinate outside the declared dimensions.
	ErrOutOfRange = errors.New("coordinate out of declared range")
)
