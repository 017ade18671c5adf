package distfield

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDims is wrapped by every *DimensionError.
	ErrInvalidDims = errors.New("distfield: invalid dimensions")

	// ErrLengthMismatch is wrapped by every *LengthMismatchError.
	ErrLengthMismatch = errors.New("distfield: buffer length does not match dimensions")

	// ErrInvalidCap is returned when WithCap is given a value below 1.
	ErrInvalidCap = errors.New("distfield: cap must be at least 1")
)

// DimensionError reports grid dimensions that cannot be transformed.
type DimensionError struct {
	Dims     Dims
	overflow bool
}

func (e *DimensionError) Error() string {
	if e.overflow {
		return fmt.Sprintf("distfield: dimensions %s overflow the cell count", e.Dims)
	}
	return fmt.Sprintf("distfield: dimensions %s must be positive on every axis", e.Dims)
}

func (e *DimensionError) Unwrap() error { return ErrInvalidDims }

// LengthMismatchError reports a buffer whose length is not Dims.Len().
type LengthMismatchError struct {
	Buffer   string // "occupancy" or "distance"
	Expected int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("distfield: %s buffer has %d cells, expected %d", e.Buffer, e.Actual, e.Expected)
}

func (e *LengthMismatchError) Unwrap() error { return ErrLengthMismatch }
