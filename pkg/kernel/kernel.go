// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling, boolean operations and
// point-membership queries behind this interface, so the voxelizer can be
// driven by any backend.
package kernel

import (
	"errors"
	"fmt"
)

// ErrNoSolids is returned by Fold when given nothing to combine.
var ErrNoSolids = errors.New("kernel: no solids to combine")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Constructors reject non-positive sizes.
	Box(x, y, z float64) (Solid, error) // min corner at the origin
	Sphere(radius float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error) // axis along Z, centred

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Inside reports whether p lies in s, surface included.
	Inside(s Solid, p [3]float64) bool
}

// SizeError reports a primitive constructed with a non-positive extent.
type SizeError struct {
	Primitive string
	Param     string
	Value     float64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("kernel: %s %s must be positive, got %g", e.Primitive, e.Param, e.Value)
}

// CheckSize returns a *SizeError unless v is positive. NaN is rejected.
func CheckSize(primitive, param string, v float64) error {
	if v > 0 {
		return nil
	}
	return &SizeError{Primitive: primitive, Param: param, Value: v}
}

// Fold combines solids left to right with op. A single solid is returned
// unchanged.
func Fold(solids []Solid, op func(a, b Solid) Solid) (Solid, error) {
	if len(solids) == 0 {
		return nil, ErrNoSolids
	}
	acc := solids[0]
	for _, s := range solids[1:] {
		acc = op(acc, s)
	}
	return acc, nil
}
