package distfield

import (
	"fmt"
	"math"
)

// Axis selects one of the three grid axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Dims is the size of a grid along each axis, in cells.
type Dims struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// Cube returns Dims with the same size on every axis.
func Cube(size int) Dims {
	return Dims{X: size, Y: size, Z: size}
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// Validate reports a *DimensionError if any axis is non-positive or the
// cell count does not fit in an int.
func (d Dims) Validate() error {
	if d.X < 1 || d.Y < 1 || d.Z < 1 {
		return &DimensionError{Dims: d}
	}
	if d.X > math.MaxInt/d.Y || d.X*d.Y > math.MaxInt/d.Z {
		return &DimensionError{Dims: d, overflow: true}
	}
	return nil
}

// Len returns the total number of cells.
func (d Dims) Len() int {
	return d.X * d.Y * d.Z
}

// Index returns the linear offset of (x, y, z). Coordinates are not
// range-checked.
func (d Dims) Index(x, y, z int) int {
	return z*d.X*d.Y + y*d.X + x
}

// Coord is the inverse of Index.
func (d Dims) Coord(i int) (x, y, z int) {
	plane := d.X * d.Y
	z = i / plane
	i -= z * plane
	y = i / d.X
	x = i - y*d.X
	return x, y, z
}

// Extent returns the row length along a.
func (d Dims) Extent(a Axis) int {
	switch a {
	case AxisX:
		return d.X
	case AxisY:
		return d.Y
	default:
		return d.Z
	}
}

// Stride returns the linear distance between neighbouring cells along a.
func (d Dims) Stride(a Axis) int {
	switch a {
	case AxisX:
		return 1
	case AxisY:
		return d.X
	default:
		return d.X * d.Y
	}
}

// Rows returns how many 1D rows run along a.
func (d Dims) Rows(a Axis) int {
	switch a {
	case AxisX:
		return d.Y * d.Z
	case AxisY:
		return d.X * d.Z
	default:
		return d.X * d.Y
	}
}

// RowStart returns the linear offset of the first cell of row r along a.
// Rows along X are numbered by (y, z), along Y by (x, z) and along Z by
// (x, y), each with the first coordinate varying fastest.
func (d Dims) RowStart(a Axis, r int) int {
	switch a {
	case AxisX:
		return r * d.X
	case AxisY:
		z, x := r/d.X, r%d.X
		return z*d.X*d.Y + x
	default:
		return r
	}
}
