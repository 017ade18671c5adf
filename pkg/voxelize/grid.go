package voxelize

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/voxfield/pkg/distfield"
)

// MaxCells bounds the number of voxels FitGrid will produce.
const MaxCells = 1 << 28

// fitSlack absorbs floating point noise in bounding boxes so that an extent
// of exactly n cells does not round up to n+1.
const fitSlack = 1e-9

var (
	// ErrInvalidCell is returned for a cell size that is not a positive
	// finite number.
	ErrInvalidCell = errors.New("voxelize: cell size must be positive and finite")

	// ErrInvalidBounds is returned for an empty, inverted or infinite
	// bounding box.
	ErrInvalidBounds = errors.New("voxelize: invalid bounding box")

	// ErrTooLarge is returned when a grid would exceed MaxCells.
	ErrTooLarge = errors.New("voxelize: grid exceeds cell limit")
)

// Grid maps voxel indices to scene space. Voxel (x, y, z) covers the cube
// with minimum corner Origin + (x, y, z)*Cell.
type Grid struct {
	Origin [3]float64     `json:"origin" yaml:"origin"`
	Cell   float64        `json:"cell" yaml:"cell"`
	Dims   distfield.Dims `json:"dims" yaml:"dims"`
}

// FitGrid returns the smallest grid of the given cell size that covers the
// box [min, max], extended by padding free cells on every side.
func FitGrid(min, max [3]float64, cell float64, padding int) (Grid, error) {
	if !(cell > 0) || math.IsInf(cell, 0) {
		return Grid{}, ErrInvalidCell
	}
	if padding < 0 {
		return Grid{}, fmt.Errorf("voxelize: padding must not be negative, got %d", padding)
	}

	var n [3]int
	for i := 0; i < 3; i++ {
		extent := max[i] - min[i]
		if math.IsNaN(extent) || math.IsInf(extent, 0) || extent < 0 {
			return Grid{}, fmt.Errorf("%w: axis %d spans [%g, %g]", ErrInvalidBounds, i, min[i], max[i])
		}
		cells := math.Ceil(extent/cell - fitSlack)
		if cells < 1 {
			cells = 1
		}
		cells += 2 * float64(padding)
		if cells > MaxCells {
			return Grid{}, fmt.Errorf("%w: %g cells along axis %d", ErrTooLarge, cells, i)
		}
		n[i] = int(cells)
	}

	dims := distfield.Dims{X: n[0], Y: n[1], Z: n[2]}
	if total := float64(n[0]) * float64(n[1]) * float64(n[2]); total > MaxCells {
		return Grid{}, fmt.Errorf("%w: %s is %.0f cells, limit %d", ErrTooLarge, dims, total, MaxCells)
	}
	if err := dims.Validate(); err != nil {
		return Grid{}, err
	}

	pad := float64(padding) * cell
	return Grid{
		Origin: [3]float64{min[0] - pad, min[1] - pad, min[2] - pad},
		Cell:   cell,
		Dims:   dims,
	}, nil
}

// Center returns the scene-space centre of voxel (x, y, z).
func (g Grid) Center(x, y, z int) [3]float64 {
	return [3]float64{
		g.Origin[0] + (float64(x)+0.5)*g.Cell,
		g.Origin[1] + (float64(y)+0.5)*g.Cell,
		g.Origin[2] + (float64(z)+0.5)*g.Cell,
	}
}

// Locate returns the voxel containing p, or false if p lies outside the grid.
func (g Grid) Locate(p [3]float64) (x, y, z int, ok bool) {
	var c [3]int
	for i := 0; i < 3; i++ {
		f := math.Floor((p[i] - g.Origin[i]) / g.Cell)
		if f < 0 || f >= float64(g.Dims.Extent(distfield.Axis(i))) {
			return 0, 0, 0, false
		}
		c[i] = int(f)
	}
	return c[0], c[1], c[2], true
}

// Max returns the corner of the grid opposite Origin.
func (g Grid) Max() [3]float64 {
	return [3]float64{
		g.Origin[0] + float64(g.Dims.X)*g.Cell,
		g.Origin[1] + float64(g.Dims.Y)*g.Cell,
		g.Origin[2] + float64(g.Dims.Z)*g.Cell,
	}
}
