// Package voxelize turns a scene graph into a boolean occupancy volume by
// sampling a geometry kernel at the centre of every voxel of a grid.
package voxelize

import (
	"github.com/chazu/voxfield/pkg/graph"
	"github.com/chazu/voxfield/pkg/kernel"
	"golang.org/x/sync/errgroup"
)

// Voxelize builds the scene's solid and samples it on grid.
func Voxelize(g *graph.SceneGraph, k kernel.Kernel, grid Grid, workers int) ([]bool, error) {
	s, err := BuildSolid(g, k)
	if err != nil {
		return nil, err
	}
	return Sample(k, s, grid, workers)
}

// Sample marks every voxel of grid whose centre lies inside s. The result is
// laid out x-fastest, matching distfield.Dims.Index. Z-slabs are split across
// up to workers goroutines; workers < 1 means one.
func Sample(k kernel.Kernel, s kernel.Solid, grid Grid, workers int) ([]bool, error) {
	if err := grid.Dims.Validate(); err != nil {
		return nil, err
	}
	if !(grid.Cell > 0) {
		return nil, ErrInvalidCell
	}
	if workers < 1 {
		workers = 1
	}

	d := grid.Dims
	occupied := make([]bool, d.Len())
	slab := d.X * d.Y

	var eg errgroup.Group
	eg.SetLimit(workers)
	for z := 0; z < d.Z; z++ {
		eg.Go(func() error {
			base := z * slab
			for y := 0; y < d.Y; y++ {
				row := base + y*d.X
				for x := 0; x < d.X; x++ {
					occupied[row+x] = k.Inside(s, grid.Center(x, y, z))
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return occupied, nil
}

// Count returns the number of occupied voxels.
func Count(occupied []bool) int {
	n := 0
	for _, o := range occupied {
		if o {
			n++
		}
	}
	return n
}
