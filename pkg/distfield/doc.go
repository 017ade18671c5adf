// Package distfield converts a flattened 3D occupancy grid into a Manhattan
// distance field in linear time.
//
// Every output cell holds the Manhattan distance to the closest occupied
// input cell (0 if the cell is occupied itself), saturated at a cap derived
// from the output element type, the grid size and an optional hint.
//
// The transform runs three separable passes, X then Y then Z. Each pass
// sweeps every 1D row along its axis twice, once in each direction. Only the
// X pass reads the occupancy grid; Y and Z only ever lower values already
// written, so the pass order is load-bearing. Total cost is 6 visits per
// cell regardless of occupancy or cap.
//
// Layout is row-major with X fastest: index = z*X*Y + y*X + x.
package distfield
