package distfield

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimsIndexCoordRoundTrip(t *testing.T) {
	dims := Dims{X: 5, Y: 3, Z: 4}
	seen := make([]bool, dims.Len())
	for z := 0; z < dims.Z; z++ {
		for y := 0; y < dims.Y; y++ {
			for x := 0; x < dims.X; x++ {
				i := dims.Index(x, y, z)
				require.False(t, seen[i], "index %d produced twice", i)
				seen[i] = true

				gx, gy, gz := dims.Coord(i)
				assert.Equal(t, [3]int{x, y, z}, [3]int{gx, gy, gz})
			}
		}
	}
}

func TestDimsIndexLayout(t *testing.T) {
	dims := Cube(2)
	assert.Equal(t, 0, dims.Index(0, 0, 0))
	assert.Equal(t, 1, dims.Index(1, 0, 0))
	assert.Equal(t, 2, dims.Index(0, 1, 0))
	assert.Equal(t, 4, dims.Index(0, 0, 1))
	assert.Equal(t, 7, dims.Index(1, 1, 1))
}

// Every axis must partition the grid into rows that cover each cell once.
func TestDimsRowsCoverGrid(t *testing.T) {
	dims := Dims{X: 4, Y: 3, Z: 5}
	for _, a := range []Axis{AxisX, AxisY, AxisZ} {
		t.Run(a.String(), func(t *testing.T) {
			hits := make([]int, dims.Len())
			stride, n := dims.Stride(a), dims.Extent(a)
			for r := 0; r < dims.Rows(a); r++ {
				i := dims.RowStart(a, r)
				for k := 0; k < n; k++ {
					hits[i]++
					i += stride
				}
			}
			for i, h := range hits {
				assert.Equal(t, 1, h, "cell %d visited %d times along %s", i, h, a)
			}
		})
	}
}

func TestDimsValidate(t *testing.T) {
	tests := []struct {
		name string
		dims Dims
		ok   bool
	}{
		{"unit", Cube(1), true},
		{"non-cubic", Dims{X: 7, Y: 1, Z: 3}, true},
		{"zero x", Dims{X: 0, Y: 2, Z: 2}, false},
		{"negative z", Dims{X: 2, Y: 2, Z: -1}, false},
		{"all zero", Dims{}, false},
		{"overflow", Dims{X: 1 << 30, Y: 1 << 30, Z: 1 << 30}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dims.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDims))
			var de *DimensionError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.dims, de.Dims)
		})
	}
}

func TestAxisString(t *testing.T) {
	assert.Equal(t, "x", AxisX.String())
	assert.Equal(t, "y", AxisY.String())
	assert.Equal(t, "z", AxisZ.String())
	assert.Equal(t, "Axis(9)", Axis(9).String())
}
