package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chazu/voxfield/pkg/distfield"
)

// sliceRune is the character slice prints for distance v.
func sliceRune(v, limit uint32) byte {
	switch {
	case v == limit:
		return '.'
	case v >= 10:
		return '+'
	default:
		return byte('0' + v)
	}
}

// renderSlice writes the Z slice z of f, one line per y.
func renderSlice(w io.Writer, f *distfield.Field[uint32], z int) error {
	if z < 0 || z >= f.Dims.Z {
		return fmt.Errorf("slice z=%d out of range [0, %d)", z, f.Dims.Z)
	}
	bw := bufio.NewWriter(w)
	line := make([]byte, f.Dims.X+1)
	line[f.Dims.X] = '\n'
	for y := 0; y < f.Dims.Y; y++ {
		for x := 0; x < f.Dims.X; x++ {
			line[x] = sliceRune(f.At(x, y, z), f.Cap)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
