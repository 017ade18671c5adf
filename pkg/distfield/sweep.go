package distfield

// seedRow initializes one row along X from the occupancy grid and resolves
// it for that axis. Occupied cells become 0; a free first cell starts at
// limit and every later free cell is one more than its predecessor.
func seedRow[T Distance](d []T, occupied []bool, start, stride, n int, limit T) {
	i := start
	if occupied[i] {
		d[i] = 0
	} else {
		d[i] = limit
	}
	for k := 1; k < n; k++ {
		prev := d[i]
		i += stride
		if occupied[i] {
			d[i] = 0
		} else {
			d[i] = step(prev, limit)
		}
	}
	sweepBackward(d, start, stride, n, limit)
}

// relaxRow resolves one row along Y or Z whose cells already hold values
// that are exact for every earlier axis. It only ever lowers a cell.
func relaxRow[T Distance](d []T, start, stride, n int, limit T) {
	i := start
	for k := 1; k < n; k++ {
		j := i + stride
		if c := step(d[i], limit); c < d[j] {
			d[j] = c
		}
		i = j
	}
	sweepBackward(d, start, stride, n, limit)
}

// sweepBackward propagates distances from the end of the row towards its
// start, covering occupied cells that lie after a cell in array order.
func sweepBackward[T Distance](d []T, start, stride, n int, limit T) {
	if n < 2 {
		return
	}
	i := start + (n-1)*stride
	for k := n - 2; k >= 0; k-- {
		j := i - stride
		if c := step(d[i], limit); c < d[j] {
			d[j] = c
		}
		i = j
	}
}
