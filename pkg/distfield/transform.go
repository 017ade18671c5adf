package distfield

import (
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Transform computes the Manhattan distance field of occupied and returns it
// together with the cap that bounds every value in it.
func Transform[T Distance](occupied []bool, dims Dims, opts ...Option) ([]T, T, error) {
	if err := dims.Validate(); err != nil {
		return nil, 0, err
	}
	dst := make([]T, dims.Len())
	limit, err := TransformInto(dst, occupied, dims, opts...)
	if err != nil {
		return nil, 0, err
	}
	return dst, limit, nil
}

// TransformInto writes the distance field of occupied into dst and returns
// the cap used. dst is fully overwritten; its previous contents are never
// read. occupied is not modified.
func TransformInto[T Distance](dst []T, occupied []bool, dims Dims, opts ...Option) (T, error) {
	if err := dims.Validate(); err != nil {
		return 0, err
	}
	n := dims.Len()
	if len(occupied) != n {
		return 0, &LengthMismatchError{Buffer: "occupancy", Expected: n, Actual: len(occupied)}
	}
	if len(dst) != n {
		return 0, &LengthMismatchError{Buffer: "distance", Expected: n, Actual: len(dst)}
	}
	o, err := applyOptions(opts)
	if err != nil {
		return 0, err
	}

	p := &pipeline[T]{
		dst:      dst,
		occupied: occupied,
		dims:     dims,
		limit:    Cap[T](dims, o.capHint),
		workers:  o.workers,
		log:      Logger(),
	}
	p.run()
	return p.limit, nil
}

// pipeline holds the state of one transform call.
type pipeline[T Distance] struct {
	dst      []T
	occupied []bool
	dims     Dims
	limit    T
	workers  int
	log      *slog.Logger
}

// run executes the X, Y and Z passes in that order. Y assumes every cell is
// already exact along X, Z assumes X and Y; reordering under-propagates
// silently.
func (p *pipeline[T]) run() {
	start := time.Now()
	for _, a := range [...]Axis{AxisX, AxisY, AxisZ} {
		passStart := time.Now()
		p.pass(a)
		p.log.Debug("distfield pass done",
			"axis", a,
			"rows", p.dims.Rows(a),
			"workers", p.workers,
			"elapsed", time.Since(passStart))
	}
	p.log.Debug("distfield transform done",
		"dims", p.dims,
		"cap", uint64(p.limit),
		"elapsed", time.Since(start))
}

// pass resolves every row along a. It returns only after all rows are done.
func (p *pipeline[T]) pass(a Axis) {
	stride := p.dims.Stride(a)
	n := p.dims.Extent(a)
	forEachRow(p.dims.Rows(a), p.workers, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			start := p.dims.RowStart(a, r)
			if a == AxisX {
				seedRow(p.dst, p.occupied, start, stride, n, p.limit)
			} else {
				relaxRow(p.dst, start, stride, n, p.limit)
			}
		}
	})
}

// forEachRow calls fn over [0, rows) split into contiguous ranges, one per
// worker, and waits for all of them.
func forEachRow(rows, workers int, fn func(lo, hi int)) {
	if workers <= 1 || rows < 2 {
		fn(0, rows)
		return
	}
	workers = min(workers, rows)
	chunk := (rows + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < rows; lo += chunk {
		hi := min(lo+chunk, rows)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
