package distfield

type options struct {
	capHint int
	capSet  bool
	workers int
}

// Option configures a transform.
type Option func(*options)

// WithCap lowers the saturation cap below the element type's maximum, for
// example 254 to keep 255 free as a marker in a uint8 field. Values below 1
// make the transform fail with ErrInvalidCap.
func WithCap(n int) Option {
	return func(o *options) {
		o.capHint = n
		o.capSet = true
	}
}

// WithWorkers sets how many goroutines may process rows of one pass
// concurrently. Rows within a pass touch disjoint cells; passes are still
// separated by a full barrier. n <= 1 runs everything on the calling
// goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func applyOptions(opts []Option) (options, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capSet && o.capHint < 1 {
		return o, ErrInvalidCap
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o, nil
}
