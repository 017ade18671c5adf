package distfield

// Field is a distance volume together with its grid size and the cap that
// bounds every value in it.
type Field[T Distance] struct {
	Dims Dims
	Cap  T
	Data []T
}

// New transforms occupied and wraps the result in a Field.
func New[T Distance](occupied []bool, dims Dims, opts ...Option) (*Field[T], error) {
	data, limit, err := Transform[T](occupied, dims, opts...)
	if err != nil {
		return nil, err
	}
	return &Field[T]{Dims: dims, Cap: limit, Data: data}, nil
}

// At returns the distance stored for (x, y, z).
func (f *Field[T]) At(x, y, z int) T {
	return f.Data[f.Dims.Index(x, y, z)]
}

// Saturated reports whether v is the cap, i.e. the true distance may be
// larger than the stored one.
func (f *Field[T]) Saturated(v T) bool {
	return v == f.Cap
}

// Stats summarizes a field.
type Stats struct {
	Cells     int
	Occupied  int // cells at distance 0
	Saturated int // cells at the cap
	Min       uint64
	Max       uint64
	Mean      float64
	// Histogram[v] is the number of cells at distance v, for v in
	// [0, min(Cap, MaxHistogram)].
	Histogram []int
}

// MaxHistogram is the largest distance Stats keeps a histogram bucket for.
const MaxHistogram = 1 << 16

// Stats walks the field once and returns its summary.
func (f *Field[T]) Stats() Stats {
	s := Stats{
		Cells:     len(f.Data),
		Histogram: make([]int, min(uint64(f.Cap), MaxHistogram)+1),
	}
	if len(f.Data) == 0 {
		return s
	}
	s.Min = uint64(f.Data[0])
	var sum uint64
	for _, v := range f.Data {
		u := uint64(v)
		sum += u
		s.Min = min(s.Min, u)
		s.Max = max(s.Max, u)
		if v == 0 {
			s.Occupied++
		}
		if v == f.Cap {
			s.Saturated++
		}
		if int(u) < len(s.Histogram) {
			s.Histogram[u]++
		}
	}
	s.Mean = float64(sum) / float64(len(f.Data))
	return s
}
