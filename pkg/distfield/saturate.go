package distfield

// Distance is the set of element types a distance volume can hold.
type Distance interface {
	~uint8 | ~uint16 | ~uint32
}

// MaxOf returns the largest value representable by T.
func MaxOf[T Distance]() T {
	return ^T(0)
}

// step returns v+1 saturated at limit. v must not exceed limit; the
// comparison happens before the add so limit == MaxOf[T] cannot wrap.
func step[T Distance](v, limit T) T {
	if v >= limit {
		return limit
	}
	return v + 1
}

// Cap returns the saturation cap for a grid of the given dims: the
// smallest of T's maximum, hint (ignored when < 1) and the largest Manhattan
// distance inside the grid, X+Y+Z-3. The geometric bound is raised to 1 so
// that a free cell can never read as occupied.
func Cap[T Distance](dims Dims, hint int) T {
	bound := uint64(1)
	if sum := uint64(dims.X) + uint64(dims.Y) + uint64(dims.Z); sum > 4 {
		bound = sum - 3
	}
	if hint > 0 && uint64(hint) < bound {
		bound = uint64(hint)
	}
	if m := uint64(MaxOf[T]()); m < bound {
		bound = m
	}
	return T(bound)
}
