package util

// CloneSlice returns a copy of src. A nil src results in an empty, non-nil slice.
func CloneSlice[T any](src []T) []T {
	clone := make([]T, len(src))
	copy(clone, src)

	return clone
}

// Integer is the set of Go integer types accepted by the numeric item constructors.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Float is the set of Go float types accepted by the float item constructor.
type Float interface {
	~float32 | ~float64
}

// AppendInts converts values to int64 and appends them to target.
//
// Unsigned values greater than math.MaxInt64 wrap around; callers range-check uint64 inputs beforehand.
func AppendInts[T Integer](target []int64, values []T) []int64 {
	for _, v := range values {
		target = append(target, int64(v))
	}

	return target
}

// AppendFloats converts values to float64 and appends them to target.
func AppendFloats[T Float | Integer](target []float64, values []T) []float64 {
	for _, v := range values {
		target = append(target, float64(v))
	}

	return target
}
