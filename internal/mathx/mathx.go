// Package mathx collects the small ordered-type helpers the controller core
// needs for clamping counters and bounding timing values. Adapted from the
// teacher's x/mathx package.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Min returns the smaller of a, b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a, b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// MinOf folds Min over a non-empty slice.
func MinOf[T constraints.Ordered](vs []T) T {
	m := vs[0]
	for _, v := range vs[1:] {
		m = Min(m, v)
	}
	return m
}
