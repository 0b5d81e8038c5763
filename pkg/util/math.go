package util

import "golang.org/x/exp/constraints"

// Tau is a full turn in radians.
const Tau = 6.283185307179586476925286766559

func Clamp[T constraints.Ordered](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
