package internal

import "cmp"

// DereferenceOr - utility function to safely dereference a pointer, returning def if nil.
func DereferenceOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Clamp - bounds v to [lo, hi]. lo must not be greater than hi.
func Clamp[T cmp.Ordered](v T, lo T, hi T) T {
	return max(lo, min(hi, v))
}
