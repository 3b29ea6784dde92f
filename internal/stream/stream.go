// Package stream provides lazy, pull-based sequence transforms over JSON-line
// files. Every transform is a single pass and never materializes its input,
// so archives larger than memory can be processed.
package stream

import "iter"

// DedupBy yields each element the first time its key is seen and drops all
// later elements with the same key. Elements with an empty key are dropped
// entirely (malformed input is skipped, not fatal). Relative order of the
// retained subset is preserved.
func DedupBy[T any](seq iter.Seq[T], key func(T) string) iter.Seq[T] {
	return func(yield func(T) bool) {
		seen := make(map[string]struct{})
		for v := range seq {
			k := key(v)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !yield(v) {
				return
			}
		}
	}
}

// Head yields at most n elements of seq.
func Head[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		count := 0
		for v := range seq {
			if !yield(v) {
				return
			}
			count++
			if count >= n {
				return
			}
		}
	}
}

// Map lazily applies fn to each element.
func Map[T, U any](seq iter.Seq[T], fn func(T) U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for v := range seq {
			if !yield(fn(v)) {
				return
			}
		}
	}
}

// Concat chains sequences in order.
func Concat[T any](seqs ...iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, seq := range seqs {
			for v := range seq {
				if !yield(v) {
					return
				}
			}
		}
	}
}
