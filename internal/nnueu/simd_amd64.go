//go:build goexperiment.simd && amd64

// Package nnueu's SIMD specialisation for the accumulator's
// add/subtract hot path, gated on Go's experimental archsimd package.
// Grounded on the teacher's own sfnnue/simd.go, which gates the same
// operations behind the identical build tag for its HalfKP
// accumulator; ported here to FirstOut-wide (8-element) int16
// vectors instead of sfnnue's wider ones.

package nnueu

import "simd/archsimd"

const simdInt16Width = 8

func simdAdd8(dst, src *[FirstOut]int16) {
	if FirstOut < simdInt16Width {
		for i := range dst {
			dst[i] += src[i]
		}
		return
	}
	d := archsimd.LoadInt16x8(dst[:])
	s := archsimd.LoadInt16x8(src[:])
	archsimd.StoreInt16x8(dst[:], d.Add(s))
}

func simdSub8(dst, src *[FirstOut]int16) {
	if FirstOut < simdInt16Width {
		for i := range dst {
			dst[i] -= src[i]
		}
		return
	}
	d := archsimd.LoadInt16x8(dst[:])
	s := archsimd.LoadInt16x8(src[:])
	archsimd.StoreInt16x8(dst[:], d.Sub(s))
}
