//go:build !(goexperiment.simd && amd64)

// Scalar fallback for the accumulator add/subtract hot path, used on
// every platform without Go's experimental archsimd package (which
// today only targets amd64). This is the normative implementation:
// simd_amd64.go must agree with it bit-exactly, checked directly in
// simd_test.go, mirroring the contract the teacher's own
// sfnnue/simd_test.go and layers/simd_test.go enforce between their
// SIMD and scalar paths.
package nnueu

func simdAdd8(dst, src *[FirstOut]int16) {
	for i := range dst {
		dst[i] += src[i]
	}
}

func simdSub8(dst, src *[FirstOut]int16) {
	for i := range dst {
		dst[i] -= src[i]
	}
}
