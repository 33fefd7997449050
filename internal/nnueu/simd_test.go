package nnueu

import (
	"math/rand"
	"testing"
)

// TestSIMDMatchesScalarReference exercises simdAdd8/simdSub8 (whichever
// build is active) against an inline reference implementation,
// matching the bit-exactness contract SPEC_FULL.md §8 requires between
// the scalar and SIMD NNUEU paths.
func TestSIMDMatchesScalarReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 64; trial++ {
		var a, b, wantAdd, wantSub [FirstOut]int16
		for i := range a {
			a[i] = int16(rng.Intn(2000) - 1000)
			b[i] = int16(rng.Intn(2000) - 1000)
			wantAdd[i] = a[i] + b[i]
			wantSub[i] = a[i] - b[i]
		}

		gotAdd := a
		simdAdd8(&gotAdd, &b)
		if gotAdd != wantAdd {
			t.Fatalf("trial %d: simdAdd8 = %v, want %v", trial, gotAdd, wantAdd)
		}

		gotSub := a
		simdSub8(&gotSub, &b)
		if gotSub != wantSub {
			t.Fatalf("trial %d: simdSub8 = %v, want %v", trial, gotSub, wantSub)
		}
	}
}
