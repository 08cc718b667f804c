package cds

import (
	"errors"
	"testing"
)

func TestBatchInvert(t *testing.T) {
	for _, curve := range testCurves() {
		t.Run(curve.Name(), func(t *testing.T) {
			for _, size := range []int{1, 2, 7} {
				scalars := make([]Scalar, size)
				for i := range scalars {
					s, err := curve.ScalarRandom()
					if err != nil {
						t.Fatalf("Failed to sample scalar: %v", err)
					}
					scalars[i] = s
				}

				inverses, err := BatchInvert(curve, scalars)
				if err != nil {
					t.Fatalf("BatchInvert failed for size %d: %v", size, err)
				}
				for i := range scalars {
					expected, _ := scalars[i].Invert()
					if !inverses[i].Equal(expected) {
						t.Fatalf("Inverse %d of %d differs from single inversion", i, size)
					}
				}
			}

			inverses, err := BatchInvert(curve, nil)
			if err != nil || inverses != nil {
				t.Fatalf("Empty input should give no inverses, got %v, %v", inverses, err)
			}

			withZero := []Scalar{curve.ScalarOne(), curve.ScalarZero()}
			if _, err := BatchInvert(curve, withZero); !errors.Is(err, ErrScalarZero) {
				t.Fatalf("Expected ErrScalarZero, got %v", err)
			}
		})
	}
}

func TestHashToScalar(t *testing.T) {
	for _, curve := range testCurves() {
		t.Run(curve.Name(), func(t *testing.T) {
			a, err := HashToScalar(curve, []byte("ab"), []byte("c"))
			if err != nil {
				t.Fatalf("HashToScalar failed: %v", err)
			}
			b, _ := HashToScalar(curve, []byte("ab"), []byte("c"))
			c, _ := HashToScalar(curve, []byte("a"), []byte("bc"))

			if !a.Equal(b) {
				t.Fatal("HashToScalar is not deterministic")
			}
			if a.Equal(c) {
				t.Fatal("Chunk boundaries are not part of the hash input")
			}
		})
	}
}

func TestClauseIndexToScalar(t *testing.T) {
	for _, curve := range testCurves() {
		t.Run(curve.Name(), func(t *testing.T) {
			two := ClauseIndex(2).ToScalar(curve)
			if !two.Equal(curve.ScalarOne().Add(curve.ScalarOne())) {
				t.Fatal("ClauseIndex(2) does not map to 2")
			}
		})
	}
}
