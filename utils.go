package cds

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const hashToScalarDomain = "CDS94_HASH_TO_SCALAR"

// ClauseIndex identifies a clause (statement) of a compiled proof. Indices are
// 1-based; index 0 is reserved for the shared secret.
type ClauseIndex uint32

// ToScalar maps the index to its evaluation point in the curve's field
func (ci ClauseIndex) ToScalar(curve Curve) Scalar {
	return curve.ScalarFromUint64(uint64(ci))
}

// HashToScalar hashes data to a scalar with BLAKE2b-512 and a wide reduction.
// Every chunk is length-prefixed so the encoding is unambiguous.
func HashToScalar(curve Curve, data ...[]byte) (Scalar, error) {
	hasher, err := blake2b.New512(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise blake2b: %w", err)
	}

	// Domain separation per protocol and curve
	hasher.Write([]byte(hashToScalarDomain))
	hasher.Write([]byte(curve.Name()))

	var length [4]byte
	for _, d := range data {
		binary.BigEndian.PutUint32(length[:], uint32(len(d)))
		hasher.Write(length[:])
		hasher.Write(d)
	}

	return curve.ScalarFromUniformBytes(hasher.Sum(nil))
}

// ZeroizeBytes securely clears a byte slice
func ZeroizeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

// ZeroizeScalarSlice securely clears a slice of scalars
func ZeroizeScalarSlice(scalars []Scalar) {
	for _, scalar := range scalars {
		if scalar != nil {
			scalar.Zeroize()
		}
	}
}

// BatchInvert inverts multiple scalars with a single field inversion using
// Montgomery's trick
func BatchInvert(curve Curve, scalars []Scalar) ([]Scalar, error) {
	n := len(scalars)
	if n == 0 {
		return nil, nil
	}

	for i, scalar := range scalars {
		if scalar.IsZero() {
			return nil, ErrScalarZero.WithDetails("scalar at position %d is zero", i)
		}
	}

	// partials[i] = s_0 * ... * s_i
	partials := make([]Scalar, n)
	partials[0] = scalars[0]
	for i := 1; i < n; i++ {
		partials[i] = partials[i-1].Mul(scalars[i])
	}

	acc, err := partials[n-1].Invert()
	if err != nil {
		return nil, err
	}

	// Walk backwards: acc holds (s_0 * ... * s_i)^-1 at the top of each step
	inverses := make([]Scalar, n)
	for i := n - 1; i > 0; i-- {
		inverses[i] = acc.Mul(partials[i-1])
		acc = acc.Mul(scalars[i])
	}
	inverses[0] = acc

	return inverses, nil
}
