package cds

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"runtime"

	"filippo.io/edwards25519"
)

// Ed25519Curve implements the Curve interface for the prime-order subgroup of
// edwards25519
type Ed25519Curve struct {
	rand io.Reader
}

// NewEd25519Curve creates a new Ed25519 curve instance sampling from crypto/rand
func NewEd25519Curve() *Ed25519Curve {
	curve, _ := NewCurve(Ed25519)
	return curve.(*Ed25519Curve)
}

func (c *Ed25519Curve) Name() string    { return "ed25519" }
func (c *Ed25519Curve) ScalarSize() int { return 32 }
func (c *Ed25519Curve) PointSize() int  { return 32 }

func (c *Ed25519Curve) ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != 32 {
		return nil, ErrInvalidScalarLength
	}

	scalar, err := new(edwards25519.Scalar).SetCanonicalBytes(data)
	if err != nil {
		return nil, ErrInvalidScalar.WithCause(err)
	}

	return &Ed25519Scalar{inner: scalar}, nil
}

func (c *Ed25519Curve) ScalarRandom() (Scalar, error) {
	bytes, err := readRandom(c.rand, 64) // 64 bytes for uniform distribution
	if err != nil {
		return nil, err
	}
	defer ZeroizeBytes(bytes)

	scalar, _ := edwards25519.NewScalar().SetUniformBytes(bytes)
	return NewEd25519Scalar(scalar), nil
}

// NewEd25519Scalar creates a new Ed25519Scalar with automatic cleanup via finalizer
func NewEd25519Scalar(inner *edwards25519.Scalar) *Ed25519Scalar {
	s := &Ed25519Scalar{inner: inner}
	runtime.SetFinalizer(s, (*Ed25519Scalar).finalize)
	return s
}

// finalize is called by the garbage collector as backup cleanup
func (s *Ed25519Scalar) finalize() {
	if s.inner != nil {
		s.Zeroize()
	}
}

func (c *Ed25519Curve) ScalarFromUniformBytes(data []byte) (Scalar, error) {
	if len(data) < 32 {
		return nil, ErrInvalidScalarLength
	}

	// Use up to 64 bytes for uniform distribution, pad if necessary
	uniformBytes := make([]byte, 64)
	copy(uniformBytes, data)

	scalar, _ := edwards25519.NewScalar().SetUniformBytes(uniformBytes)
	return &Ed25519Scalar{inner: scalar}, nil
}

func (c *Ed25519Curve) ScalarFromUint64(v uint64) Scalar {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[:8], v)
	scalar, _ := edwards25519.NewScalar().SetCanonicalBytes(buf[:])
	return &Ed25519Scalar{inner: scalar}
}

func (c *Ed25519Curve) ScalarZero() Scalar {
	return &Ed25519Scalar{inner: edwards25519.NewScalar()}
}

func (c *Ed25519Curve) ScalarOne() Scalar {
	return c.ScalarFromUint64(1)
}

func (c *Ed25519Curve) PointFromBytes(data []byte) (Point, error) {
	if len(data) != 32 {
		return nil, ErrInvalidPointLength
	}

	point, err := new(edwards25519.Point).SetBytes(data)
	if err != nil {
		return nil, ErrInvalidPoint.WithCause(err)
	}

	return &Ed25519Point{inner: point}, nil
}

func (c *Ed25519Curve) BasePoint() Point {
	return &Ed25519Point{inner: edwards25519.NewGeneratorPoint()}
}

func (c *Ed25519Curve) PointIdentity() Point {
	return &Ed25519Point{inner: edwards25519.NewIdentityPoint()}
}

func (c *Ed25519Curve) ValidateScalar(data []byte) error {
	if len(data) != 32 {
		return ErrInvalidScalarLength
	}

	if _, err := new(edwards25519.Scalar).SetCanonicalBytes(data); err != nil {
		return ErrInvalidScalar
	}

	return nil
}

// ValidatePoint decodes data and rejects points outside the prime-order subgroup
func (c *Ed25519Curve) ValidatePoint(data []byte) error {
	p, err := c.PointFromBytes(data)
	if err != nil {
		return err
	}
	if !p.(*Ed25519Point).isTorsionFree() {
		return ErrInvalidPoint.WithDetails("point has a small-order component")
	}
	return nil
}

func (c *Ed25519Curve) ownsScalar(s Scalar) bool {
	_, ok := s.(*Ed25519Scalar)
	return ok
}

func (c *Ed25519Curve) ownsPoint(p Point) bool {
	point, ok := p.(*Ed25519Point)
	return ok && point != nil && point.inner != nil
}

// Ed25519Scalar implements the Scalar interface
type Ed25519Scalar struct {
	inner *edwards25519.Scalar
}

func (s *Ed25519Scalar) Bytes() []byte {
	return s.inner.Bytes()
}

func (s *Ed25519Scalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *Ed25519Scalar) Add(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Add(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Sub(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Subtract(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Mul(other Scalar) Scalar {
	result := edwards25519.NewScalar()
	result.Multiply(s.inner, other.(*Ed25519Scalar).inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Negate() Scalar {
	result := edwards25519.NewScalar()
	result.Negate(s.inner)
	return &Ed25519Scalar{inner: result}
}

func (s *Ed25519Scalar) Invert() (Scalar, error) {
	if s.IsZero() {
		return nil, ErrScalarZero
	}

	result := edwards25519.NewScalar()
	result.Invert(s.inner)
	return &Ed25519Scalar{inner: result}, nil
}

func (s *Ed25519Scalar) Equal(other Scalar) bool {
	o, ok := other.(*Ed25519Scalar)
	if !ok || o == nil {
		return false
	}
	return s.inner.Equal(o.inner) == 1
}

func (s *Ed25519Scalar) IsZero() bool {
	return s.inner.Equal(edwards25519.NewScalar()) == 1
}

func (s *Ed25519Scalar) Zeroize() {
	s.inner = edwards25519.NewScalar()
	runtime.SetFinalizer(s, nil)
}

// Ed25519Point implements the Point interface
type Ed25519Point struct {
	inner *edwards25519.Point
}

func (p *Ed25519Point) Bytes() []byte {
	return p.inner.Bytes()
}

func (p *Ed25519Point) CompressedBytes() []byte {
	return p.Bytes() // Ed25519 points are already compressed
}

func (p *Ed25519Point) String() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *Ed25519Point) Add(other Point) Point {
	result := edwards25519.NewIdentityPoint()
	result.Add(p.inner, other.(*Ed25519Point).inner)
	return &Ed25519Point{inner: result}
}

func (p *Ed25519Point) Sub(other Point) Point {
	result := edwards25519.NewIdentityPoint()
	result.Subtract(p.inner, other.(*Ed25519Point).inner)
	return &Ed25519Point{inner: result}
}

func (p *Ed25519Point) Mul(scalar Scalar) Point {
	result := edwards25519.NewIdentityPoint()
	result.ScalarMult(scalar.(*Ed25519Scalar).inner, p.inner)
	return &Ed25519Point{inner: result}
}

func (p *Ed25519Point) Negate() Point {
	result := edwards25519.NewIdentityPoint()
	result.Negate(p.inner)
	return &Ed25519Point{inner: result}
}

func (p *Ed25519Point) Equal(other Point) bool {
	o, ok := other.(*Ed25519Point)
	if !ok || o == nil {
		return false
	}
	return p.inner.Equal(o.inner) == 1
}

func (p *Ed25519Point) IsIdentity() bool {
	return p.inner.Equal(edwards25519.NewIdentityPoint()) == 1
}

// isTorsionFree reports whether [l]P is the identity. ScalarMult works on the
// integer representative, so [l-1]P + P == [l]P.
func (p *Ed25519Point) isTorsionFree() bool {
	minusOne := edwards25519.NewScalar()
	minusOne.Negate(ed25519One())
	lp := edwards25519.NewIdentityPoint().ScalarMult(minusOne, p.inner)
	lp.Add(lp, p.inner)
	return lp.Equal(edwards25519.NewIdentityPoint()) == 1
}

func ed25519One() *edwards25519.Scalar {
	var buf [32]byte
	buf[0] = 1
	one, err := edwards25519.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		panic(fmt.Sprintf("ed25519: invalid constant: %v", err))
	}
	return one
}
