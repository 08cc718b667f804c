package cds

import (
	"crypto/rand"
	"io"
)

// Curve defines the interface for elliptic curve operations. Its scalar field
// is both the challenge space of the base protocols and the field the sharing
// engine works over.
type Curve interface {
	// Metadata
	Name() string
	ScalarSize() int
	PointSize() int

	// Scalar operations
	ScalarFromBytes([]byte) (Scalar, error)
	ScalarFromUniformBytes([]byte) (Scalar, error)
	ScalarFromUint64(uint64) Scalar
	ScalarRandom() (Scalar, error)
	ScalarZero() Scalar
	ScalarOne() Scalar

	// Point operations
	PointFromBytes([]byte) (Point, error)
	BasePoint() Point
	PointIdentity() Point

	// Validation
	ValidateScalar([]byte) error
	ValidatePoint([]byte) error
}

// Scalar represents a scalar value in the curve's field
type Scalar interface {
	// Serialization
	Bytes() []byte
	String() string

	// Arithmetic operations
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Negate() Scalar
	Invert() (Scalar, error)

	// Comparison
	Equal(Scalar) bool
	IsZero() bool

	// Security
	Zeroize()
}

// Point represents a point on the elliptic curve
type Point interface {
	// Serialization
	Bytes() []byte
	CompressedBytes() []byte
	String() string

	// Arithmetic operations
	Add(Point) Point
	Sub(Point) Point
	Mul(Scalar) Point
	Negate() Point

	// Comparison
	Equal(Point) bool
	IsIdentity() bool
}

// CurveType represents supported curve types
type CurveType string

const (
	Secp256k1 CurveType = "secp256k1"
	Ed25519   CurveType = "ed25519"
)

// NewCurve creates a new curve instance sampling from crypto/rand
func NewCurve(curveType CurveType) (Curve, error) {
	return NewCurveWithReader(curveType, rand.Reader)
}

// NewCurveWithReader creates a curve instance that samples scalars from r.
// r must be safe for concurrent use; see NewSeededReader.
func NewCurveWithReader(curveType CurveType, r io.Reader) (Curve, error) {
	if r == nil {
		return nil, ErrInvalidConfiguration.WithDetails("randomness source cannot be nil")
	}
	switch curveType {
	case Secp256k1:
		return &Secp256k1Curve{rand: r}, nil
	case Ed25519:
		return &Ed25519Curve{rand: r}, nil
	default:
		return nil, ErrInvalidCurve.WithDetails("unsupported curve type: %s", curveType)
	}
}

// readRandom fills size bytes from r
func readRandom(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrRandomnessGeneration.WithCause(err)
	}
	return buf, nil
}

// sameField reports whether two curves share a scalar field
func sameField(a, b Curve) bool {
	return a != nil && b != nil && a.Name() == b.Name()
}

// scalarOwner is implemented by the in-module curves to recognise their own
// scalar representation before any type assertion can panic.
type scalarOwner interface {
	ownsScalar(Scalar) bool
}

func checkScalar(curve Curve, s Scalar) error {
	if s == nil {
		return ErrInvalidScalar.WithDetails("scalar cannot be nil")
	}
	if owner, ok := curve.(scalarOwner); ok && !owner.ownsScalar(s) {
		return ErrInvalidScalar.WithDetails("scalar %T does not belong to %s", s, curve.Name())
	}
	return nil
}

// pointOwner is the point counterpart of scalarOwner. It also rejects
// zero-valued points whose arithmetic would dereference nil.
type pointOwner interface {
	ownsPoint(Point) bool
}

func checkPoint(curve Curve, p Point) error {
	if p == nil {
		return ErrInvalidPoint.WithDetails("point cannot be nil")
	}
	if owner, ok := curve.(pointOwner); ok && !owner.ownsPoint(p) {
		return ErrInvalidPoint.WithDetails("point %T does not belong to %s", p, curve.Name())
	}
	return nil
}
