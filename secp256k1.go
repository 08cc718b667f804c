package cds

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"math/big"
	"runtime"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Secp256k1Curve implements the Curve interface for secp256k1
type Secp256k1Curve struct {
	rand io.Reader
}

// NewSecp256k1Curve creates a new secp256k1 curve instance sampling from crypto/rand
func NewSecp256k1Curve() *Secp256k1Curve {
	curve, _ := NewCurve(Secp256k1)
	return curve.(*Secp256k1Curve)
}

func (c *Secp256k1Curve) Name() string    { return "secp256k1" }
func (c *Secp256k1Curve) ScalarSize() int { return 32 }
func (c *Secp256k1Curve) PointSize() int  { return 33 } // Compressed

// ScalarFromBytes decodes a big-endian scalar and rejects values >= n
func (c *Secp256k1Curve) ScalarFromBytes(data []byte) (Scalar, error) {
	if len(data) != 32 {
		return nil, ErrInvalidScalarLength
	}

	scalar := new(btcec.ModNScalar)
	if overflow := scalar.SetBytes((*[32]byte)(data)); overflow != 0 {
		return nil, ErrInvalidScalar.WithDetails("scalar is not reduced modulo the group order")
	}

	return &Secp256k1Scalar{inner: scalar}, nil
}

// ScalarFromUniformBytes reduces an arbitrary-length big-endian value modulo n.
// At least 32 bytes are required; 64 give a negligible bias.
func (c *Secp256k1Curve) ScalarFromUniformBytes(data []byte) (Scalar, error) {
	if len(data) < 32 {
		return nil, ErrInvalidScalarLength
	}

	reduced := new(big.Int).SetBytes(data)
	reduced.Mod(reduced, btcec.S256().Params().N)

	var buf [32]byte
	reduced.FillBytes(buf[:])
	scalar := new(btcec.ModNScalar)
	scalar.SetBytes(&buf)
	ZeroizeBytes(buf[:])
	return &Secp256k1Scalar{inner: scalar}, nil
}

func (c *Secp256k1Curve) ScalarFromUint64(v uint64) Scalar {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	scalar := new(btcec.ModNScalar)
	scalar.SetByteSlice(buf[:])
	return &Secp256k1Scalar{inner: scalar}
}

func (c *Secp256k1Curve) ScalarRandom() (Scalar, error) {
	for {
		bytes, err := readRandom(c.rand, 32)
		if err != nil {
			return nil, err
		}

		scalar := new(btcec.ModNScalar)
		overflow := scalar.SetBytes((*[32]byte)(bytes))
		ZeroizeBytes(bytes)
		if overflow == 0 {
			return &Secp256k1Scalar{inner: scalar}, nil
		}
		// If overflow, try again with new random bytes
	}
}

func (c *Secp256k1Curve) ScalarZero() Scalar {
	return &Secp256k1Scalar{inner: new(btcec.ModNScalar)}
}

func (c *Secp256k1Curve) ScalarOne() Scalar {
	scalar := new(btcec.ModNScalar)
	scalar.SetInt(1)
	return &Secp256k1Scalar{inner: scalar}
}

func (c *Secp256k1Curve) PointFromBytes(data []byte) (Point, error) {
	if len(data) != 33 && len(data) != 65 {
		return nil, ErrInvalidPointLength
	}

	if isAllZero(data) {
		return c.PointIdentity(), nil
	}

	pubKey, err := btcec.ParsePubKey(data)
	if err != nil {
		return nil, ErrInvalidPoint.WithCause(err)
	}

	return &Secp256k1Point{inner: pubKey}, nil
}

func (c *Secp256k1Curve) BasePoint() Point {
	return &Secp256k1Point{inner: btcec.Generator()}
}

func (c *Secp256k1Curve) PointIdentity() Point {
	// Point at infinity
	return &Secp256k1Point{inner: nil}
}

func (c *Secp256k1Curve) ValidateScalar(data []byte) error {
	if len(data) != 32 {
		return ErrInvalidScalarLength
	}

	scalar := new(btcec.ModNScalar)
	if overflow := scalar.SetBytes((*[32]byte)(data)); overflow != 0 {
		return ErrInvalidScalar
	}

	return nil
}

func (c *Secp256k1Curve) ValidatePoint(data []byte) error {
	_, err := c.PointFromBytes(data)
	return err
}

func (c *Secp256k1Curve) ownsScalar(s Scalar) bool {
	_, ok := s.(*Secp256k1Scalar)
	return ok
}

// ownsPoint accepts a nil inner key, which is the point at infinity
func (c *Secp256k1Curve) ownsPoint(p Point) bool {
	point, ok := p.(*Secp256k1Point)
	return ok && point != nil
}

// Secp256k1Scalar implements the Scalar interface
type Secp256k1Scalar struct {
	inner *btcec.ModNScalar
}

func (s *Secp256k1Scalar) Bytes() []byte {
	var bytes [32]byte
	s.inner.PutBytes(&bytes)
	return bytes[:]
}

func (s *Secp256k1Scalar) String() string {
	return hex.EncodeToString(s.Bytes())
}

func (s *Secp256k1Scalar) Add(other Scalar) Scalar {
	result := new(btcec.ModNScalar)
	result.Add2(s.inner, other.(*Secp256k1Scalar).inner)
	return &Secp256k1Scalar{inner: result}
}

func (s *Secp256k1Scalar) Sub(other Scalar) Scalar {
	negated := new(btcec.ModNScalar).NegateVal(other.(*Secp256k1Scalar).inner)
	result := new(btcec.ModNScalar)
	result.Add2(s.inner, negated)
	return &Secp256k1Scalar{inner: result}
}

func (s *Secp256k1Scalar) Mul(other Scalar) Scalar {
	result := new(btcec.ModNScalar)
	result.Mul2(s.inner, other.(*Secp256k1Scalar).inner)
	return &Secp256k1Scalar{inner: result}
}

func (s *Secp256k1Scalar) Negate() Scalar {
	result := new(btcec.ModNScalar).NegateVal(s.inner)
	return &Secp256k1Scalar{inner: result}
}

func (s *Secp256k1Scalar) Invert() (Scalar, error) {
	if s.IsZero() {
		return nil, ErrScalarZero
	}

	// btcec/v2 only offers a variable-time inversion.
	result := new(btcec.ModNScalar).InverseValNonConst(s.inner)
	return &Secp256k1Scalar{inner: result}, nil
}

func (s *Secp256k1Scalar) Equal(other Scalar) bool {
	o, ok := other.(*Secp256k1Scalar)
	if !ok || o == nil {
		return false
	}
	return s.inner.Equals(o.inner)
}

func (s *Secp256k1Scalar) IsZero() bool {
	return s.inner.IsZero()
}

func (s *Secp256k1Scalar) Zeroize() {
	s.inner.Zero()
	runtime.KeepAlive(s)
}

// Secp256k1Point implements the Point interface. A nil inner key is the point
// at infinity.
type Secp256k1Point struct {
	inner *btcec.PublicKey
}

func (p *Secp256k1Point) Bytes() []byte {
	if p.inner == nil {
		return make([]byte, 65) // Point at infinity
	}
	return p.inner.SerializeUncompressed()
}

func (p *Secp256k1Point) CompressedBytes() []byte {
	if p.inner == nil {
		return make([]byte, 33) // Point at infinity
	}
	return p.inner.SerializeCompressed()
}

func (p *Secp256k1Point) String() string {
	return hex.EncodeToString(p.CompressedBytes())
}

func (p *Secp256k1Point) Add(other Point) Point {
	o := other.(*Secp256k1Point)
	if p.inner == nil {
		return o
	}
	if o.inner == nil {
		return p
	}

	var a, b, result btcec.JacobianPoint
	p.inner.AsJacobian(&a)
	o.inner.AsJacobian(&b)

	// btcec/v2 only offers variable-time point arithmetic.
	btcec.AddNonConst(&a, &b, &result)
	return secp256k1FromJacobian(&result)
}

func (p *Secp256k1Point) Sub(other Point) Point {
	return p.Add(other.Negate())
}

func (p *Secp256k1Point) Mul(scalar Scalar) Point {
	if p.inner == nil {
		return p // Point at infinity
	}

	var pointJac, result btcec.JacobianPoint
	p.inner.AsJacobian(&pointJac)

	btcec.ScalarMultNonConst(scalar.(*Secp256k1Scalar).inner, &pointJac, &result)
	return secp256k1FromJacobian(&result)
}

func (p *Secp256k1Point) Negate() Point {
	if p.inner == nil {
		return p // Point at infinity
	}

	var jac btcec.JacobianPoint
	p.inner.AsJacobian(&jac)

	// Negate Y coordinate
	jac.Y.Negate(1)
	jac.Y.Normalize()
	return secp256k1FromJacobian(&jac)
}

func (p *Secp256k1Point) Equal(other Point) bool {
	o, ok := other.(*Secp256k1Point)
	if !ok || o == nil {
		return false
	}
	if p.inner == nil || o.inner == nil {
		return p.inner == nil && o.inner == nil
	}

	return p.inner.IsEqual(o.inner)
}

func (p *Secp256k1Point) IsIdentity() bool {
	return p.inner == nil
}

// secp256k1FromJacobian converts back to affine, mapping Z == 0 to infinity
func secp256k1FromJacobian(jac *btcec.JacobianPoint) *Secp256k1Point {
	jac.X.Normalize()
	jac.Y.Normalize()
	jac.Z.Normalize()
	if (jac.X.IsZero() && jac.Y.IsZero()) || jac.Z.IsZero() {
		return &Secp256k1Point{inner: nil}
	}
	jac.ToAffine()
	return &Secp256k1Point{inner: btcec.NewPublicKey(&jac.X, &jac.Y)}
}

func isAllZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
