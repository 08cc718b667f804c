package cds

import (
	"sync"
)

// SchnorrProtocol is the interactive Schnorr proof of knowledge of a discrete
// logarithm: the prover knows x with x·G = H.
type SchnorrProtocol struct {
	curve Curve
}

// NewSchnorrProtocol creates a Schnorr protocol over curve
func NewSchnorrProtocol(curve Curve) *SchnorrProtocol {
	return &SchnorrProtocol{curve: curve}
}

// SchnorrStatement is the public key H
type SchnorrStatement struct {
	H Point
}

func (s *SchnorrStatement) Bytes() []byte { return s.H.CompressedBytes() }

// SchnorrWitness is the discrete logarithm x of H
type SchnorrWitness struct {
	X Scalar
}

// Zeroize clears the secret
func (w *SchnorrWitness) Zeroize() {
	if w.X != nil {
		w.X.Zeroize()
	}
}

// SchnorrCommitment is the first message A = r·G
type SchnorrCommitment struct {
	A Point
}

func (m *SchnorrCommitment) Bytes() []byte { return m.A.CompressedBytes() }

// SchnorrResponse is the second message z = r + c·x
type SchnorrResponse struct {
	Z Scalar
}

func (m *SchnorrResponse) Bytes() []byte { return m.Z.Bytes() }

// schnorrState holds the nonce and a private copy of the witness between
// Commit and Respond
type schnorrState struct {
	mu    sync.Mutex
	nonce Scalar
	x     Scalar
	used  bool
}

func (s *schnorrState) Zeroize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zeroizeLocked()
}

func (s *schnorrState) zeroizeLocked() {
	if s.nonce != nil {
		s.nonce.Zeroize()
	}
	if s.x != nil {
		s.x.Zeroize()
	}
	s.used = true
}

// GenerateSchnorrInstance samples a fresh witness and its statement
func GenerateSchnorrInstance(curve Curve) (*SchnorrStatement, *SchnorrWitness, error) {
	x, err := curve.ScalarRandom()
	if err != nil {
		return nil, nil, err
	}
	return &SchnorrStatement{H: curve.BasePoint().Mul(x)}, &SchnorrWitness{X: x}, nil
}

// NewSchnorrStatementFromWitness derives H = x·G
func NewSchnorrStatementFromWitness(curve Curve, x Scalar) (*SchnorrStatement, error) {
	if err := checkScalar(curve, x); err != nil {
		return nil, err
	}
	return &SchnorrStatement{H: curve.BasePoint().Mul(x)}, nil
}

func (p *SchnorrProtocol) Name() string { return "schnorr-" + p.curve.Name() }

// ChallengeSpace returns the curve; challenges are its scalars
func (p *SchnorrProtocol) ChallengeSpace() Curve { return p.curve }

// CheckWitness verifies x·G == H
func (p *SchnorrProtocol) CheckWitness(statement Statement, witness Witness) error {
	st, ok := statement.(*SchnorrStatement)
	if !ok || st == nil || checkPoint(p.curve, st.H) != nil {
		return ErrInvalidWitness.WithDetails("statement %T is not a Schnorr statement", statement)
	}
	w, ok := witness.(*SchnorrWitness)
	if !ok || w == nil {
		return ErrInvalidWitness.WithDetails("witness %T is not a Schnorr witness", witness)
	}
	if err := checkScalar(p.curve, w.X); err != nil {
		return ErrInvalidWitness.WithCause(err)
	}
	if !p.curve.BasePoint().Mul(w.X).Equal(st.H) {
		return ErrInvalidWitness
	}
	return nil
}

// Commit samples a nonce r and returns A = r·G
func (p *SchnorrProtocol) Commit(statement Statement, witness Witness) (Message, ProverState, error) {
	if err := p.CheckWitness(statement, witness); err != nil {
		return nil, nil, err
	}

	nonce, err := p.curve.ScalarRandom()
	if err != nil {
		return nil, nil, err
	}

	x := witness.(*SchnorrWitness).X
	state := &schnorrState{
		nonce: nonce,
		x:     x.Add(p.curve.ScalarZero()),
	}
	return &SchnorrCommitment{A: p.curve.BasePoint().Mul(nonce)}, state, nil
}

// Respond returns z = r + c·x and destroys the state
func (p *SchnorrProtocol) Respond(state ProverState, challenge Scalar) (Message, error) {
	st, ok := state.(*schnorrState)
	if !ok || st == nil {
		return nil, ErrInvalidState.WithDetails("state %T is not a Schnorr prover state", state)
	}
	if err := checkScalar(p.curve, challenge); err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.used {
		return nil, ErrInvalidState.WithDetails("prover state already used")
	}

	z := st.nonce.Add(challenge.Mul(st.x))
	st.zeroizeLocked()
	return &SchnorrResponse{Z: z}, nil
}

// Verify checks z·G == A + c·H
func (p *SchnorrProtocol) Verify(statement Statement, first Message, challenge Scalar, second Message) bool {
	st, ok := statement.(*SchnorrStatement)
	if !ok || st == nil || checkPoint(p.curve, st.H) != nil {
		return false
	}
	commitment, ok := first.(*SchnorrCommitment)
	if !ok || commitment == nil || checkPoint(p.curve, commitment.A) != nil {
		return false
	}
	response, ok := second.(*SchnorrResponse)
	if !ok || response == nil {
		return false
	}
	if checkScalar(p.curve, response.Z) != nil || checkScalar(p.curve, challenge) != nil {
		return false
	}

	lhs := p.curve.BasePoint().Mul(response.Z)
	rhs := commitment.A.Add(st.H.Mul(challenge))
	return lhs.Equal(rhs)
}

// Simulate picks z at random and solves A = z·G - c·H
func (p *SchnorrProtocol) Simulate(statement Statement, challenge Scalar) (Message, Message, error) {
	st, ok := statement.(*SchnorrStatement)
	if !ok || st == nil || checkPoint(p.curve, st.H) != nil {
		return nil, nil, ErrInvalidMessage.WithDetails("statement %T is not a Schnorr statement", statement)
	}
	if err := checkScalar(p.curve, challenge); err != nil {
		return nil, nil, err
	}

	z, err := p.curve.ScalarRandom()
	if err != nil {
		return nil, nil, err
	}
	a := p.curve.BasePoint().Mul(z).Sub(st.H.Mul(challenge))
	return &SchnorrCommitment{A: a}, &SchnorrResponse{Z: z}, nil
}

// ParseFirst decodes a compressed commitment point
func (p *SchnorrProtocol) ParseFirst(data []byte) (Message, error) {
	if err := p.curve.ValidatePoint(data); err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	point, err := p.curve.PointFromBytes(data)
	if err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	return &SchnorrCommitment{A: point}, nil
}

// ParseSecond decodes a canonical response scalar
func (p *SchnorrProtocol) ParseSecond(data []byte) (Message, error) {
	z, err := p.curve.ScalarFromBytes(data)
	if err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	return &SchnorrResponse{Z: z}, nil
}

// ParseStatement decodes a compressed public key
func (p *SchnorrProtocol) ParseStatement(data []byte) (*SchnorrStatement, error) {
	if err := p.curve.ValidatePoint(data); err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	point, err := p.curve.PointFromBytes(data)
	if err != nil {
		return nil, ErrEncoding.WithCause(err)
	}
	return &SchnorrStatement{H: point}, nil
}
