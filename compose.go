package cds

import (
	"errors"
	"fmt"
)

// CompiledStatement is the statement list of a compiled protocol
type CompiledStatement struct {
	Statements []Statement
}

// Bytes encodes the clause statements as canonical CBOR
func (s *CompiledStatement) Bytes() []byte {
	encoded := make([][]byte, len(s.Statements))
	for i, st := range s.Statements {
		if st != nil {
			encoded[i] = st.Bytes()
		}
	}
	data, _ := encMode.Marshal(encoded)
	return data
}

// CompiledWitness holds the witnesses of a qualified set of clauses
type CompiledWitness struct {
	Witnesses map[ClauseIndex]Witness
}

// Zeroize clears every clause witness
func (w *CompiledWitness) Zeroize() {
	for _, witness := range w.Witnesses {
		if witness != nil {
			witness.Zeroize()
		}
	}
}

// compiledState is the prover state of a compiled clause: an inner prover
// waiting for its global challenge
type compiledState struct {
	prover *Prover
}

func (s *compiledState) Zeroize() { s.prover.Zeroize() }

// CompiledProtocol exposes a d-out-of-n compilation of base as a protocol in
// its own right, so it can be a clause of an outer compiler. Its challenge is
// the global challenge s, its messages are Commitment and Response.
type CompiledProtocol struct {
	cfg    *Config
	base   Protocol
	access *AccessStructure
}

// NewCompiledProtocol compiles base under access
func NewCompiledProtocol(cfg *Config, base Protocol, access *AccessStructure) (*CompiledProtocol, error) {
	if cfg == nil {
		return nil, ErrInvalidConfiguration.WithDetails("configuration cannot be nil")
	}
	if base == nil {
		return nil, ErrInvalidConfiguration.WithDetails("protocol cannot be nil")
	}
	if access == nil {
		return nil, ErrInvalidAccessStructure.WithDetails("access structure cannot be nil")
	}
	if !sameField(cfg.Curve, base.ChallengeSpace()) {
		return nil, ErrFieldMismatch.WithDetails("protocol %s challenges do not live in %s", base.Name(), nameOf(cfg.Curve))
	}
	return &CompiledProtocol{cfg: cfg, base: base, access: access}, nil
}

func (cp *CompiledProtocol) Name() string {
	return fmt.Sprintf("cds(%d-of-%d,%s)", cp.access.Active(), cp.access.Clauses(), cp.base.Name())
}

// ChallengeSpace returns the sharing field, which is also the base challenge space
func (cp *CompiledProtocol) ChallengeSpace() Curve { return cp.cfg.Curve }

// Access returns the access structure of the compilation
func (cp *CompiledProtocol) Access() *AccessStructure { return cp.access }

// CheckWitness validates a qualified set of inner witnesses against their clauses
func (cp *CompiledProtocol) CheckWitness(statement Statement, witness Witness) error {
	st, w, err := cp.unpack(statement, witness)
	if err != nil {
		return err
	}
	if len(st.Statements) != cp.access.Clauses() {
		return ErrInvalidWitness.WithDetails("got %d statements for %d clauses", len(st.Statements), cp.access.Clauses())
	}
	if !cp.access.IsQualified(keys(w.Witnesses)) {
		return ErrInvalidWitness.WithCause(ErrUnqualifiedSet)
	}
	checker, ok := cp.base.(WitnessChecker)
	if !ok {
		return nil
	}
	for index, inner := range w.Witnesses {
		if !cp.access.Contains(index) || inner == nil {
			return ErrInvalidWitness.WithDetails("inner clause %d", index)
		}
		if err := checker.CheckWitness(st.Statements[index-1], inner); err != nil {
			return ErrInvalidWitness.WithDetails("inner clause %d", index).WithCause(err)
		}
	}
	return nil
}

// Commit runs round 1 of an inner prover
func (cp *CompiledProtocol) Commit(statement Statement, witness Witness) (Message, ProverState, error) {
	st, w, err := cp.unpack(statement, witness)
	if err != nil {
		return nil, nil, err
	}
	prover, err := NewProver(cp.cfg, cp.base, cp.access, st.Statements, w.Witnesses)
	if err != nil {
		if errors.Is(err, ErrInvalidWitness) || errors.Is(err, ErrUnqualifiedSet) {
			return nil, nil, ErrInvalidWitness.WithCause(err)
		}
		return nil, nil, err
	}
	commitment, err := prover.Commit()
	if err != nil {
		return nil, nil, err
	}
	return commitment, &compiledState{prover: prover}, nil
}

// Respond delivers the challenge to the inner prover and runs its round 3
func (cp *CompiledProtocol) Respond(state ProverState, challenge Scalar) (Message, error) {
	st, ok := state.(*compiledState)
	if !ok || st == nil || st.prover == nil {
		return nil, ErrInvalidState.WithDetails("state %T is not a compiled prover state", state)
	}
	if err := st.prover.ReceiveChallenge(challenge); err != nil {
		if errors.Is(err, ErrRoundOrder) {
			return nil, ErrInvalidState.WithDetails("prover state already used").WithCause(err)
		}
		return nil, err
	}
	response, err := st.prover.Respond()
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Verify checks a compiled transcript under global challenge s
func (cp *CompiledProtocol) Verify(statement Statement, first Message, challenge Scalar, second Message) bool {
	st, ok := statement.(*CompiledStatement)
	if !ok || st == nil || len(st.Statements) != cp.access.Clauses() {
		return false
	}
	commitment, ok := first.(*Commitment)
	if !ok || commitment == nil || len(commitment.Messages) != cp.access.Clauses() {
		return false
	}
	response, ok := second.(*Response)
	if !ok || response == nil {
		return false
	}
	if checkScalar(cp.cfg.Curve, challenge) != nil {
		return false
	}
	proof, ok := assembleProof(commitment, response, challenge)
	if !ok {
		return false
	}
	accepted, _, _ := checkProof(cp.cfg, cp.base, cp.access, NewShamirSecretSharing(cp.cfg.Curve), st.Statements, proof)
	return accepted
}

// Simulate samples t-1 random shares for clauses 1..t-1, completes the
// remaining clauses against s and simulates every clause with its share
func (cp *CompiledProtocol) Simulate(statement Statement, challenge Scalar) (Message, Message, error) {
	st, ok := statement.(*CompiledStatement)
	if !ok || st == nil || len(st.Statements) != cp.access.Clauses() {
		return nil, nil, ErrInvalidMessage.WithDetails("statement %T does not match %s", statement, cp.access)
	}
	if err := checkScalar(cp.cfg.Curve, challenge); err != nil {
		return nil, nil, err
	}

	n, t := cp.access.Clauses(), cp.access.Threshold()
	curve := cp.cfg.Curve
	shares := make([]Scalar, n)
	fixed := make([]*Share, 0, t-1)
	for i := 0; i < t-1; i++ {
		c, err := curve.ScalarRandom()
		if err != nil {
			return nil, nil, err
		}
		shares[i] = c
		fixed = append(fixed, NewShare(ClauseIndex(i+1), c))
	}
	targets := make([]ClauseIndex, 0, n-t+1)
	for i := t - 1; i < n; i++ {
		targets = append(targets, ClauseIndex(i+1))
	}
	completed, err := NewShamirSecretSharing(curve).CompleteQualifiedSet(fixed, challenge, targets, t)
	if err != nil {
		return nil, nil, err
	}
	for _, index := range targets {
		shares[index-1] = completed[index]
	}

	firsts := make([]Message, n)
	seconds := make([]Message, n)
	err = forEachClause(cp.cfg.parallelism(), n, func(pos int) error {
		first, second, err := cp.base.Simulate(st.Statements[pos], shares[pos])
		if err != nil {
			return withClause(err, ErrInvalidMessage, ClauseIndex(pos+1))
		}
		firsts[pos], seconds[pos] = first, second
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &Commitment{Messages: firsts}, &Response{Challenges: shares, Messages: seconds}, nil
}

// ParseFirst decodes a Commitment
func (cp *CompiledProtocol) ParseFirst(data []byte) (Message, error) {
	commitment, err := DecodeCommitment(cp.base, data)
	if err != nil {
		return nil, err
	}
	return commitment, nil
}

// ParseSecond decodes a Response
func (cp *CompiledProtocol) ParseSecond(data []byte) (Message, error) {
	response, err := DecodeResponse(cp.base, data)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (cp *CompiledProtocol) unpack(statement Statement, witness Witness) (*CompiledStatement, *CompiledWitness, error) {
	st, ok := statement.(*CompiledStatement)
	if !ok || st == nil {
		return nil, nil, ErrInvalidWitness.WithDetails("statement %T is not a compiled statement", statement)
	}
	w, ok := witness.(*CompiledWitness)
	if !ok || w == nil {
		return nil, nil, ErrInvalidWitness.WithDetails("witness %T is not a compiled witness", witness)
	}
	return st, w, nil
}

func keys(witnesses map[ClauseIndex]Witness) []ClauseIndex {
	out := make([]ClauseIndex, 0, len(witnesses))
	for index := range witnesses {
		out = append(out, index)
	}
	return out
}
