package cds

// Message is a first or second protocol message. Bytes is its wire form.
type Message interface {
	Bytes() []byte
}

// Statement is the public instance a clause proves knowledge about.
type Statement interface {
	Bytes() []byte
}

// Witness is the secret for a statement. It is never serialised.
type Witness interface {
	Zeroize()
}

// ProverState is the secret state a prover keeps between commit and response.
type ProverState interface {
	Zeroize()
}

// Protocol is a three-move public-coin proof of knowledge with special
// soundness and special honest-verifier zero knowledge. Its challenge space is
// the full scalar field of ChallengeSpace().
type Protocol interface {
	Name() string

	// ChallengeSpace returns the curve whose scalar field holds challenges.
	ChallengeSpace() Curve

	// Commit produces the first message. It fails with ErrInvalidWitness when
	// witness does not satisfy statement.
	Commit(statement Statement, witness Witness) (Message, ProverState, error)

	// Respond produces the second message for challenge. A state may be used
	// once; later calls fail with ErrInvalidState.
	Respond(state ProverState, challenge Scalar) (Message, error)

	// Verify checks a transcript. Malformed messages, including points of
	// another curve, are rejected, never panic.
	Verify(statement Statement, first Message, challenge Scalar, second Message) bool

	// Simulate produces an accepting transcript for a chosen challenge
	// without a witness.
	Simulate(statement Statement, challenge Scalar) (Message, Message, error)

	ParseFirst(data []byte) (Message, error)
	ParseSecond(data []byte) (Message, error)
}

// WitnessChecker is implemented by protocols that can validate a witness
// without producing a commitment.
type WitnessChecker interface {
	CheckWitness(statement Statement, witness Witness) error
}

// ClausePhase tracks a single clause through the compiled protocol.
// Simulated clauses move straight from Uncommitted to Responded.
type ClausePhase int

const (
	PhaseUncommitted ClausePhase = iota
	PhaseCommitted
	PhaseResponded
)

func (p ClausePhase) String() string {
	switch p {
	case PhaseUncommitted:
		return "uncommitted"
	case PhaseCommitted:
		return "committed"
	case PhaseResponded:
		return "responded"
	default:
		return "unknown"
	}
}
