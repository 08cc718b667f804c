package cds

import (
	"sync"
	"time"
)

type verifierPhase int

const (
	verifierAwaitingCommitment verifierPhase = iota
	verifierAwaitingChallenge
	verifierAwaitingResponse
	verifierDone
)

func (ph verifierPhase) String() string {
	switch ph {
	case verifierAwaitingCommitment:
		return "awaiting commitment"
	case verifierAwaitingChallenge:
		return "awaiting challenge"
	case verifierAwaitingResponse:
		return "awaiting response"
	case verifierDone:
		return "done"
	default:
		return "unknown"
	}
}

// Verifier drives the verifier side of the compiled d-out-of-n protocol
type Verifier struct {
	mu sync.Mutex

	cfg        *Config
	protocol   Protocol
	access     *AccessStructure
	sharing    *ShamirSecretSharing
	statements []Statement

	commitment *Commitment
	challenge  Scalar
	proof      *DisjunctiveProof
	phase      verifierPhase
}

// NewVerifier creates a verifier for statements (index i+1 at position i)
func NewVerifier(
	cfg *Config,
	protocol Protocol,
	access *AccessStructure,
	statements []Statement,
) (*Verifier, error) {
	if err := validateSetup(cfg, protocol, access, statements); err != nil {
		reportValidationFailure(cfg, RoleVerifier, access, "configuration", err)
		return nil, err
	}

	v := &Verifier{
		cfg:        cfg,
		protocol:   protocol,
		access:     access,
		sharing:    NewShamirSecretSharing(cfg.Curve),
		statements: statements,
	}
	cfg.audit().OnInitialization(v.event(AuditEventInitialization, ReasonInitialization).Build())
	return v, nil
}

// ReceiveCommitment runs round 1 on the verifier side
func (v *Verifier) ReceiveCommitment(commitment *Commitment) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.expect(verifierAwaitingCommitment); err != nil {
		return err
	}
	if commitment == nil || len(commitment.Messages) != v.access.Clauses() {
		got := 0
		if commitment != nil {
			got = len(commitment.Messages)
		}
		return ErrInvalidMessage.WithDetails("commitment has %d messages for %d clauses", got, v.access.Clauses())
	}

	v.commitment = commitment
	v.phase = verifierAwaitingChallenge
	return nil
}

// Challenge samples the global challenge s. It may be called once.
func (v *Verifier) Challenge() (Scalar, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.expect(verifierAwaitingChallenge); err != nil {
		return nil, err
	}

	challenge, err := v.cfg.Curve.ScalarRandom()
	if err != nil {
		return nil, err
	}
	v.challenge = challenge
	v.phase = verifierAwaitingResponse
	v.cfg.audit().OnRoundCompleted(v.event(AuditEventRoundCompleted, ReasonChallenge).
		BuildRound(string(ReasonChallenge), 0, 0, 0))
	return challenge, nil
}

// Verify runs the final check. It accepts iff every clause transcript verifies
// and all n challenge shares lie on one polynomial of degree t-1 with constant
// term s. Malformed responses are rejected; errors are reserved for misuse.
func (v *Verifier) Verify(response *Response) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.expect(verifierAwaitingResponse); err != nil {
		return false, err
	}
	v.phase = verifierDone
	start := time.Now()

	if response == nil {
		v.report(false, ReasonMalformedResponse, 0, "", time.Since(start))
		return false, nil
	}
	proof, ok := assembleProof(v.commitment, response, v.challenge)
	if !ok {
		v.report(false, ReasonMalformedResponse, 0, "", time.Since(start))
		return false, nil
	}

	accepted, reason, clause := checkProof(v.cfg, v.protocol, v.access, v.sharing, v.statements, proof)
	digest := ""
	if accepted {
		v.proof = proof
		digest = proof.digestHex()
	}
	v.report(accepted, reason, clause, digest, time.Since(start))
	return accepted, nil
}

// Proof returns the accepted transcript, or ErrRoundOrder when none was accepted
func (v *Verifier) Proof() (*DisjunctiveProof, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.proof == nil {
		return nil, ErrRoundOrder.WithDetails("no accepted proof")
	}
	return v.proof, nil
}

func (v *Verifier) expect(phase verifierPhase) error {
	if v.phase != phase {
		return ErrRoundOrder.WithDetails("verifier is %s, call requires %s", v.phase, phase)
	}
	return nil
}

func (v *Verifier) report(accepted bool, reason AuditEventReason, clause ClauseIndex, digest string, duration time.Duration) {
	v.cfg.audit().OnVerification(v.event(AuditEventVerification, reason).
		BuildVerification(accepted, digest, clause, duration))
}

func (v *Verifier) event(eventType AuditEventType, reason AuditEventReason) *AuditEventBuilder {
	return NewAuditEventBuilder(eventType, reason).
		WithRole(RoleVerifier).
		WithCurve(v.cfg.Curve.Name()).
		WithProtocol(v.protocol.Name()).
		WithAccessStructure(v.access)
}

// VerifyProof checks a complete transcript against statements. Invalid input
// of any kind is a rejection.
func VerifyProof(
	cfg *Config,
	protocol Protocol,
	access *AccessStructure,
	statements []Statement,
	proof *DisjunctiveProof,
) bool {
	if err := validateSetup(cfg, protocol, access, statements); err != nil {
		return false
	}
	start := time.Now()
	accepted, reason, clause := checkProof(cfg, protocol, access, NewShamirSecretSharing(cfg.Curve), statements, proof)

	digest := ""
	if accepted {
		digest = proof.digestHex()
	}
	cfg.audit().OnVerification(NewAuditEventBuilder(AuditEventVerification, reason).
		WithRole(RoleVerifier).
		WithCurve(cfg.Curve.Name()).
		WithProtocol(protocol.Name()).
		WithAccessStructure(access).
		BuildVerification(accepted, digest, clause, time.Since(start)))
	return accepted
}

// assembleProof joins the messages of an interactive run
func assembleProof(commitment *Commitment, response *Response, challenge Scalar) (*DisjunctiveProof, bool) {
	n := len(commitment.Messages)
	if len(response.Challenges) != n || len(response.Messages) != n {
		return nil, false
	}
	transcripts := make([]Transcript, n)
	for i := range transcripts {
		transcripts[i] = Transcript{
			Index:     ClauseIndex(i + 1),
			First:     commitment.Messages[i],
			Challenge: response.Challenges[i],
			Second:    response.Messages[i],
		}
	}
	return &DisjunctiveProof{Transcripts: transcripts, Challenge: challenge}, true
}

// checkProof returns the decision, its reason and, for clause rejections, the
// lowest rejected clause
func checkProof(
	cfg *Config,
	protocol Protocol,
	access *AccessStructure,
	sharing *ShamirSecretSharing,
	statements []Statement,
	proof *DisjunctiveProof,
) (bool, AuditEventReason, ClauseIndex) {
	if proof == nil || len(proof.Transcripts) != access.Clauses() {
		return false, ReasonMalformedResponse, 0
	}
	if checkScalar(cfg.Curve, proof.Challenge) != nil {
		return false, ReasonMalformedResponse, 0
	}
	for i, tr := range proof.Transcripts {
		if tr.Index != ClauseIndex(i+1) || tr.First == nil || tr.Second == nil {
			return false, ReasonMalformedResponse, 0
		}
		if checkScalar(cfg.Curve, tr.Challenge) != nil {
			return false, ReasonMalformedResponse, 0
		}
	}

	consistent, err := sharing.ConsistentShares(proof.Shares(), access.Threshold(), proof.Challenge)
	if err != nil {
		return false, ReasonMalformedResponse, 0
	}
	if !consistent {
		return false, ReasonSharesInconsistent, 0
	}

	results := make([]bool, len(proof.Transcripts))
	_ = forEachClause(cfg.parallelism(), len(proof.Transcripts), func(pos int) error {
		tr := proof.Transcripts[pos]
		results[pos] = protocol.Verify(statements[pos], tr.First, tr.Challenge, tr.Second)
		return nil
	})
	for i, ok := range results {
		if !ok {
			return false, ReasonClauseRejected, ClauseIndex(i + 1)
		}
	}
	return true, ReasonAccepted, 0
}

// RunProtocol executes all three rounds between prover and verifier in memory
func RunProtocol(prover *Prover, verifier *Verifier) (bool, error) {
	commitment, err := prover.Commit()
	if err != nil {
		return false, err
	}
	if err := verifier.ReceiveCommitment(commitment); err != nil {
		return false, err
	}
	challenge, err := verifier.Challenge()
	if err != nil {
		return false, err
	}
	if err := prover.ReceiveChallenge(challenge); err != nil {
		return false, err
	}
	response, err := prover.Respond()
	if err != nil {
		return false, err
	}
	return verifier.Verify(response)
}
