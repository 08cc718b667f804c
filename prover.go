package cds

import (
	"errors"
	"sort"
	"sync"
	"time"
)

type proverPhase int

const (
	proverAwaitingCommit proverPhase = iota
	proverAwaitingChallenge
	proverAwaitingRespond
	proverDone
	proverFailed
)

// clauseState is owned by exactly one goroutine during a round
type clauseState struct {
	index     ClauseIndex
	real      bool
	phase     ClausePhase
	first     Message
	second    Message
	challenge Scalar
	state     ProverState
}

// Prover drives the prover side of the compiled d-out-of-n protocol. It knows
// witnesses for a qualified set of clauses and simulates the others.
type Prover struct {
	mu sync.Mutex

	cfg        *Config
	protocol   Protocol
	access     *AccessStructure
	sharing    *ShamirSecretSharing
	statements []Statement
	witnesses  map[ClauseIndex]Witness

	clauses   []*clauseState
	real      []ClauseIndex
	simulated []ClauseIndex
	challenge Scalar
	phase     proverPhase
}

// NewProver creates a prover for statements (index i+1 at position i) holding
// witnesses for the active set. When more than d witnesses are supplied the d
// lowest indices are used and the rest are zeroized.
func NewProver(
	cfg *Config,
	protocol Protocol,
	access *AccessStructure,
	statements []Statement,
	witnesses map[ClauseIndex]Witness,
) (*Prover, error) {
	if err := validateSetup(cfg, protocol, access, statements); err != nil {
		reportValidationFailure(cfg, RoleProver, access, "configuration", err)
		return nil, err
	}

	active := make([]ClauseIndex, 0, len(witnesses))
	for index, witness := range witnesses {
		if !access.Contains(index) {
			err := ErrUnqualifiedSet.WithDetails("clause %d is outside 1..%d", index, access.Clauses()).WithClause(index)
			reportValidationFailure(cfg, RoleProver, access, "active_set", err)
			return nil, err
		}
		if witness == nil {
			err := ErrInvalidWitness.WithDetails("witness is nil").WithClause(index)
			reportValidationFailure(cfg, RoleProver, access, "witness", err)
			return nil, err
		}
		active = append(active, index)
	}
	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })

	if !access.IsQualified(active) {
		err := ErrUnqualifiedSet.WithDetails("%d witnesses supplied, %d required", len(active), access.Active())
		reportValidationFailure(cfg, RoleProver, access, "active_set", err)
		return nil, err
	}

	if checker, ok := protocol.(WitnessChecker); ok {
		for _, index := range active {
			if err := checker.CheckWitness(statements[index-1], witnesses[index]); err != nil {
				err = withClause(err, ErrInvalidWitness, index)
				reportValidationFailure(cfg, RoleProver, access, "witness", err)
				return nil, err
			}
		}
	}

	p := &Prover{
		cfg:        cfg,
		protocol:   protocol,
		access:     access,
		sharing:    NewShamirSecretSharing(cfg.Curve),
		statements: statements,
		witnesses:  make(map[ClauseIndex]Witness, access.Active()),
		clauses:    make([]*clauseState, access.Clauses()),
	}

	for i, index := range active {
		if i < access.Active() {
			p.witnesses[index] = witnesses[index]
		} else {
			witnesses[index].Zeroize()
		}
	}
	for i := range p.clauses {
		index := ClauseIndex(i + 1)
		_, known := p.witnesses[index]
		p.clauses[i] = &clauseState{index: index, real: known}
		if known {
			p.real = append(p.real, index)
		} else {
			p.simulated = append(p.simulated, index)
		}
	}

	cfg.audit().OnInitialization(p.event(AuditEventInitialization, ReasonInitialization).Build())
	return p, nil
}

// Commit runs round 1. Real clauses commit with their witness, simulated
// clauses draw their challenge share and a simulated transcript.
func (p *Prover) Commit() (*Commitment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.expect(proverAwaitingCommit); err != nil {
		return nil, err
	}
	start := time.Now()

	curve := p.cfg.Curve
	err := forEachClause(p.cfg.parallelism(), len(p.clauses), func(pos int) error {
		cs := p.clauses[pos]
		statement := p.statements[pos]
		if cs.real {
			first, state, err := p.protocol.Commit(statement, p.witnesses[cs.index])
			if err != nil {
				return withClause(err, ErrInvalidWitness, cs.index)
			}
			cs.first, cs.state = first, state
			cs.phase = PhaseCommitted
			return nil
		}

		challenge, err := curve.ScalarRandom()
		if err != nil {
			return withClause(err, ErrRandomnessGeneration, cs.index)
		}
		first, second, err := p.protocol.Simulate(statement, challenge)
		if err != nil {
			return withClause(err, ErrInvalidMessage, cs.index)
		}
		cs.first, cs.second, cs.challenge = first, second, challenge
		cs.phase = PhaseResponded
		return nil
	})
	if err != nil {
		p.fail(ReasonCommit, err)
		return nil, err
	}

	messages := make([]Message, len(p.clauses))
	for i, cs := range p.clauses {
		messages[i] = cs.first
	}
	p.phase = proverAwaitingChallenge
	p.cfg.audit().OnRoundCompleted(p.event(AuditEventRoundCompleted, ReasonCommit).
		BuildRound(string(ReasonCommit), time.Since(start), len(p.real), len(p.simulated)))
	return &Commitment{Messages: messages}, nil
}

// ReceiveChallenge runs round 2 on the prover side
func (p *Prover) ReceiveChallenge(challenge Scalar) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.expect(proverAwaitingChallenge); err != nil {
		return err
	}
	if err := checkScalar(p.cfg.Curve, challenge); err != nil {
		return ErrInvalidMessage.WithDetails("global challenge").WithCause(err)
	}

	p.challenge = challenge
	p.phase = proverAwaitingRespond
	return nil
}

// Respond runs round 3. The challenge shares of the real clauses are the
// completion of the simulated shares against the global challenge.
func (p *Prover) Respond() (*Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.expect(proverAwaitingRespond); err != nil {
		return nil, err
	}
	start := time.Now()

	fixed := make([]*Share, 0, len(p.simulated))
	for _, index := range p.simulated {
		fixed = append(fixed, NewShare(index, p.clauses[index-1].challenge))
	}
	completed, err := p.sharing.CompleteQualifiedSet(fixed, p.challenge, p.real, p.access.Threshold())
	if err != nil {
		p.fail(ReasonRespond, err)
		return nil, err
	}

	err = forEachClause(p.cfg.parallelism(), len(p.real), func(pos int) error {
		cs := p.clauses[p.real[pos]-1]
		cs.challenge = completed[cs.index]
		second, err := p.protocol.Respond(cs.state, cs.challenge)
		if err != nil {
			return withClause(err, ErrInvalidState, cs.index)
		}
		cs.second = second
		cs.state = nil
		cs.phase = PhaseResponded
		return nil
	})
	if err != nil {
		p.fail(ReasonRespond, err)
		return nil, err
	}

	challenges := make([]Scalar, len(p.clauses))
	messages := make([]Message, len(p.clauses))
	for i, cs := range p.clauses {
		challenges[i] = cs.challenge
		messages[i] = cs.second
	}
	p.zeroizeWitnesses()
	p.phase = proverDone
	p.cfg.audit().OnRoundCompleted(p.event(AuditEventRoundCompleted, ReasonRespond).
		BuildRound(string(ReasonRespond), time.Since(start), len(p.real), len(p.simulated)))
	return &Response{Challenges: challenges, Messages: messages}, nil
}

// Proof returns the full transcript once round 3 has completed
func (p *Prover) Proof() (*DisjunctiveProof, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.expect(proverDone); err != nil {
		return nil, err
	}

	transcripts := make([]Transcript, len(p.clauses))
	for i, cs := range p.clauses {
		transcripts[i] = Transcript{
			Index:     cs.index,
			First:     cs.first,
			Challenge: cs.challenge,
			Second:    cs.second,
		}
	}
	return &DisjunctiveProof{Transcripts: transcripts, Challenge: p.challenge}, nil
}

// ClausePhase reports the progress of a clause
func (p *Prover) ClausePhase(index ClauseIndex) ClausePhase {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.access.Contains(index) {
		return PhaseUncommitted
	}
	return p.clauses[index-1].phase
}

// RealClauses returns the clauses proven with a witness
func (p *Prover) RealClauses() []ClauseIndex {
	return append([]ClauseIndex(nil), p.real...)
}

// Zeroize destroys witnesses and pending prover states. A prover that has not
// finished round 3 cannot be used afterwards.
func (p *Prover) Zeroize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.zeroizeWitnesses()
	p.zeroizeStates()
	if p.phase != proverDone {
		p.phase = proverFailed
	}
}

func (p *Prover) expect(phase proverPhase) error {
	if p.phase == proverFailed {
		return ErrInvalidState.WithDetails("prover failed in an earlier round")
	}
	if p.phase != phase {
		return ErrRoundOrder.WithDetails("prover is %s, call requires %s", p.phase, phase)
	}
	return nil
}

func (p *Prover) fail(reason AuditEventReason, err error) {
	p.zeroizeStates()
	p.zeroizeWitnesses()
	p.phase = proverFailed
	p.cfg.audit().OnError(p.event(AuditEventRoundFailure, reason).WithError(err).Build())
}

func (p *Prover) zeroizeStates() {
	for _, cs := range p.clauses {
		if cs.state != nil {
			cs.state.Zeroize()
			cs.state = nil
		}
	}
}

func (p *Prover) zeroizeWitnesses() {
	for index, witness := range p.witnesses {
		witness.Zeroize()
		delete(p.witnesses, index)
	}
}

func (p *Prover) event(eventType AuditEventType, reason AuditEventReason) *AuditEventBuilder {
	return NewAuditEventBuilder(eventType, reason).
		WithRole(RoleProver).
		WithCurve(p.cfg.Curve.Name()).
		WithProtocol(p.protocol.Name()).
		WithAccessStructure(p.access)
}

func (ph proverPhase) String() string {
	switch ph {
	case proverAwaitingCommit:
		return "awaiting commit"
	case proverAwaitingChallenge:
		return "awaiting challenge"
	case proverAwaitingRespond:
		return "awaiting respond"
	case proverDone:
		return "done"
	case proverFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// validateSetup checks everything provers and verifiers share
func validateSetup(cfg *Config, protocol Protocol, access *AccessStructure, statements []Statement) error {
	if cfg == nil {
		return ErrInvalidConfiguration.WithDetails("configuration cannot be nil")
	}
	if protocol == nil {
		return ErrInvalidConfiguration.WithDetails("protocol cannot be nil")
	}
	if access == nil {
		return ErrInvalidAccessStructure.WithDetails("access structure cannot be nil")
	}
	if !sameField(cfg.Curve, protocol.ChallengeSpace()) {
		return ErrFieldMismatch.WithDetails("protocol %s challenges do not live in %s", protocol.Name(), nameOf(cfg.Curve))
	}

	result := NewDefaultConfigurationValidator().ValidateCompleteConfiguration(cfg, protocol, access)
	if err := result.Err(ErrInvalidConfiguration); err != nil {
		return err
	}

	if len(statements) != access.Clauses() {
		return ErrStatementMismatch.WithDetails("got %d statements for %d clauses", len(statements), access.Clauses())
	}
	for i, statement := range statements {
		if statement == nil {
			return ErrStatementMismatch.WithDetails("statement is nil").WithClause(ClauseIndex(i + 1))
		}
	}
	return nil
}

// withClause attaches a clause index to err. Errors that are not CDSErrors
// are wrapped in fallback.
func withClause(err error, fallback *CDSError, index ClauseIndex) error {
	var cdsErr *CDSError
	if errors.As(err, &cdsErr) {
		return cdsErr.WithClause(index)
	}
	return fallback.WithCause(err).WithClause(index)
}

func reportValidationFailure(cfg *Config, role string, access *AccessStructure, validationType string, err error) {
	if cfg == nil {
		return
	}
	builder := NewAuditEventBuilder(AuditEventValidationFailure, ReasonValidationError).
		WithRole(role).
		WithAccessStructure(access).
		WithError(err)
	if cfg.Curve != nil {
		builder.WithCurve(cfg.Curve.Name())
	}
	cfg.audit().OnValidationFailure(builder.BuildValidationFailure(validationType, err.Error(), nil))
}
