package cds

import (
	"sync"
	"testing"
)

// schnorrSetup holds n Schnorr statements and their secrets
type schnorrSetup struct {
	curve      Curve
	protocol   *SchnorrProtocol
	statements []Statement
	secrets    []Scalar
}

func newSchnorrSetup(t *testing.T, curve Curve, n int) *schnorrSetup {
	t.Helper()
	setup := &schnorrSetup{
		curve:      curve,
		protocol:   NewSchnorrProtocol(curve),
		statements: make([]Statement, n),
		secrets:    make([]Scalar, n),
	}
	for i := 0; i < n; i++ {
		statement, witness, err := GenerateSchnorrInstance(curve)
		if err != nil {
			t.Fatalf("Failed to generate instance %d: %v", i+1, err)
		}
		setup.statements[i] = statement
		setup.secrets[i] = witness.X
	}
	return setup
}

// witnesses returns fresh witness copies for the given clauses
func (s *schnorrSetup) witnesses(active ...ClauseIndex) map[ClauseIndex]Witness {
	out := make(map[ClauseIndex]Witness, len(active))
	for _, index := range active {
		out[index] = &SchnorrWitness{X: s.secrets[index-1].Add(s.curve.ScalarZero())}
	}
	return out
}

func newTestConfig(t *testing.T, curve Curve, opts ...Option) *Config {
	t.Helper()
	cfg, err := NewConfig(curve, opts...)
	if err != nil {
		t.Fatalf("Failed to create config: %v", err)
	}
	return cfg
}

func mustAccess(t *testing.T, n, d int) *AccessStructure {
	t.Helper()
	access, err := NewAccessStructure(n, d)
	if err != nil {
		t.Fatalf("Failed to create access structure: %v", err)
	}
	return access
}

// recordingAuditHandler keeps every event it receives
type recordingAuditHandler struct {
	mu            sync.Mutex
	inits         []*AuditEvent
	rounds        []*RoundEvent
	verifications []*VerificationEvent
	failures      []*ValidationFailureEvent
	errors        []*AuditEvent
}

func (h *recordingAuditHandler) OnInitialization(event *AuditEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inits = append(h.inits, event)
}

func (h *recordingAuditHandler) OnRoundCompleted(event *RoundEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rounds = append(h.rounds, event)
}

func (h *recordingAuditHandler) OnVerification(event *VerificationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verifications = append(h.verifications, event)
}

func (h *recordingAuditHandler) OnValidationFailure(event *ValidationFailureEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, event)
}

func (h *recordingAuditHandler) OnError(event *AuditEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, event)
}
