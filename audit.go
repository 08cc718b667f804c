package cds

import (
	"crypto/rand"
	"fmt"
	"log"
	"time"
)

// AuditEventType represents the type of audit event
type AuditEventType string

const (
	// Protocol events
	AuditEventRoundCompleted AuditEventType = "round_completed"
	AuditEventVerification   AuditEventType = "verification"

	// Lifecycle events
	AuditEventInitialization AuditEventType = "initialization"

	// Error events
	AuditEventValidationFailure AuditEventType = "validation_failure"
	AuditEventRoundFailure      AuditEventType = "round_failure"
)

// AuditEventReason represents why an event occurred
type AuditEventReason string

const (
	ReasonCommit             AuditEventReason = "commit"
	ReasonChallenge          AuditEventReason = "challenge"
	ReasonRespond            AuditEventReason = "respond"
	ReasonAccepted           AuditEventReason = "accepted"
	ReasonClauseRejected     AuditEventReason = "clause_rejected"
	ReasonSharesInconsistent AuditEventReason = "shares_inconsistent"
	ReasonMalformedResponse  AuditEventReason = "malformed_response"
	ReasonInitialization     AuditEventReason = "initialization"
	ReasonValidationError    AuditEventReason = "validation_error"
)

// Roles reported in audit events
const (
	RoleProver   = "prover"
	RoleVerifier = "verifier"
)

// AuditEvent represents a single audit event
type AuditEvent struct {
	// Event metadata
	EventID   string           `json:"event_id"`
	Timestamp time.Time        `json:"timestamp"`
	EventType AuditEventType   `json:"event_type"`
	Reason    AuditEventReason `json:"reason"`

	// Context information
	Role      string `json:"role,omitempty"`
	CurveName string `json:"curve_name,omitempty"`
	Protocol  string `json:"protocol,omitempty"`

	// Access structure
	Clauses   int `json:"clauses,omitempty"`
	Active    int `json:"active,omitempty"`
	Threshold int `json:"threshold,omitempty"`

	// Success/failure information
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Additional context
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RoundEvent describes a completed prover or verifier round
type RoundEvent struct {
	AuditEvent

	Round            string        `json:"round"`
	Duration         time.Duration `json:"duration"`
	RealClauses      int           `json:"real_clauses"`
	SimulatedClauses int           `json:"simulated_clauses"`
}

// VerificationEvent records the verifier's decision
type VerificationEvent struct {
	AuditEvent

	Accepted       bool          `json:"accepted"`
	ProofDigest    string        `json:"proof_digest,omitempty"`
	RejectedClause ClauseIndex   `json:"rejected_clause,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// ValidationFailureEvent contains details about validation failures
type ValidationFailureEvent struct {
	AuditEvent

	// Validation-specific fields
	ValidationType string                 `json:"validation_type"` // "access_structure", "statements", "witness", "configuration"
	FailureReason  string                 `json:"failure_reason"`
	InputValues    map[string]interface{} `json:"input_values,omitempty"`
}

// AuditEventHandler defines the interface for handling audit events.
// Applications implement this interface to record events according to their needs.
// Handlers are called synchronously from the goroutine driving the protocol.
type AuditEventHandler interface {
	// OnInitialization is called when a prover or verifier is constructed
	OnInitialization(event *AuditEvent)

	// OnRoundCompleted is called after each successful round
	OnRoundCompleted(event *RoundEvent)

	// OnVerification is called with every accept or reject decision
	OnVerification(event *VerificationEvent)

	// OnValidationFailure is called when input validation fails
	OnValidationFailure(event *ValidationFailureEvent)

	// OnError is called when a round fails
	OnError(event *AuditEvent)
}

// NullAuditHandler is a no-op implementation of AuditEventHandler
// Used when no audit handling is needed
type NullAuditHandler struct{}

func (n *NullAuditHandler) OnInitialization(event *AuditEvent)                {}
func (n *NullAuditHandler) OnRoundCompleted(event *RoundEvent)                {}
func (n *NullAuditHandler) OnVerification(event *VerificationEvent)           {}
func (n *NullAuditHandler) OnValidationFailure(event *ValidationFailureEvent) {}
func (n *NullAuditHandler) OnError(event *AuditEvent)                         {}

// LogAuditHandler writes one line per event to a standard logger
type LogAuditHandler struct {
	logger *log.Logger
}

// NewLogAuditHandler creates a handler writing to logger, or to the standard
// logger when nil
func NewLogAuditHandler(logger *log.Logger) *LogAuditHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &LogAuditHandler{logger: logger}
}

func (h *LogAuditHandler) OnInitialization(event *AuditEvent) {
	h.logger.Printf("%s %s initialised curve=%s protocol=%s n=%d d=%d t=%d",
		event.EventID, event.Role, event.CurveName, event.Protocol, event.Clauses, event.Active, event.Threshold)
}

func (h *LogAuditHandler) OnRoundCompleted(event *RoundEvent) {
	h.logger.Printf("%s %s round=%s duration=%s real=%d simulated=%d",
		event.EventID, event.Role, event.Round, event.Duration, event.RealClauses, event.SimulatedClauses)
}

func (h *LogAuditHandler) OnVerification(event *VerificationEvent) {
	if event.Accepted {
		h.logger.Printf("%s %s accepted digest=%s duration=%s",
			event.EventID, event.Role, event.ProofDigest, event.Duration)
		return
	}
	h.logger.Printf("%s %s rejected reason=%s clause=%d duration=%s",
		event.EventID, event.Role, event.Reason, event.RejectedClause, event.Duration)
}

func (h *LogAuditHandler) OnValidationFailure(event *ValidationFailureEvent) {
	h.logger.Printf("%s %s validation failed type=%s reason=%s",
		event.EventID, event.Role, event.ValidationType, event.FailureReason)
}

func (h *LogAuditHandler) OnError(event *AuditEvent) {
	h.logger.Printf("%s %s error reason=%s: %s", event.EventID, event.Role, event.Reason, event.Error)
}

// AuditEventBuilder helps construct audit events with proper defaults
type AuditEventBuilder struct {
	event *AuditEvent
}

// NewAuditEventBuilder creates a new audit event builder
func NewAuditEventBuilder(eventType AuditEventType, reason AuditEventReason) *AuditEventBuilder {
	return &AuditEventBuilder{
		event: &AuditEvent{
			EventID:   generateEventID(),
			Timestamp: time.Now(),
			EventType: eventType,
			Reason:    reason,
			Success:   true, // Default to success, can be overridden
			Metadata:  make(map[string]interface{}),
		},
	}
}

// WithRole sets whether the prover or the verifier emitted the event
func (b *AuditEventBuilder) WithRole(role string) *AuditEventBuilder {
	b.event.Role = role
	return b
}

// WithCurve sets the curve name for the event
func (b *AuditEventBuilder) WithCurve(curveName string) *AuditEventBuilder {
	b.event.CurveName = curveName
	return b
}

// WithProtocol sets the base protocol name
func (b *AuditEventBuilder) WithProtocol(name string) *AuditEventBuilder {
	b.event.Protocol = name
	return b
}

// WithAccessStructure records n, d and t
func (b *AuditEventBuilder) WithAccessStructure(access *AccessStructure) *AuditEventBuilder {
	if access != nil {
		b.event.Clauses = access.Clauses()
		b.event.Active = access.Active()
		b.event.Threshold = access.Threshold()
	}
	return b
}

// WithError marks the event as failed and sets error information
func (b *AuditEventBuilder) WithError(err error) *AuditEventBuilder {
	b.event.Success = false
	if err != nil {
		b.event.Error = err.Error()
	}
	return b
}

// WithMetadata adds metadata to the event
func (b *AuditEventBuilder) WithMetadata(key string, value interface{}) *AuditEventBuilder {
	b.event.Metadata[key] = value
	return b
}

// Build returns the constructed audit event
func (b *AuditEventBuilder) Build() *AuditEvent {
	return b.event
}

// BuildRound returns a RoundEvent
func (b *AuditEventBuilder) BuildRound(round string, duration time.Duration, realClauses, simulatedClauses int) *RoundEvent {
	return &RoundEvent{
		AuditEvent:       *b.event,
		Round:            round,
		Duration:         duration,
		RealClauses:      realClauses,
		SimulatedClauses: simulatedClauses,
	}
}

// BuildVerification returns a VerificationEvent. A rejection marks the event
// as unsuccessful.
func (b *AuditEventBuilder) BuildVerification(accepted bool, digest string, rejectedClause ClauseIndex, duration time.Duration) *VerificationEvent {
	event := &VerificationEvent{
		AuditEvent:     *b.event,
		Accepted:       accepted,
		ProofDigest:    digest,
		RejectedClause: rejectedClause,
		Duration:       duration,
	}
	event.Success = accepted
	return event
}

// BuildValidationFailure returns a ValidationFailureEvent
func (b *AuditEventBuilder) BuildValidationFailure(validationType, failureReason string, inputValues map[string]interface{}) *ValidationFailureEvent {
	b.event.Success = false
	return &ValidationFailureEvent{
		AuditEvent:     *b.event,
		ValidationType: validationType,
		FailureReason:  failureReason,
		InputValues:    inputValues,
	}
}

// generateEventID generates a unique event ID
// Uses a combination of timestamp and random bytes to ensure uniqueness
func generateEventID() string {
	timestamp := time.Now().Format("20060102150405.000000")

	// Add 4 random bytes to ensure uniqueness even for events created at the same microsecond
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("%s.%d", timestamp, time.Now().UnixNano()%10000)
	}

	return fmt.Sprintf("%s.%x", timestamp, randomBytes)
}
