package cds

import (
	"fmt"
	"strings"
)

// Configuration validation constants
const (
	DefaultParallelism = 1
	MaxParallelism     = 256
)

// ConfigurationValidator provides validation for compiler configuration
type ConfigurationValidator struct {
	// Supported curves
	supportedCurves map[string]bool

	maxParallelism int
	threshold      *ThresholdValidator
}

// NewDefaultConfigurationValidator creates a validator with secure defaults
func NewDefaultConfigurationValidator() *ConfigurationValidator {
	return &ConfigurationValidator{
		supportedCurves: map[string]bool{
			string(Secp256k1): true,
			string(Ed25519):   true,
		},
		maxParallelism: MaxParallelism,
		threshold:      NewDefaultThresholdValidator(),
	}
}

// ValidateCurve validates that a curve is supported and properly configured
func (cv *ConfigurationValidator) ValidateCurve(curve Curve) *ValidationResult {
	result := newValidationResult()

	if curve == nil {
		result.Valid = false
		result.SecurityLevel = SecurityLevelLow
		result.Errors = append(result.Errors, "curve cannot be nil")
		return result
	}

	curveName := curve.Name()
	if curveName == "" {
		result.Valid = false
		result.SecurityLevel = SecurityLevelLow
		result.Errors = append(result.Errors, "curve name cannot be empty")
		return result
	}

	// Check if curve is supported
	if !cv.supportedCurves[curveName] {
		result.Valid = false
		result.SecurityLevel = SecurityLevelLow
		result.Errors = append(result.Errors, fmt.Sprintf("unsupported curve: %s", curveName))
		result.Recommendations = append(result.Recommendations, "use a supported curve: secp256k1 or ed25519")
		return result
	}

	if curve.ScalarSize() != 32 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unexpected scalar size %d for %s", curve.ScalarSize(), curveName))
	}

	return result
}

// ValidateParallelism checks the per-round goroutine bound
func (cv *ConfigurationValidator) ValidateParallelism(parallelism int) *ValidationResult {
	result := newValidationResult()

	if parallelism < 1 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("parallelism must be at least 1, got %d", parallelism))
		return result
	}
	if parallelism > cv.maxParallelism {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("parallelism %d exceeds maximum %d", parallelism, cv.maxParallelism))
	}

	return result
}

// ValidateProtocol checks that a protocol's challenges live in the sharing field
func (cv *ConfigurationValidator) ValidateProtocol(curve Curve, protocol Protocol) *ValidationResult {
	result := newValidationResult()

	if protocol == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "protocol cannot be nil")
		return result
	}
	if !sameField(curve, protocol.ChallengeSpace()) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("protocol %s challenges are not in the %s field", protocol.Name(), nameOf(curve)))
	}
	return result
}

// ValidateCompleteConfiguration validates a configuration against a protocol
// and access structure
func (cv *ConfigurationValidator) ValidateCompleteConfiguration(
	cfg *Config,
	protocol Protocol,
	access *AccessStructure,
) *ValidationResult {
	result := newValidationResult()

	if cfg == nil {
		result.Valid = false
		result.SecurityLevel = SecurityLevelLow
		result.Errors = append(result.Errors, "configuration cannot be nil")
		return result
	}

	result.merge(cv.ValidateCurve(cfg.Curve))
	result.merge(cv.ValidateParallelism(cfg.Parallelism))
	result.merge(cv.ValidateProtocol(cfg.Curve, protocol))
	result.merge(cv.threshold.ValidateAccessStructureOf(access, nil))

	if result.Valid && result.SecurityLevel == SecurityLevelHigh {
		result.Recommendations = append(result.Recommendations, "configuration hides the active set")
	}

	return result
}

// Err converts a failed result into an error of the given kind
func (r *ValidationResult) Err(kind *CDSError) error {
	if r.Valid {
		return nil
	}
	return kind.WithDetails("%s", strings.Join(r.Errors, "; "))
}

func nameOf(curve Curve) string {
	if curve == nil {
		return "<nil>"
	}
	return curve.Name()
}
