package cds

import (
	"fmt"
)

// SecurityLevel represents how much a configuration hides about the prover
type SecurityLevel string

const (
	SecurityLevelLow    SecurityLevel = "low"
	SecurityLevelMedium SecurityLevel = "medium"
	SecurityLevelHigh   SecurityLevel = "high"
)

// Access structure limits
const (
	DefaultMaxClauses  = 4096
	DefaultWarnClauses = 256
)

// ValidationResult contains the result of parameter validation
type ValidationResult struct {
	Valid           bool          `json:"valid"`
	SecurityLevel   SecurityLevel `json:"security_level"`
	Degenerate      bool          `json:"degenerate"`
	Warnings        []string      `json:"warnings,omitempty"`
	Errors          []string      `json:"errors,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:           true,
		SecurityLevel:   SecurityLevelHigh,
		Warnings:        []string{},
		Errors:          []string{},
		Recommendations: []string{},
	}
}

// merge folds other into r
func (r *ValidationResult) merge(other *ValidationResult) {
	if !other.Valid {
		r.Valid = false
	}
	r.Degenerate = r.Degenerate || other.Degenerate
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Recommendations = append(r.Recommendations, other.Recommendations...)
	r.SecurityLevel = minSecurityLevel(r.SecurityLevel, other.SecurityLevel)
}

// ThresholdValidator checks d-out-of-n parameters
type ThresholdValidator struct {
	MaxClauses  int `json:"max_clauses"`  // Hard upper bound on n
	WarnClauses int `json:"warn_clauses"` // n above which completion cost is flagged
}

// NewDefaultThresholdValidator creates a validator with default limits
func NewDefaultThresholdValidator() *ThresholdValidator {
	return &ThresholdValidator{
		MaxClauses:  DefaultMaxClauses,
		WarnClauses: DefaultWarnClauses,
	}
}

// ValidateAccessStructure validates n and d
func (tv *ThresholdValidator) ValidateAccessStructure(clauses, active int) *ValidationResult {
	result := newValidationResult()

	// Basic validation checks
	if clauses <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "number of clauses must be positive")
	}
	if active <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "active clauses must be positive")
	}
	if active > clauses {
		result.Valid = false
		result.Errors = append(result.Errors, "active clauses cannot exceed number of clauses")
	}
	if clauses > tv.MaxClauses {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("number of clauses exceeds maximum of %d", tv.MaxClauses))
	}

	// Early return if basic validation fails
	if !result.Valid {
		result.SecurityLevel = SecurityLevelLow
		return result
	}

	if active == clauses {
		result.Degenerate = true
		result.SecurityLevel = SecurityLevelLow
		result.Warnings = append(result.Warnings, "every clause is active - the proof is a plain AND and hides nothing")
		result.Recommendations = append(result.Recommendations, "prove the clauses independently if hiding the active set is not needed")
	}

	if active == 1 && clauses > 1 {
		result.Degenerate = true
		result.Warnings = append(result.Warnings, "a single active clause - the proof is a plain OR")
	}

	if clauses > tv.WarnClauses {
		result.SecurityLevel = minSecurityLevel(result.SecurityLevel, SecurityLevelMedium)
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d clauses - share completion is quadratic in the threshold", clauses))
	}

	return result
}

// ValidateAccessStructureOf validates an existing structure and an active set
func (tv *ThresholdValidator) ValidateAccessStructureOf(access *AccessStructure, activeSet []ClauseIndex) *ValidationResult {
	if access == nil {
		result := newValidationResult()
		result.Valid = false
		result.SecurityLevel = SecurityLevelLow
		result.Errors = append(result.Errors, "access structure cannot be nil")
		return result
	}

	result := tv.ValidateAccessStructure(access.Clauses(), access.Active())
	if activeSet == nil {
		return result
	}

	var outOfRange []ClauseIndex
	for _, index := range activeSet {
		if !access.Contains(index) {
			outOfRange = append(outOfRange, index)
		}
	}
	if len(outOfRange) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("indices outside 1..%d are ignored: %v", access.Clauses(), outOfRange))
	}
	if !access.IsQualified(activeSet) {
		result.Valid = false
		result.SecurityLevel = SecurityLevelLow
		result.Errors = append(result.Errors, fmt.Sprintf("active set %v is not qualified under %s", activeSet, access))
	}
	return result
}

// StructureAssessment summarises the cost and hiding profile of an access structure
type StructureAssessment struct {
	OverallRating    SecurityLevel `json:"overall_rating"`
	Threshold        int           `json:"threshold"`
	RealClauses      int           `json:"real_clauses"`
	SimulatedClauses int           `json:"simulated_clauses"`
	CompletionCost   int           `json:"completion_cost"` // scalar multiplications in share completion
	Recommendations  []string      `json:"recommendations"`
}

// AssessAccessStructure describes a d-out-of-n structure
func AssessAccessStructure(clauses, active int) *StructureAssessment {
	if clauses <= 0 || active <= 0 || active > clauses {
		return &StructureAssessment{
			OverallRating:   SecurityLevelLow,
			Recommendations: []string{"require 1 <= active <= clauses"},
		}
	}

	threshold := clauses - active + 1
	assessment := &StructureAssessment{
		OverallRating:    SecurityLevelHigh,
		Threshold:        threshold,
		RealClauses:      active,
		SimulatedClauses: clauses - active,
		// t² for the weights, 3t per completed share
		CompletionCost:  threshold*threshold + 3*threshold*active,
		Recommendations: []string{},
	}

	switch {
	case active == clauses:
		assessment.OverallRating = SecurityLevelLow
		assessment.Recommendations = append(assessment.Recommendations,
			"all clauses are real, nothing is hidden")
	case clauses-active == 1:
		assessment.OverallRating = SecurityLevelMedium
		assessment.Recommendations = append(assessment.Recommendations,
			"only one clause is simulated")
	}

	return assessment
}

// minSecurityLevel returns the minimum security level between two SecurityLevel values
func minSecurityLevel(level1, level2 SecurityLevel) SecurityLevel {
	// Define security level rankings (lower values = lower security)
	levelRanking := map[SecurityLevel]int{
		SecurityLevelLow:    1,
		SecurityLevelMedium: 2,
		SecurityLevelHigh:   3,
	}

	rank1, exists1 := levelRanking[level1]
	if !exists1 {
		rank1 = 2 // Default to medium if unknown
	}

	rank2, exists2 := levelRanking[level2]
	if !exists2 {
		rank2 = 2 // Default to medium if unknown
	}

	// Return the level with the lower ranking (lower security)
	if rank1 <= rank2 {
		return level1
	}
	return level2
}
