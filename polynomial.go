package cds

import (
	"fmt"
)

// Polynomial represents a polynomial over a scalar field. The compiler never
// builds one; it exists for dealer-style sharing and for tests.
type Polynomial struct {
	curve        Curve
	coefficients []Scalar
}

// NewRandomPolynomial creates a new random polynomial with given degree and constant term
func NewRandomPolynomial(curve Curve, degree int, constantTerm Scalar) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("degree must be non-negative, got %d", degree)
	}

	coefficients := make([]Scalar, degree+1)
	coefficients[0] = constantTerm // a0 = constant term

	for i := 1; i <= degree; i++ {
		coeff, err := curve.ScalarRandom()
		if err != nil {
			return nil, fmt.Errorf("failed to generate coefficient %d: %w", i, err)
		}
		coefficients[i] = coeff
	}

	return &Polynomial{
		curve:        curve,
		coefficients: coefficients,
	}, nil
}

// Evaluate evaluates the polynomial at a given point
func (p *Polynomial) Evaluate(x Scalar) Scalar {
	if len(p.coefficients) == 0 {
		return p.curve.ScalarZero()
	}

	// Horner's method: f(x) = a0 + x(a1 + x(a2 + ...))
	result := p.coefficients[len(p.coefficients)-1]
	for i := len(p.coefficients) - 2; i >= 0; i-- {
		result = result.Mul(x).Add(p.coefficients[i])
	}

	return result
}

// Degree returns the degree of the polynomial
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Zeroize clears the random coefficients. The constant term belongs to the
// caller and is left untouched.
func (p *Polynomial) Zeroize() {
	for i, coeff := range p.coefficients {
		if i > 0 && coeff != nil {
			coeff.Zeroize()
		}
		p.coefficients[i] = nil
	}
	p.coefficients = nil
}
