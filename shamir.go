package cds

import (
	"fmt"
)

// Share represents a Shamir secret share
type Share struct {
	Index ClauseIndex // x-coordinate (clause index)
	Value Scalar      // y-coordinate (share value)
}

// NewShare creates a new share
func NewShare(index ClauseIndex, value Scalar) *Share {
	return &Share{
		Index: index,
		Value: value,
	}
}

// ShamirSecretSharing implements Shamir's Secret Sharing over a curve's scalar
// field. A threshold t means any t shares determine the secret and any t-1
// shares are independent of it.
type ShamirSecretSharing struct {
	curve Curve
}

// NewShamirSecretSharing creates a new Shamir secret sharing instance
func NewShamirSecretSharing(curve Curve) *ShamirSecretSharing {
	return &ShamirSecretSharing{curve: curve}
}

// Curve returns the curve whose scalar field the shares live in
func (sss *ShamirSecretSharing) Curve() Curve {
	return sss.curve
}

// SamplePolynomial samples a uniformly random polynomial of the given degree
// whose constant term is secret
func (sss *ShamirSecretSharing) SamplePolynomial(secret Scalar, degree int) (*Polynomial, error) {
	if err := checkScalar(sss.curve, secret); err != nil {
		return nil, err
	}
	if degree < 0 {
		return nil, ErrDegenerateInput.WithDetails("polynomial degree must be non-negative, got %d", degree)
	}
	return NewRandomPolynomial(sss.curve, degree, secret)
}

// ShareAt evaluates poly at a clause index. Index 0 would reveal the secret.
func (sss *ShamirSecretSharing) ShareAt(poly *Polynomial, index ClauseIndex) (Scalar, error) {
	if index == 0 {
		return nil, ErrDegenerateInput.WithDetails("share index 0 is reserved for the secret")
	}
	if poly == nil {
		return nil, ErrDegenerateInput.WithDetails("polynomial cannot be nil")
	}
	return poly.Evaluate(index.ToScalar(sss.curve)), nil
}

// GenerateShares generates threshold shares of a secret at indices 1..numShares
func (sss *ShamirSecretSharing) GenerateShares(
	secret Scalar,
	threshold int,
	numShares int,
) ([]*Share, error) {
	if threshold <= 0 {
		return nil, ErrDegenerateInput.WithDetails("threshold must be positive, got %d", threshold)
	}
	if numShares < threshold {
		return nil, ErrDegenerateInput.WithDetails("number of shares %d is below threshold %d", numShares, threshold)
	}

	// Create polynomial of degree (threshold - 1)
	polynomial, err := sss.SamplePolynomial(secret, threshold-1)
	if err != nil {
		return nil, fmt.Errorf("failed to create polynomial: %w", err)
	}
	defer polynomial.Zeroize()

	shares := make([]*Share, numShares)
	for i := 0; i < numShares; i++ {
		index := ClauseIndex(i + 1) // 1-based, x=0 holds the secret
		value, err := sss.ShareAt(polynomial, index)
		if err != nil {
			return nil, err
		}
		shares[i] = NewShare(index, value)
	}

	return shares, nil
}

// Reconstruct recovers the secret from the first threshold shares using
// Lagrange interpolation at x = 0
func (sss *ShamirSecretSharing) Reconstruct(shares []*Share, threshold int) (Scalar, error) {
	if threshold <= 0 {
		return nil, ErrDegenerateInput.WithDetails("threshold must be positive, got %d", threshold)
	}
	if len(shares) < threshold {
		return nil, ErrInsufficientShares.WithDetails("need %d, got %d", threshold, len(shares))
	}

	selected := shares[:threshold]
	if err := sss.checkShares(selected, nil); err != nil {
		return nil, err
	}

	xs := make([]Scalar, threshold)
	ys := make([]Scalar, threshold)
	for i, share := range selected {
		xs[i] = share.Index.ToScalar(sss.curve)
		ys[i] = share.Value
	}

	interp, err := newInterpolator(sss.curve, xs, ys)
	if err != nil {
		return nil, err
	}
	return interp.evaluate(sss.curve.ScalarZero()), nil
}

// ReconstructSecret is Reconstruct under its dealer-side name
func (sss *ShamirSecretSharing) ReconstructSecret(shares []*Share, threshold int) (Scalar, error) {
	return sss.Reconstruct(shares, threshold)
}

// CompleteQualifiedSet extends threshold-1 fixed shares and the secret to the
// remaining indices of the unique degree threshold-1 polynomial through them.
//
// Weights over the nodes {0} ∪ fixed are computed once with a single batched
// inversion; each target then costs O(threshold).
func (sss *ShamirSecretSharing) CompleteQualifiedSet(
	fixed []*Share,
	secret Scalar,
	targets []ClauseIndex,
	threshold int,
) (map[ClauseIndex]Scalar, error) {
	if threshold <= 0 {
		return nil, ErrDegenerateInput.WithDetails("threshold must be positive, got %d", threshold)
	}
	if len(fixed) != threshold-1 {
		return nil, ErrDegenerateInput.WithDetails("expected %d fixed shares, got %d", threshold-1, len(fixed))
	}
	if err := checkScalar(sss.curve, secret); err != nil {
		return nil, err
	}

	seen := make(map[ClauseIndex]struct{}, len(fixed)+len(targets))
	if err := sss.checkShares(fixed, seen); err != nil {
		return nil, err
	}
	for _, target := range targets {
		if target == 0 {
			return nil, ErrDegenerateInput.WithDetails("target index 0 is reserved for the secret")
		}
		if _, dup := seen[target]; dup {
			return nil, ErrDegenerateInput.WithDetails("target index %d is duplicated or already fixed", target)
		}
		seen[target] = struct{}{}
	}

	xs := make([]Scalar, 0, threshold)
	ys := make([]Scalar, 0, threshold)
	xs = append(xs, sss.curve.ScalarZero())
	ys = append(ys, secret)
	for _, share := range fixed {
		xs = append(xs, share.Index.ToScalar(sss.curve))
		ys = append(ys, share.Value)
	}

	interp, err := newInterpolator(sss.curve, xs, ys)
	if err != nil {
		return nil, err
	}

	completed := make(map[ClauseIndex]Scalar, len(targets))
	for _, target := range targets {
		completed[target] = interp.evaluate(target.ToScalar(sss.curve))
	}
	return completed, nil
}

// ConsistentShares reports whether every share lies on the unique degree
// threshold-1 polynomial through (0, secret) and the first threshold-1 shares
func (sss *ShamirSecretSharing) ConsistentShares(shares []*Share, threshold int, secret Scalar) (bool, error) {
	if threshold <= 0 {
		return false, ErrDegenerateInput.WithDetails("threshold must be positive, got %d", threshold)
	}
	if len(shares) < threshold-1 {
		return false, ErrInsufficientShares.WithDetails("need at least %d, got %d", threshold-1, len(shares))
	}

	fixed := shares[:threshold-1]
	rest := shares[threshold-1:]
	targets := make([]ClauseIndex, len(rest))
	for i, share := range rest {
		if share == nil {
			return false, ErrDegenerateInput.WithDetails("share at position %d is nil", threshold-1+i)
		}
		if err := checkScalar(sss.curve, share.Value); err != nil {
			return false, err
		}
		targets[i] = share.Index
	}

	expected, err := sss.CompleteQualifiedSet(fixed, secret, targets, threshold)
	if err != nil {
		return false, err
	}
	for _, share := range rest {
		if !expected[share.Index].Equal(share.Value) {
			return false, nil
		}
	}
	return true, nil
}

// VerifyShares verifies that shares are consistent with each other
func (sss *ShamirSecretSharing) VerifyShares(shares []*Share, threshold int) error {
	secret, err := sss.Reconstruct(shares, threshold)
	if err != nil {
		return err
	}
	ok, err := sss.ConsistentShares(shares, threshold, secret)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDegenerateInput.WithDetails("shares are inconsistent")
	}
	return nil
}

// checkShares rejects nil shares, zero indices and duplicates. Indices are
// recorded in seen when it is non-nil.
func (sss *ShamirSecretSharing) checkShares(shares []*Share, seen map[ClauseIndex]struct{}) error {
	if seen == nil {
		seen = make(map[ClauseIndex]struct{}, len(shares))
	}
	for i, share := range shares {
		if share == nil {
			return ErrDegenerateInput.WithDetails("share at position %d is nil", i)
		}
		if share.Index == 0 {
			return ErrDegenerateInput.WithDetails("share index 0 is reserved for the secret")
		}
		if _, dup := seen[share.Index]; dup {
			return ErrDegenerateInput.WithDetails("share index %d is duplicated", share.Index)
		}
		if err := checkScalar(sss.curve, share.Value); err != nil {
			return err
		}
		seen[share.Index] = struct{}{}
	}
	return nil
}

// interpolator evaluates the polynomial through (xs[j], ys[j]) in first-form
// barycentric representation: f(x) = Σ w_j·y_j·Π_{k≠j}(x - x_k).
type interpolator struct {
	nodes    []Scalar
	weighted []Scalar // w_j·y_j
	curve    Curve
}

func newInterpolator(curve Curve, xs, ys []Scalar) (*interpolator, error) {
	n := len(xs)
	denominators := make([]Scalar, n)
	for j := 0; j < n; j++ {
		denom := curve.ScalarOne()
		for k := 0; k < n; k++ {
			if k != j {
				denom = denom.Mul(xs[j].Sub(xs[k]))
			}
		}
		denominators[j] = denom
	}

	weights, err := BatchInvert(curve, denominators)
	if err != nil {
		return nil, ErrDegenerateInput.WithDetails("interpolation nodes are not distinct").WithCause(err)
	}

	weighted := make([]Scalar, n)
	for j := range weights {
		weighted[j] = weights[j].Mul(ys[j])
	}
	return &interpolator{nodes: xs, weighted: weighted, curve: curve}, nil
}

// evaluate returns f(x) using prefix and suffix products of (x - x_k)
func (in *interpolator) evaluate(x Scalar) Scalar {
	n := len(in.nodes)
	suffix := make([]Scalar, n+1)
	suffix[n] = in.curve.ScalarOne()
	for k := n - 1; k >= 0; k-- {
		suffix[k] = suffix[k+1].Mul(x.Sub(in.nodes[k]))
	}

	result := in.curve.ScalarZero()
	prefix := in.curve.ScalarOne()
	for j := 0; j < n; j++ {
		result = result.Add(in.weighted[j].Mul(prefix).Mul(suffix[j+1]))
		prefix = prefix.Mul(x.Sub(in.nodes[j]))
	}
	return result
}
