package sharing

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/math/polynomial"
	"github.com/luxfi/eos/pkg/party"
)

// Deal shares secret among n parties with threshold t under Shamir's scheme:
// a random polynomial P of degree t−1 with P(0) = secret is sampled and each
// party i receives P(i).
func Deal(secret fr.Element, t, n int, sharingID uint32, rng io.Reader) (*ShareSet, error) {
	if t < 1 || t > n {
		return nil, fmt.Errorf("sharing: invalid threshold %d for %d parties", t, n)
	}
	p, err := polynomial.RandomWithConstant(&secret, t-1, rng)
	if err != nil {
		return nil, fmt.Errorf("sharing: sample polynomial: %w", err)
	}
	set := &ShareSet{Scheme: Shamir, Degree: t - 1, SharingID: sharingID, N: n}
	set.Shares = make([]Share, n)
	for i := range set.Shares {
		id := party.ID(i + 1)
		set.Shares[i] = Share{Point: id, Value: p.Eval(id.Scalar())}
	}
	return set, nil
}

// Reconstruct recovers the secret from the shares present in the set. For
// Shamir sets at least degree+1 shares with distinct points are required; for
// additive sets all n are.
func (s *ShareSet) Reconstruct() (fr.Element, error) {
	var zero fr.Element
	switch s.Scheme {
	case Shamir:
		return s.reconstructShamir(false)
	case Additive:
		return s.reconstructAdditive()
	default:
		return zero, fmt.Errorf("sharing: unknown scheme %v", s.Scheme)
	}
}

// ReconstructVerified recovers the secret and additionally checks that every
// present share lies on the interpolated polynomial, so two disjoint
// reconstruction subsets could not disagree. Used in verification mode.
func (s *ShareSet) ReconstructVerified() (fr.Element, error) {
	var zero fr.Element
	if s.Scheme != Shamir {
		return zero, fmt.Errorf("sharing: verified reconstruction requires shamir, got %v", s.Scheme)
	}
	return s.reconstructShamir(true)
}

func (s *ShareSet) reconstructShamir(verify bool) (fr.Element, error) {
	var zero fr.Element
	need := s.Degree + 1
	seen := make(map[party.ID]struct{}, len(s.Shares))
	for _, sh := range s.Shares {
		if sh.Point < 1 || int(sh.Point) > s.N {
			return zero, fmt.Errorf("%w: point %d out of range", ErrInconsistent, sh.Point)
		}
		if _, dup := seen[sh.Point]; dup {
			return zero, fmt.Errorf("%w: duplicate point %d", ErrInconsistent, sh.Point)
		}
		seen[sh.Point] = struct{}{}
	}
	if len(s.Shares) < need {
		return zero, fmt.Errorf("%w: have %d, need %d", ErrInsufficient, len(s.Shares), need)
	}

	xs := make([]fr.Element, need)
	ys := make([]fr.Element, need)
	for i, sh := range s.Shares[:need] {
		xs[i] = sh.Point.Scalar()
		ys[i] = sh.Value
	}
	p := polynomial.Interpolate(xs, ys)

	if verify {
		for _, sh := range s.Shares[need:] {
			got := p.Eval(sh.Point.Scalar())
			if !got.Equal(&sh.Value) {
				return zero, fmt.Errorf("%w: share of party %d off the polynomial", ErrInconsistent, sh.Point)
			}
		}
	}

	var secret fr.Element
	secret = p.Eval(zero)
	return secret, nil
}
