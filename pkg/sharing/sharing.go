// Package sharing implements the secret-sharing engine: Shamir threshold
// sharing (one secret per polynomial) and additive n-of-n sharing over the
// BN254 scalar field.
package sharing

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/party"
)

// Scheme tags the sharing scheme of a ShareSet. The two schemes expose the
// same contract but must never be mixed within one set.
type Scheme uint8

const (
	// Shamir is (t, n) threshold sharing; any degree+1 shares reconstruct.
	Shamir Scheme = iota + 1
	// Additive is n-of-n sharing by random split; all shares are required.
	Additive
)

func (s Scheme) String() string {
	switch s {
	case Shamir:
		return "shamir"
	case Additive:
		return "additive"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

var (
	// ErrInsufficient is returned when too few shares are present to reconstruct.
	ErrInsufficient = errors.New("sharing: insufficient shares")
	// ErrInconsistent is returned when the shares do not lie on a single
	// polynomial of the declared degree.
	ErrInconsistent = errors.New("sharing: inconsistent shares")
	// ErrDegreeOverflow is returned when a local multiplication would push the
	// degree beyond what n shares can reconstruct.
	ErrDegreeOverflow = errors.New("sharing: degree overflow")
	// ErrSchemeMismatch is returned when two sets of different schemes are combined.
	ErrSchemeMismatch = errors.New("sharing: scheme mismatch")
	// ErrNoMul is returned when multiplication is attempted on an additive set.
	ErrNoMul = errors.New("sharing: additive scheme does not support local multiplication")
)

// Share is one party's coordinate of a shared value: the evaluation point
// (the party's ID) and the value of the sharing polynomial there.
type Share struct {
	Point party.ID
	Value fr.Element
}

// ShareSet is the logical view of one sharing across parties: an ordered
// collection of shares with common scheme, degree and sharing ID. It is
// materialised only where needed, typically at dealing and reconstruction.
type ShareSet struct {
	Scheme    Scheme
	Degree    int
	SharingID uint32
	N         int
	Shares    []Share
}

// Subset returns a ShareSet restricted to the shares held by the given
// parties. Unknown IDs are skipped.
func (s *ShareSet) Subset(ids party.IDSlice) *ShareSet {
	out := &ShareSet{Scheme: s.Scheme, Degree: s.Degree, SharingID: s.SharingID, N: s.N}
	for _, sh := range s.Shares {
		if ids.Contains(sh.Point) {
			out.Shares = append(out.Shares, sh)
		}
	}
	return out
}

// Add returns the componentwise sum of two sets sharing the same scheme. The
// result's degree is the maximum of the operands' degrees.
func Add(a, b *ShareSet) (*ShareSet, error) {
	if a.Scheme != b.Scheme {
		return nil, ErrSchemeMismatch
	}
	if len(a.Shares) != len(b.Shares) {
		return nil, fmt.Errorf("sharing: add: mismatched share counts %d and %d", len(a.Shares), len(b.Shares))
	}
	deg := a.Degree
	if b.Degree > deg {
		deg = b.Degree
	}
	out := &ShareSet{Scheme: a.Scheme, Degree: deg, SharingID: a.SharingID, N: a.N}
	out.Shares = make([]Share, len(a.Shares))
	for i := range a.Shares {
		if a.Shares[i].Point != b.Shares[i].Point {
			return nil, fmt.Errorf("sharing: add: point mismatch at index %d", i)
		}
		out.Shares[i].Point = a.Shares[i].Point
		out.Shares[i].Value.Add(&a.Shares[i].Value, &b.Shares[i].Value)
	}
	return out, nil
}

// Scale returns c · a. The degree is unchanged.
func Scale(a *ShareSet, c fr.Element) *ShareSet {
	out := &ShareSet{Scheme: a.Scheme, Degree: a.Degree, SharingID: a.SharingID, N: a.N}
	out.Shares = make([]Share, len(a.Shares))
	for i := range a.Shares {
		out.Shares[i].Point = a.Shares[i].Point
		out.Shares[i].Value.Mul(&a.Shares[i].Value, &c)
	}
	return out
}

// MulLocal returns the componentwise product of two Shamir sets. The result's
// degree is the sum of the operands' degrees and must be reduced by the
// executor before any further multiplication. Reconstruction of the product
// still works as long as the doubled degree fits in n−1.
func MulLocal(a, b *ShareSet) (*ShareSet, error) {
	if a.Scheme != Shamir || b.Scheme != Shamir {
		return nil, ErrNoMul
	}
	if len(a.Shares) != len(b.Shares) {
		return nil, fmt.Errorf("sharing: mul: mismatched share counts %d and %d", len(a.Shares), len(b.Shares))
	}
	deg := a.Degree + b.Degree
	if deg > a.N-1 {
		return nil, ErrDegreeOverflow
	}
	out := &ShareSet{Scheme: Shamir, Degree: deg, SharingID: a.SharingID, N: a.N}
	out.Shares = make([]Share, len(a.Shares))
	for i := range a.Shares {
		if a.Shares[i].Point != b.Shares[i].Point {
			return nil, fmt.Errorf("sharing: mul: point mismatch at index %d", i)
		}
		out.Shares[i].Point = a.Shares[i].Point
		out.Shares[i].Value.Mul(&a.Shares[i].Value, &b.Shares[i].Value)
	}
	return out, nil
}
