// Package kzg implements the pairing-based polynomial commitment scheme used
// to bind the workers' transcript: trusted setup, commitments, single and
// batched point openings, and verification.
package kzg

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/math/polynomial"
	"github.com/luxfi/eos/pkg/math/sample"
)

var (
	// ErrDegreeTooLarge is returned when a polynomial exceeds the SRS bound.
	ErrDegreeTooLarge = errors.New("kzg: polynomial degree exceeds SRS bound")
	// ErrVerifyFailed is returned when an opening does not verify.
	ErrVerifyFailed = errors.New("kzg: opening proof verification failed")
	// ErrInvalidSRS is returned when a supplied SRS fails the structural check.
	ErrInvalidSRS = errors.New("kzg: SRS structural check failed")
)

// SRS is the structured reference string: powers of a secret τ in G1 and the
// pair (h, h^τ) in G2. The secret itself never leaves Setup.
type SRS struct {
	G1 []bn254.G1Affine   // {g^{τ^k} : 0 ≤ k ≤ maxDegree}
	G2 [2]bn254.G2Affine  // h, h^τ
}

// Commitment binds a polynomial, carrying its claimed degree bound.
type Commitment struct {
	Point  bn254.G1Affine
	Degree int
}

// Opening proves Poly(point) = value under the KZG relation.
type Opening struct {
	Point   fr.Element
	Value   fr.Element
	Witness bn254.G1Affine
}

// MaxDegree returns the largest degree the SRS can commit to.
func (s *SRS) MaxDegree() int { return len(s.G1) - 1 }

// Setup samples a fresh secret τ and emits the reference string. τ is zeroed
// before returning; production deployments should instead load a
// ceremony-produced SRS and validate it with Check.
func Setup(maxDegree int, rng io.Reader) (*SRS, error) {
	if maxDegree < 1 {
		return nil, fmt.Errorf("kzg: max degree %d too small", maxDegree)
	}
	tau, err := sample.Fr(rng)
	if err != nil {
		return nil, fmt.Errorf("kzg: sample tau: %w", err)
	}

	_, _, g1, g2 := bn254.Generators()

	powers := make([]fr.Element, maxDegree+1)
	powers[0].SetOne()
	for i := 1; i < len(powers); i++ {
		powers[i].Mul(&powers[i-1], &tau)
	}

	srs := &SRS{G1: bn254.BatchScalarMultiplicationG1(&g1, powers)}
	srs.G2[0] = g2
	var tauBig big.Int
	tau.BigInt(&tauBig)
	srs.G2[1].ScalarMultiplication(&g2, &tauBig)

	tau.SetZero()
	tauBig.SetInt64(0)
	for i := range powers {
		powers[i].SetZero()
	}
	return srs, nil
}

// Check validates the multiplicative structure of an externally supplied SRS:
// e(g^{τ^{k+1}}, h) = e(g^{τ^k}, h^τ) for the first few k.
func (s *SRS) Check() error {
	if len(s.G1) < 2 {
		return fmt.Errorf("%w: fewer than two G1 powers", ErrInvalidSRS)
	}
	probes := len(s.G1) - 1
	if probes > 4 {
		probes = 4
	}
	var neg bn254.G1Affine
	for k := 0; k < probes; k++ {
		neg.Neg(&s.G1[k])
		ok, err := bn254.PairingCheck(
			[]bn254.G1Affine{s.G1[k+1], neg},
			[]bn254.G2Affine{s.G2[0], s.G2[1]},
		)
		if err != nil {
			return fmt.Errorf("kzg: pairing: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: power %d", ErrInvalidSRS, k+1)
		}
	}
	return nil
}

// Commit returns the commitment Σ aₖ · g^{τ^k} to p.
func Commit(srs *SRS, p polynomial.Poly) (Commitment, error) {
	if p.Degree() > srs.MaxDegree() {
		return Commitment{}, fmt.Errorf("%w: degree %d, bound %d", ErrDegreeTooLarge, p.Degree(), srs.MaxDegree())
	}
	var c bn254.G1Affine
	if len(p) > 0 {
		if _, err := c.MultiExp(srs.G1[:len(p)], p, ecc.MultiExpConfig{}); err != nil {
			return Commitment{}, fmt.Errorf("kzg: msm: %w", err)
		}
	}
	return Commitment{Point: c, Degree: p.Degree()}, nil
}

// Open evaluates p at z and produces the witness commitment to the quotient
// (p(x) − p(z))/(x − z). The division is exact; a non-zero remainder is an
// internal bug and panics.
func Open(srs *SRS, p polynomial.Poly, z fr.Element) (Opening, error) {
	value := p.Eval(z)
	shifted := p.Sub(polynomial.Poly{value})
	quot, rem := shifted.DivideByLinear(z)
	if !rem.IsZero() {
		panic("kzg: non-zero remainder in opening quotient")
	}
	w, err := Commit(srs, quot)
	if err != nil {
		return Opening{}, err
	}
	return Opening{Point: z, Value: value, Witness: w.Point}, nil
}

// Verify checks the pairing relation e(C − g·y, h) = e(w, h^τ − h·z).
func Verify(srs *SRS, c Commitment, op Opening) error {
	if c.Degree > srs.MaxDegree() {
		return fmt.Errorf("%w: declared degree %d", ErrDegreeTooLarge, c.Degree)
	}

	// C − g·y
	var yBig big.Int
	op.Value.BigInt(&yBig)
	var gy bn254.G1Affine
	gy.ScalarMultiplication(&srs.G1[0], &yBig)
	var lhsJac, gyJac bn254.G1Jac
	lhsJac.FromAffine(&c.Point)
	gyJac.FromAffine(&gy)
	lhsJac.SubAssign(&gyJac)
	var lhs bn254.G1Affine
	lhs.FromJacobian(&lhsJac)

	// h^τ − h·z
	var zBig big.Int
	op.Point.BigInt(&zBig)
	var hz bn254.G2Affine
	hz.ScalarMultiplication(&srs.G2[0], &zBig)
	var rhsJac, hzJac bn254.G2Jac
	rhsJac.FromAffine(&srs.G2[1])
	hzJac.FromAffine(&hz)
	rhsJac.SubAssign(&hzJac)
	var rhs bn254.G2Affine
	rhs.FromJacobian(&rhsJac)

	var negW bn254.G1Affine
	negW.Neg(&op.Witness)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{lhs, negW},
		[]bn254.G2Affine{srs.G2[0], rhs},
	)
	if err != nil {
		return fmt.Errorf("kzg: pairing: %w", err)
	}
	if !ok {
		return ErrVerifyFailed
	}
	return nil
}
