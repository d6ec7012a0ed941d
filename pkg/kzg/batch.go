package kzg

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/math/polynomial"
	"github.com/luxfi/eos/pkg/transcript"
)

// BatchOpening proves the evaluations of several committed polynomials at one
// point with a single witness.
type BatchOpening struct {
	Point   fr.Element
	Values  []fr.Element
	Witness bn254.G1Affine
}

// BatchOpen opens all polynomials at z with one witness, built from the
// random linear combination Σ γⁱ·pᵢ where γ is the transcript's folding
// challenge. The caller must have absorbed the commitments and claimed values
// into the transcript so prover and verifier derive the same γ.
func BatchOpen(srs *SRS, polys []polynomial.Poly, z fr.Element, tr *transcript.Transcript) (BatchOpening, error) {
	gamma, err := tr.Challenge(transcript.ChallengeGamma)
	if err != nil {
		return BatchOpening{}, err
	}

	values := make([]fr.Element, len(polys))
	var folded polynomial.Poly
	pow := fr.One()
	for i, p := range polys {
		values[i] = p.Eval(z)
		folded = folded.Add(p.ScalarMul(pow))
		pow.Mul(&pow, &gamma)
	}

	op, err := Open(srs, folded, z)
	if err != nil {
		return BatchOpening{}, err
	}
	return BatchOpening{Point: z, Values: values, Witness: op.Witness}, nil
}

// BatchVerify folds the commitments and claimed values with the transcript's
// folding challenge and checks a single pairing.
func BatchVerify(srs *SRS, cms []Commitment, op BatchOpening, tr *transcript.Transcript) error {
	if len(cms) != len(op.Values) {
		return fmt.Errorf("kzg: batch: %d commitments, %d values", len(cms), len(op.Values))
	}
	gamma, err := tr.Challenge(transcript.ChallengeGamma)
	if err != nil {
		return err
	}

	points := make([]bn254.G1Affine, len(cms))
	scalars := make([]fr.Element, len(cms))
	var foldedValue fr.Element
	pow := fr.One()
	var t fr.Element
	maxDeg := 0
	for i, c := range cms {
		if c.Degree > srs.MaxDegree() {
			return fmt.Errorf("%w: declared degree %d", ErrDegreeTooLarge, c.Degree)
		}
		if c.Degree > maxDeg {
			maxDeg = c.Degree
		}
		points[i] = c.Point
		scalars[i] = pow
		t.Mul(&op.Values[i], &pow)
		foldedValue.Add(&foldedValue, &t)
		pow.Mul(&pow, &gamma)
	}

	var foldedCm bn254.G1Affine
	if _, err := foldedCm.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return fmt.Errorf("kzg: msm: %w", err)
	}

	return Verify(srs, Commitment{Point: foldedCm, Degree: maxDeg}, Opening{
		Point:   op.Point,
		Value:   foldedValue,
		Witness: op.Witness,
	})
}
