// Package piop implements the polynomial oracle check binding the committed
// witness and trace polynomials to the MPC transcript: the workers commit to
// W (witness), Z (evaluation trace) and a quotient H, and the delegator
// checks A(ρ)·W(ρ) + B(ρ)·Z(ρ) − C(ρ) = H(ρ)·V(ρ) at a transcript-derived ρ.
package piop

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/circuit"
	"github.com/luxfi/eos/pkg/kzg"
	"github.com/luxfi/eos/pkg/math/polynomial"
	"github.com/luxfi/eos/pkg/transcript"
)

var (
	// ErrCommitmentInvalid is returned when a commitment or its opening fails.
	ErrCommitmentInvalid = errors.New("piop: commitment invalid")
	// ErrIdentityFailed is returned when the algebraic identity does not hold.
	ErrIdentityFailed = errors.New("piop: consistency identity failed")
	// ErrUnsatisfied is returned by the prover when the trace violates a row
	// constraint, so no exact quotient exists.
	ErrUnsatisfied = errors.New("piop: trace does not satisfy the row constraints")
)

// Statement holds the circuit-shape polynomials known to the verifier. Rows
// carry one constraint a·W + b·Z = c each: public rows pin Z to the public
// value, private-input rows bind Z to W, equality rows pin Z to zero, and
// output rows pin Z to the reconstructed result. Gate-interior rows are
// enforced by the MPC executor and left unconstrained here.
type Statement struct {
	Domain []fr.Element
	A, B, C polynomial.Poly
	V       polynomial.Poly
}

// Proof is the non-interactive consistency proof published by the workers.
type Proof struct {
	CmW, CmZ, CmH kzg.Commitment
	Opening       kzg.BatchOpening // openings of (W, Z, H) at ρ
}

// NewStatement derives the shape polynomials from the circuit and the claimed
// public outputs (one per Output gate, in circuit order).
func NewStatement(c *circuit.Circuit, outputs []fr.Element) (*Statement, error) {
	m := c.NumWires()
	domain := make([]fr.Element, m)
	for i := range domain {
		domain[i].SetUint64(uint64(i + 1))
	}

	as := make([]fr.Element, m)
	bs := make([]fr.Element, m)
	cs := make([]fr.Element, m)
	one := fr.One()
	var minusOne fr.Element
	minusOne.Neg(&one)

	outIdx := 0
	for i, g := range c.Gates {
		switch g.Kind {
		case circuit.InputPublic, circuit.Const:
			bs[i] = one
			cs[i] = g.Value
		case circuit.InputPrivate:
			as[i] = minusOne
			bs[i] = one
		case circuit.Eq:
			bs[i] = one
		case circuit.Output:
			if outIdx >= len(outputs) {
				return nil, fmt.Errorf("piop: %d outputs claimed, circuit has more", len(outputs))
			}
			bs[i] = one
			cs[i] = outputs[outIdx]
			outIdx++
		case circuit.Add, circuit.Mul:
			// interior rows: enforced by the executor, unconstrained here
		}
	}
	if outIdx != len(outputs) {
		return nil, fmt.Errorf("piop: %d outputs claimed, circuit has %d", len(outputs), outIdx)
	}

	return &Statement{
		Domain: domain,
		A:      polynomial.Interpolate(domain, as),
		B:      polynomial.Interpolate(domain, bs),
		C:      polynomial.Interpolate(domain, cs),
		V:      polynomial.Vanishing(domain),
	}, nil
}

// Trace is the row view of an evaluation: the full wire trace and the witness
// rows (private-input values on their rows, zero elsewhere).
type Trace struct {
	Wires   []fr.Element
	Witness []fr.Element
}

// TraceFromWires assembles the trace from the per-wire values of an
// evaluation.
func TraceFromWires(c *circuit.Circuit, wires []fr.Element) (*Trace, error) {
	if len(wires) != c.NumWires() {
		return nil, fmt.Errorf("piop: trace has %d wires, circuit %d", len(wires), c.NumWires())
	}
	t := &Trace{Wires: wires, Witness: make([]fr.Element, len(wires))}
	for i, g := range c.Gates {
		if g.Kind == circuit.InputPrivate {
			t.Witness[i] = wires[i]
		}
	}
	return t, nil
}

// Prove commits to W, Z and H and opens them at the transcript-derived ρ.
// The transcript must be fresh and session-scoped; the verifier replays it.
func Prove(srs *kzg.SRS, stmt *Statement, trace *Trace, tr *transcript.Transcript) (*Proof, error) {
	w := polynomial.Interpolate(stmt.Domain, trace.Witness)
	z := polynomial.Interpolate(stmt.Domain, trace.Wires)

	// numerator = A·W + B·Z − C; it must vanish on the whole domain
	num := stmt.A.Mul(w).Add(stmt.B.Mul(z)).Sub(stmt.C)
	h := num
	for _, d := range stmt.Domain {
		var rem fr.Element
		h, rem = h.DivideByLinear(d)
		if !rem.IsZero() {
			return nil, ErrUnsatisfied
		}
	}

	proof := &Proof{}
	var err error
	if proof.CmW, err = kzg.Commit(srs, w); err != nil {
		return nil, err
	}
	if proof.CmZ, err = kzg.Commit(srs, z); err != nil {
		return nil, err
	}
	if proof.CmH, err = kzg.Commit(srs, h); err != nil {
		return nil, err
	}

	rho, err := absorbCommitments(tr, proof)
	if err != nil {
		return nil, err
	}

	if err := absorbValues(tr, w.Eval(rho), z.Eval(rho), h.Eval(rho)); err != nil {
		return nil, err
	}
	proof.Opening, err = kzg.BatchOpen(srs, []polynomial.Poly{w, z, h}, rho, tr)
	if err != nil {
		return nil, err
	}
	return proof, nil
}

// Check verifies the proof against the statement: degree bounds, the
// algebraic identity at ρ, and the batched opening pairing.
func Check(srs *kzg.SRS, stmt *Statement, proof *Proof, tr *transcript.Transcript) error {
	for _, cm := range []kzg.Commitment{proof.CmW, proof.CmZ, proof.CmH} {
		if cm.Degree > srs.MaxDegree() {
			return fmt.Errorf("%w: declared degree %d exceeds SRS bound %d", ErrCommitmentInvalid, cm.Degree, srs.MaxDegree())
		}
	}

	rho, err := absorbCommitments(tr, proof)
	if err != nil {
		return err
	}
	if len(proof.Opening.Values) != 3 {
		return fmt.Errorf("%w: expected 3 opened values, got %d", ErrCommitmentInvalid, len(proof.Opening.Values))
	}
	yW, yZ, yH := proof.Opening.Values[0], proof.Opening.Values[1], proof.Opening.Values[2]

	// identity on the claimed values first: a stale or forged commitment
	// shifts ρ and the stale openings miss the identity
	var lhs, t, rhs fr.Element
	aRho := stmt.A.Eval(rho)
	bRho := stmt.B.Eval(rho)
	cRho := stmt.C.Eval(rho)
	vRho := stmt.V.Eval(rho)
	lhs.Mul(&aRho, &yW)
	t.Mul(&bRho, &yZ)
	lhs.Add(&lhs, &t).Sub(&lhs, &cRho)
	rhs.Mul(&yH, &vRho)
	if !lhs.Equal(&rhs) {
		return ErrIdentityFailed
	}

	if !rho.Equal(&proof.Opening.Point) {
		return fmt.Errorf("%w: opening point does not match challenge", ErrCommitmentInvalid)
	}
	if err := absorbValues(tr, yW, yZ, yH); err != nil {
		return err
	}
	if err := kzg.BatchVerify(srs, []kzg.Commitment{proof.CmW, proof.CmZ, proof.CmH}, proof.Opening, tr); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitmentInvalid, err)
	}
	return nil
}

func absorbCommitments(tr *transcript.Transcript, proof *Proof) (fr.Element, error) {
	var rho fr.Element
	for _, rec := range []struct {
		tag string
		cm  kzg.Commitment
	}{{"cm_w", proof.CmW}, {"cm_z", proof.CmZ}, {"cm_h", proof.CmH}} {
		b := rec.cm.Point.Bytes()
		if err := tr.Append(rec.tag, b[:]); err != nil {
			return rho, err
		}
	}
	return tr.Challenge(transcript.ChallengeRho)
}

func absorbValues(tr *transcript.Transcript, yW, yZ, yH fr.Element) error {
	for _, rec := range []struct {
		tag string
		y   fr.Element
	}{{"y_w", yW}, {"y_z", yZ}, {"y_h", yH}} {
		b := rec.y.Bytes()
		if err := tr.Append(rec.tag, b[:]); err != nil {
			return err
		}
	}
	return nil
}
