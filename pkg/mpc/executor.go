// Package mpc implements the gate-level circuit executor: evaluation of
// addition and multiplication gates on secret-shared values, the
// degree-reduction protocol multiplication requires, and the message
// coordination between parties.
package mpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/zeebo/blake3"

	"github.com/luxfi/eos/pkg/math/polynomial"
	"github.com/luxfi/eos/pkg/party"
	"github.com/luxfi/eos/pkg/session"
	"github.com/luxfi/eos/pkg/sharing"
	"github.com/luxfi/eos/pkg/wire"
)

// Wire is one party's view of a circuit wire: either a public value or this
// party's share of the wire's sharing.
type Wire struct {
	public    *fr.Element
	share     sharing.Share
	degree    int
	sharingID uint32
}

// IsPublic reports whether the wire carries a clear value.
func (w *Wire) IsPublic() bool { return w.public != nil }

// Public returns the clear value of a public wire.
func (w *Wire) Public() (fr.Element, bool) {
	var v fr.Element
	if w.public == nil {
		return v, false
	}
	return *w.public, true
}

// Share returns this party's share of the wire. Public wires share their
// value at the party's own point so reconstruction stays uniform.
func (w *Wire) Share() sharing.Share { return w.share }

// Degree returns the current sharing degree of the wire.
func (w *Wire) Degree() int { return w.degree }

// Executor evaluates circuits for one party. All parties run the same gate
// sequence; the executor keeps them in lockstep through the message keys.
type Executor struct {
	sess    *session.Session
	self    party.ID
	parties party.IDSlice
	tr      Transport
	in      *inbox
	rng     io.Reader
	mul     mulStrategy

	// degree reduction runs over the first 2t−1 parties
	reduction party.IDSlice
	lambda    map[party.ID]fr.Element

	g1        bn254.G1Affine
	gateIndex uint32
	stats     ExecutionStats
	digest    *blake3.Hasher
	aborted   bool
}

// NewExecutor returns the executor for one party of the session. The RNG must
// be this party's independent stream.
func NewExecutor(sess *session.Session, self party.ID, tr Transport, rng io.Reader) (*Executor, error) {
	if self < 1 || int(self) > sess.N {
		return nil, fmt.Errorf("mpc: party %d outside session of %d parties", self, sess.N)
	}
	if sess.Scheme == sharing.Shamir && sess.N < 2*sess.T-1 {
		return nil, fmt.Errorf("%w: n=%d < 2t-1=%d", ErrNotEnoughParties, sess.N, 2*sess.T-1)
	}
	e := &Executor{
		sess:    sess,
		self:    self,
		parties: party.RangeIDs(sess.N),
		tr:      tr,
		in:      newInbox(self, sess.N, tr),
		rng:     rng,
		digest:  blake3.New(),
	}
	_, _, e.g1, _ = bn254.Generators()
	if sess.Scheme == sharing.Shamir {
		e.reduction = party.RangeIDs(2*sess.T - 1)
		e.lambda = polynomial.Lagrange(e.reduction)
	}
	switch sess.Mode {
	case session.Collaboration:
		e.mul = &collaborationMul{}
	default:
		e.mul = isolationMul{}
	}
	_, _ = e.digest.Write(sess.ID)
	return e, nil
}

// Self returns the executor's party ID.
func (e *Executor) Self() party.ID { return e.self }

// Stats returns the work counters accumulated so far.
func (e *Executor) Stats() ExecutionStats { return e.stats }

func (e *Executor) nextGate() uint32 {
	g := e.gateIndex
	e.gateIndex++
	return g
}

func (e *Executor) send(ctx context.Context, m *wire.Message) error {
	m.Sender = e.self
	frame, err := m.Encode()
	if err != nil {
		return err
	}
	_, _ = e.digest.Write(frame)
	e.stats.BytesSent += len(frame)
	return e.tr.Send(ctx, m.Recipient, frame)
}

// absorb folds a completed round's frames into the local transcript in sender
// order, keeping the digest deterministic under arbitrary arrival order.
func (e *Executor) absorb(senders party.IDSlice, msgs map[party.ID][]*wire.Message) {
	for _, id := range senders {
		for _, m := range msgs[id] {
			frame, err := m.Encode()
			if err != nil {
				continue
			}
			_, _ = e.digest.Write(frame)
		}
	}
}

// abort broadcasts Abort(reason) and drops all session state. Partial
// results must not leak past this point.
func (e *Executor) abort(ctx context.Context, reason wire.Reason) {
	if e.aborted {
		return
	}
	e.aborted = true
	for _, id := range e.parties.Others(e.self) {
		_ = e.send(ctx, &wire.Message{Kind: wire.KindAbort, Recipient: id, Reason: reason})
	}
	e.in.drop()
	if cm, ok := e.mul.(*collaborationMul); ok {
		cm.triples = nil
	}
}

// fail aborts the session (unless the error already is a received abort) and
// returns err unchanged.
func (e *Executor) fail(ctx context.Context, reason wire.Reason, err error) error {
	if _, received := err.(*AbortError); !received {
		e.abort(ctx, reason)
	} else {
		e.aborted = true
		e.in.drop()
	}
	return err
}

// InputPublic creates a wire carrying the clear constant c.
func (e *Executor) InputPublic(c fr.Element) *Wire {
	v := c
	return &Wire{public: &v, share: sharing.Share{Point: e.self, Value: c}}
}

// InputPrivate disperses owner's value as a fresh sharing; non-owners pass a
// zero value and receive their share from the owner.
func (e *Executor) InputPrivate(ctx context.Context, owner party.ID, value fr.Element) (*Wire, error) {
	sid := e.sess.NextSharingID()
	gate := e.nextGate()
	degree := e.sess.T - 1
	if e.sess.Scheme == sharing.Additive {
		degree = 0
	}
	w := &Wire{degree: degree, sharingID: sid}

	if owner == e.self {
		var set *sharing.ShareSet
		var err error
		if e.sess.Scheme == sharing.Additive {
			set, err = sharing.DealAdditive(value, e.sess.N, sid, e.rng)
		} else {
			set, err = sharing.Deal(value, e.sess.T, e.sess.N, sid, e.rng)
		}
		if err != nil {
			return nil, e.fail(ctx, wire.ReasonInsufficient, err)
		}
		for _, sh := range set.Shares {
			if sh.Point == e.self {
				w.share = sh
				continue
			}
			err := e.send(ctx, &wire.Message{
				Kind: wire.KindShare, SharingID: sid, GateIndex: gate,
				Recipient: sh.Point, Point: sh.Point, Value: sh.Value,
			})
			if err != nil {
				return nil, e.fail(ctx, wire.ReasonTimeout, err)
			}
		}
		return w, nil
	}

	msgs, err := e.in.collect(ctx, msgKey{sid, gate, 0}, party.IDSlice{owner}, 1, wire.KindShare)
	if err != nil {
		return nil, e.fail(ctx, reasonFor(err), err)
	}
	m := msgs[owner][0]
	if m.Point != e.self || m.SharingID != sid {
		err := &MaliciousShareError{Party: owner}
		return nil, e.fail(ctx, wire.ReasonMaliciousShare, err)
	}
	e.absorb(party.IDSlice{owner}, msgs)
	w.share = sharing.Share{Point: e.self, Value: m.Value}
	return w, nil
}

// AddGate adds two wires. Addition is local and silent in both modes.
func (e *Executor) AddGate(a, b *Wire) *Wire {
	e.stats.AddGates++
	return e.linear(a, b, false)
}

// SubGate subtracts b from a; used by equality gates.
func (e *Executor) SubGate(a, b *Wire) *Wire {
	e.stats.AddGates++
	return e.linear(a, b, true)
}

func (e *Executor) linear(a, b *Wire, negate bool) *Wire {
	bv := b.share.Value
	var bpub *fr.Element
	if b.public != nil {
		v := *b.public
		bpub = &v
	}
	if negate {
		bv.Neg(&bv)
		if bpub != nil {
			bpub.Neg(bpub)
		}
	}

	switch {
	case a.public != nil && bpub != nil:
		var v fr.Element
		v.Add(a.public, bpub)
		return e.InputPublic(v)
	case a.public != nil:
		w := &Wire{degree: b.degree, sharingID: b.sharingID, share: sharing.Share{Point: e.self, Value: bv}}
		e.addConstant(&w.share.Value, *a.public)
		return w
	case bpub != nil:
		w := &Wire{degree: a.degree, sharingID: a.sharingID, share: sharing.Share{Point: e.self, Value: a.share.Value}}
		e.addConstant(&w.share.Value, *bpub)
		return w
	default:
		deg := a.degree
		if b.degree > deg {
			deg = b.degree
		}
		w := &Wire{degree: deg, sharingID: a.sharingID}
		w.share.Point = e.self
		w.share.Value.Add(&a.share.Value, &bv)
		return w
	}
}

// addConstant folds a public constant into this party's share. Under Shamir
// every party shifts its share; under additive sharing only party 1 does.
func (e *Executor) addConstant(v *fr.Element, c fr.Element) {
	if e.sess.Scheme == sharing.Additive && e.self != 1 {
		return
	}
	v.Add(v, &c)
}

// ScaleGate multiplies a wire by a public constant. Local in both modes.
func (e *Executor) ScaleGate(a *Wire, c fr.Element) *Wire {
	if a.public != nil {
		var v fr.Element
		v.Mul(a.public, &c)
		return e.InputPublic(v)
	}
	w := &Wire{degree: a.degree, sharingID: a.sharingID}
	w.share.Point = e.self
	w.share.Value.Mul(&a.share.Value, &c)
	return w
}

// MulGate multiplies two wires. Shared-by-shared multiplication runs the
// mode's multiplication protocol; everything else is local.
func (e *Executor) MulGate(ctx context.Context, a, b *Wire) (*Wire, error) {
	e.stats.MulGates++
	switch {
	case a.public != nil && b.public != nil:
		var v fr.Element
		v.Mul(a.public, b.public)
		return e.InputPublic(v), nil
	case a.public != nil:
		return e.ScaleGate(b, *a.public), nil
	case b.public != nil:
		return e.ScaleGate(a, *b.public), nil
	}
	if e.sess.Scheme != sharing.Shamir {
		return nil, e.fail(ctx, wire.ReasonDegreeOverflow, sharing.ErrNoMul)
	}
	if a.degree+b.degree > e.sess.N-1 {
		return nil, e.fail(ctx, wire.ReasonDegreeOverflow, sharing.ErrDegreeOverflow)
	}
	return e.mul.mul(ctx, e, a, b)
}

// Output opens a wire to every party and returns the reconstructed value.
// Called only at the end of a circuit.
func (e *Executor) Output(ctx context.Context, a *Wire) (fr.Element, error) {
	if a.public != nil {
		return *a.public, nil
	}
	return e.open(ctx, a)
}

// Finish returns the hash of this party's session transcript. Re-running with
// the same seed and inputs reproduces the same hash.
func (e *Executor) Finish() []byte {
	return e.digest.Sum(nil)
}

// open broadcasts this party's share of the wire and reconstructs from all n
// shares, attributing any share off the honest-majority polynomial.
func (e *Executor) open(ctx context.Context, a *Wire) (fr.Element, error) {
	var zero fr.Element
	gate := e.nextGate()
	others := e.parties.Others(e.self)
	for _, id := range others {
		err := e.send(ctx, &wire.Message{
			Kind: wire.KindShare, SharingID: a.sharingID, GateIndex: gate,
			Recipient: id, Point: e.self, Value: a.share.Value,
		})
		if err != nil {
			return zero, e.fail(ctx, wire.ReasonTimeout, err)
		}
	}
	msgs, err := e.in.collect(ctx, msgKey{a.sharingID, gate, 0}, others, 1, wire.KindShare)
	if err != nil {
		return zero, e.fail(ctx, reasonFor(err), err)
	}
	e.absorb(others, msgs)
	e.stats.Rounds++

	set := &sharing.ShareSet{Scheme: e.sess.Scheme, Degree: a.degree, SharingID: a.sharingID, N: e.sess.N}
	set.Shares = append(set.Shares, sharing.Share{Point: e.self, Value: a.share.Value})
	for _, id := range others {
		m := msgs[id][0]
		if m.Point != id || m.SharingID != a.sharingID {
			err := &MaliciousShareError{Party: id}
			return zero, e.fail(ctx, wire.ReasonMaliciousShare, err)
		}
		set.Shares = append(set.Shares, sharing.Share{Point: m.Point, Value: m.Value})
	}

	if e.sess.Scheme == sharing.Additive {
		v, err := set.Reconstruct()
		if err != nil {
			return zero, e.fail(ctx, wire.ReasonInsufficient, err)
		}
		return v, nil
	}

	v, cheater, err := reconstructMajority(set)
	if err != nil {
		if cheater != 0 {
			merr := &MaliciousShareError{Party: cheater}
			return zero, e.fail(ctx, wire.ReasonMaliciousShare, merr)
		}
		return zero, e.fail(ctx, wire.ReasonInconsistent, err)
	}
	return v, nil
}

// reconstructMajority reconstructs a Shamir set of n shares at the given
// degree, tolerating one share off the polynomial by majority vote. It
// returns the cheating party when one is identifiable.
func reconstructMajority(set *sharing.ShareSet) (fr.Element, party.ID, error) {
	var zero fr.Element
	v, err := set.ReconstructVerified()
	if err == nil {
		return v, 0, nil
	}

	// attribution needs redundancy: with only degree+2 shares, excluding an
	// honest party also leaves a trivially consistent set
	if len(set.Shares)-1 <= set.Degree+1 {
		return zero, 0, sharing.ErrInconsistent
	}

	// one share may be corrupt: find the exclusion that restores consistency
	for i := range set.Shares {
		sub := &sharing.ShareSet{Scheme: set.Scheme, Degree: set.Degree, SharingID: set.SharingID, N: set.N}
		for j, sh := range set.Shares {
			if j != i {
				sub.Shares = append(sub.Shares, sh)
			}
		}
		if v, err2 := sub.ReconstructVerified(); err2 == nil {
			return v, set.Shares[i].Point, sharing.ErrInconsistent
		}
	}
	return zero, 0, sharing.ErrInconsistent
}

func reasonFor(err error) wire.Reason {
	switch err.(type) {
	case *MaliciousShareError:
		return wire.ReasonMaliciousShare
	case *TimeoutError:
		return wire.ReasonTimeout
	}
	switch {
	case errors.Is(err, wire.ErrEncoding):
		return wire.ReasonEncoding
	case errors.Is(err, sharing.ErrInconsistent):
		return wire.ReasonInconsistent
	case errors.Is(err, sharing.ErrInsufficient):
		return wire.ReasonInsufficient
	default:
		return wire.ReasonTimeout
	}
}

// reduceMul is the single-round degree reduction: prod is this party's share
// of the degree-2(t−1) product. Parties of the reduction set re-share their
// product share at threshold t with a coefficient commitment, and everyone
// recombines with the fixed Lagrange coefficients. The returned share sits at
// degree t−1 again.
func (e *Executor) reduceMul(ctx context.Context, prod fr.Element, sid, gate uint32) (sharing.Share, error) {
	t := e.sess.T
	var own polynomial.Poly

	if e.reduction.Contains(e.self) {
		p, err := polynomial.RandomWithConstant(&prod, t-1, e.rng)
		if err != nil {
			return sharing.Share{}, e.fail(ctx, wire.ReasonInsufficient, err)
		}
		own = p
		coeffs := make([]fr.Element, t)
		copy(coeffs, p)
		cms := bn254.BatchScalarMultiplicationG1(&e.g1, coeffs)
		for _, id := range e.parties.Others(e.self) {
			for _, cm := range cms {
				err := e.send(ctx, &wire.Message{
					Kind: wire.KindCommitment, SharingID: sid, GateIndex: gate,
					Recipient: id, Commitment: cm,
				})
				if err != nil {
					return sharing.Share{}, e.fail(ctx, wire.ReasonTimeout, err)
				}
			}
			err := e.send(ctx, &wire.Message{
				Kind: wire.KindShare, SharingID: sid, GateIndex: gate, Round: 1,
				Recipient: id, Point: id, Value: p.Eval(id.Scalar()),
			})
			if err != nil {
				return sharing.Share{}, e.fail(ctx, wire.ReasonTimeout, err)
			}
		}
	}

	senders := e.reduction.Others(e.self)
	cmMsgs, err := e.in.collect(ctx, msgKey{sid, gate, 0}, senders, t, wire.KindCommitment)
	if err != nil {
		return sharing.Share{}, e.fail(ctx, reasonFor(err), err)
	}
	shMsgs, err := e.in.collect(ctx, msgKey{sid, gate, 1}, senders, 1, wire.KindShare)
	if err != nil {
		return sharing.Share{}, e.fail(ctx, reasonFor(err), err)
	}
	e.absorb(senders, cmMsgs)
	e.absorb(senders, shMsgs)
	e.stats.Rounds += 2

	var acc fr.Element
	selfScalar := e.self.Scalar()
	var selfBig big.Int
	selfScalar.BigInt(&selfBig)

	for _, id := range e.reduction {
		var shareVal fr.Element
		if id == e.self {
			shareVal = own.Eval(selfScalar)
		} else {
			m := shMsgs[id][0]
			if m.Point != e.self || m.SharingID != sid {
				merr := &MaliciousShareError{Party: id}
				return sharing.Share{}, e.fail(ctx, wire.ReasonMaliciousShare, merr)
			}
			shareVal = m.Value
			if !e.verifyReshare(cmMsgs[id], shareVal, &selfBig) {
				merr := &MaliciousShareError{Party: id}
				return sharing.Share{}, e.fail(ctx, wire.ReasonMaliciousShare, merr)
			}
		}
		lam := e.lambda[id]
		var term fr.Element
		term.Mul(&lam, &shareVal)
		acc.Add(&acc, &term)
	}

	return sharing.Share{Point: e.self, Value: acc}, nil
}

// verifyReshare checks the Feldman relation g^v = Σ xᵏ·Cₖ for this party's
// evaluation point x against the sender's coefficient commitments.
func (e *Executor) verifyReshare(cms []*wire.Message, v fr.Element, x *big.Int) bool {
	var expect bn254.G1Jac
	expect.FromAffine(&cms[len(cms)-1].Commitment)
	for k := len(cms) - 2; k >= 0; k-- {
		expect.ScalarMultiplication(&expect, x)
		expect.AddMixed(&cms[k].Commitment)
	}
	var vBig big.Int
	v.BigInt(&vBig)
	var got bn254.G1Jac
	var g1Jac bn254.G1Jac
	g1Jac.FromAffine(&e.g1)
	got.ScalarMultiplication(&g1Jac, &vBig)

	var expectAff, gotAff bn254.G1Affine
	expectAff.FromJacobian(&expect)
	gotAff.FromJacobian(&got)
	return expectAff.Equal(&gotAff)
}
