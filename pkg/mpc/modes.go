package mpc

import (
	"context"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/math/sample"
	"github.com/luxfi/eos/pkg/sharing"
	"github.com/luxfi/eos/pkg/wire"
)

// mulStrategy is the gate-evaluation strategy behind a multiplication gate.
// The two modes schedule messages differently but compute identical results.
type mulStrategy interface {
	// prepare runs the mode's preprocessing for a circuit with nMul
	// multiplication gates.
	prepare(ctx context.Context, e *Executor, nMul int) error
	// mul multiplies two shared wires.
	mul(ctx context.Context, e *Executor, a, b *Wire) (*Wire, error)
}

// isolationMul communicates only at the gate itself: one degree reduction per
// multiplication, no preprocessing. Fewest rounds overall, best on
// high-latency links.
type isolationMul struct{}

func (isolationMul) prepare(context.Context, *Executor, int) error { return nil }

func (isolationMul) mul(ctx context.Context, e *Executor, a, b *Wire) (*Wire, error) {
	sid := e.sess.NextSharingID()
	gate := e.nextGate()
	var prod fr.Element
	prod.Mul(&a.share.Value, &b.share.Value)
	sh, err := e.reduceMul(ctx, prod, sid, gate)
	if err != nil {
		return nil, err
	}
	return &Wire{degree: e.sess.T - 1, sharingID: sid, share: sh}, nil
}

// beaverTriple is a preprocessed sharing of (a, b, a·b).
type beaverTriple struct {
	a, b, c sharing.Share
}

// collaborationMul preprocesses Beaver triples in a batch; each online
// multiplication then costs two openings.
type collaborationMul struct {
	triples []beaverTriple
}

func (c *collaborationMul) prepare(ctx context.Context, e *Executor, nMul int) error {
	for len(c.triples) < nMul {
		t, err := e.genTriple(ctx)
		if err != nil {
			return err
		}
		c.triples = append(c.triples, t)
	}
	return nil
}

func (c *collaborationMul) mul(ctx context.Context, e *Executor, x, y *Wire) (*Wire, error) {
	if len(c.triples) == 0 {
		t, err := e.genTriple(ctx)
		if err != nil {
			return nil, err
		}
		c.triples = append(c.triples, t)
	}
	tr := c.triples[0]
	c.triples = c.triples[1:]

	deg := e.sess.T - 1

	// open d = x − a and e = y − b
	dWire := &Wire{degree: deg, sharingID: e.sess.NextSharingID()}
	dWire.share.Point = e.self
	dWire.share.Value.Sub(&x.share.Value, &tr.a.Value)
	eWire := &Wire{degree: deg, sharingID: e.sess.NextSharingID()}
	eWire.share.Point = e.self
	eWire.share.Value.Sub(&y.share.Value, &tr.b.Value)

	d, err := e.open(ctx, dWire)
	if err != nil {
		return nil, err
	}
	ev, err := e.open(ctx, eWire)
	if err != nil {
		return nil, err
	}

	// z = c + d·b + e·a + d·e
	out := &Wire{degree: deg, sharingID: e.sess.NextSharingID()}
	out.share.Point = e.self
	var t1 fr.Element
	out.share.Value.Set(&tr.c.Value)
	t1.Mul(&d, &tr.b.Value)
	out.share.Value.Add(&out.share.Value, &t1)
	t1.Mul(&ev, &tr.a.Value)
	out.share.Value.Add(&out.share.Value, &t1)
	t1.Mul(&d, &ev)
	e.addConstant(&out.share.Value, t1)
	return out, nil
}

// genTriple produces one Beaver triple: two jointly random sharings and
// their product via the degree-reduction protocol.
func (e *Executor) genTriple(ctx context.Context) (beaverTriple, error) {
	if e.sess.Scheme != sharing.Shamir {
		return beaverTriple{}, e.fail(ctx, wire.ReasonDegreeOverflow, sharing.ErrNoMul)
	}
	aWire, err := e.jointRandom(ctx)
	if err != nil {
		return beaverTriple{}, err
	}
	bWire, err := e.jointRandom(ctx)
	if err != nil {
		return beaverTriple{}, err
	}
	sid := e.sess.NextSharingID()
	gate := e.nextGate()
	var prod fr.Element
	prod.Mul(&aWire.share.Value, &bWire.share.Value)
	cSh, err := e.reduceMul(ctx, prod, sid, gate)
	if err != nil {
		return beaverTriple{}, err
	}
	return beaverTriple{a: aWire.share, b: bWire.share, c: cSh}, nil
}

// jointRandom produces a sharing of a value no single party knows: every
// party deals a random contribution and the contributions are summed.
func (e *Executor) jointRandom(ctx context.Context) (*Wire, error) {
	var acc *Wire
	for _, p := range e.parties {
		var v fr.Element
		if p == e.self {
			var err error
			if v, err = sample.Fr(e.rng); err != nil {
				return nil, e.fail(ctx, wire.ReasonInsufficient, err)
			}
		}
		w, err := e.InputPrivate(ctx, p, v)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = w
		} else {
			acc = e.AddGate(acc, w)
		}
	}
	return acc, nil
}
