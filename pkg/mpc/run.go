package mpc

import (
	"context"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/circuit"
	"github.com/luxfi/eos/pkg/sharing"
	"github.com/luxfi/eos/pkg/wire"
)

// Result is one party's view of a completed circuit evaluation.
type Result struct {
	// Outputs holds the reconstructed output values, in circuit order.
	Outputs []fr.Element
	// Wires holds this party's view of every circuit wire.
	Wires []*Wire
	// TranscriptHash commits to every frame this party sent or accepted.
	TranscriptHash []byte
	// Stats counts the work done.
	Stats ExecutionStats
}

// Run evaluates the circuit gate by gate. Every party calls Run with the same
// circuit; priv maps the wire indices of this party's own private inputs to
// their values.
func (e *Executor) Run(ctx context.Context, circ *circuit.Circuit, priv map[int]fr.Element) (*Result, error) {
	if err := circ.Validate(); err != nil {
		return nil, err
	}
	if err := e.mul.prepare(ctx, e, circ.NumMul()); err != nil {
		return nil, fmt.Errorf("mpc: preprocessing: %w", err)
	}

	wires := make([]*Wire, len(circ.Gates))
	var eqWires, outGates []int
	for i, g := range circ.Gates {
		var err error
		switch g.Kind {
		case circuit.InputPublic, circuit.Const:
			wires[i] = e.InputPublic(g.Value)
		case circuit.InputPrivate:
			wires[i], err = e.InputPrivate(ctx, g.Owner, priv[i])
		case circuit.Add:
			wires[i] = e.AddGate(wires[g.A], wires[g.B])
		case circuit.Mul:
			wires[i], err = e.MulGate(ctx, wires[g.A], wires[g.B])
		case circuit.Eq:
			wires[i] = e.SubGate(wires[g.A], wires[g.B])
			eqWires = append(eqWires, i)
		case circuit.Output:
			wires[i] = wires[g.A]
			outGates = append(outGates, i)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, i := range eqWires {
		v, err := e.Output(ctx, wires[i])
		if err != nil {
			return nil, err
		}
		if !v.IsZero() {
			return nil, e.fail(ctx, wire.ReasonInconsistent, fmt.Errorf("mpc: equality gate %d: %w", i, sharing.ErrInconsistent))
		}
	}

	res := &Result{Wires: wires}
	for _, i := range outGates {
		v, err := e.Output(ctx, wires[i])
		if err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, v)
	}
	res.TranscriptHash = e.Finish()
	res.Stats = e.Stats()
	return res, nil
}
