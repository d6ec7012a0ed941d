// Package delegation implements the end-to-end driver: parameter generation,
// share dispersal, MPC evaluation, commitment, consistency check, and the
// final accept/reject decision.
package delegation

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/eos/internal/test"
	"github.com/luxfi/eos/pkg/circuit"
	"github.com/luxfi/eos/pkg/kzg"
	"github.com/luxfi/eos/pkg/logger"
	"github.com/luxfi/eos/pkg/mpc"
	"github.com/luxfi/eos/pkg/party"
	"github.com/luxfi/eos/pkg/piop"
	"github.com/luxfi/eos/pkg/session"
	"github.com/luxfi/eos/pkg/sharing"
	"github.com/luxfi/eos/pkg/transcript"
	"github.com/luxfi/eos/pkg/wire"
)

// State is the driver's position in the protocol.
type State uint8

const (
	Idle State = iota
	ParamsReady
	Shared
	Evaluated
	Committed
	Checked
	Accept
	Reject
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ParamsReady:
		return "params_ready"
	case Shared:
		return "shared"
	case Evaluated:
		return "evaluated"
	case Committed:
		return "committed"
	case Checked:
		return "checked"
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Outcome is the product of a delegation run: the reconstructed outputs, the
// workers' consistency proof, and the per-party transcripts.
type Outcome struct {
	Outputs     []fr.Element
	Statement   *piop.Statement
	Proof       *piop.Proof
	Transcripts map[party.ID][]byte
	Stats       mpc.ExecutionStats
}

// Decision is the driver's final verdict.
type Decision struct {
	State  State
	Reason wire.Reason
}

// Driver sequences one delegation session.
type Driver struct {
	params session.Params
	circ   *circuit.Circuit
	srs    *kzg.SRS
	state  State

	// Transport, when set, overrides the in-memory network for one party;
	// tests use it to model a cheating worker.
	Transport func(id party.ID, tr mpc.Transport) mpc.Transport
}

// New returns a driver in the Idle state.
func New(params session.Params, circ *circuit.Circuit) (*Driver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := circ.Validate(); err != nil {
		return nil, err
	}
	if params.MaxDegree < circ.NumWires()-1 {
		return nil, fmt.Errorf("delegation: max degree %d below circuit size %d", params.MaxDegree, circ.NumWires())
	}
	return &Driver{params: params, circ: circ, state: Idle}, nil
}

// State returns the driver's current state.
func (d *Driver) State() State { return d.state }

// Preprocess generates session parameters, including a locally sampled SRS.
// Production deployments should instead call UseSRS with a ceremony artifact.
func (d *Driver) Preprocess(rng io.Reader) error {
	srs, err := kzg.Setup(d.params.MaxDegree, rng)
	if err != nil {
		return err
	}
	d.srs = srs
	d.state = ParamsReady
	return nil
}

// UseSRS installs an externally supplied reference string after validating
// its structure.
func (d *Driver) UseSRS(srs *kzg.SRS) error {
	if err := srs.Check(); err != nil {
		return err
	}
	if srs.MaxDegree() < d.params.MaxDegree {
		return fmt.Errorf("delegation: SRS bound %d below required %d", srs.MaxDegree(), d.params.MaxDegree)
	}
	d.srs = srs
	d.state = ParamsReady
	return nil
}

// Delegate disperses the witness, evaluates the circuit across the worker
// set, and produces the commitments and consistency proof. The witness maps
// private-input wire indices to their values; it is in the clear only here
// and in the Accept decision.
func (d *Driver) Delegate(ctx context.Context, witness map[int]fr.Element, seed []byte) (*Outcome, *Decision, error) {
	log := logger.Logger().With().Str("protocol", "eos").Int("n", d.params.N).Int("t", d.params.T).Logger()
	if d.state != ParamsReady {
		return nil, nil, fmt.Errorf("delegation: Delegate called in state %v", d.state)
	}

	sessions := make([]*session.Session, d.params.N)
	for i := range sessions {
		s, err := session.New(d.params, seed)
		if err != nil {
			return nil, nil, err
		}
		sessions[i] = s
	}

	ids := party.RangeIDs(d.params.N)
	net := test.NewNetwork(ids)
	results := make([]*mpc.Result, d.params.N)

	d.state = Shared
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			tr := net.Transport(id)
			if d.Transport != nil {
				tr = d.Transport(id, tr)
			}
			sess := sessions[i]
			ex, err := mpc.NewExecutor(sess, id, tr, sess.PartyRNG(id))
			if err != nil {
				return err
			}
			priv := make(map[int]fr.Element)
			for wireIdx, gate := range d.circ.Gates {
				if gate.Kind == circuit.InputPrivate && gate.Owner == id {
					priv[wireIdx] = witness[wireIdx]
				}
			}
			res, err := ex.Run(gctx, d.circ, priv)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		dec := d.reject(reasonOf(err))
		log.Warn().Err(err).Str("reason", dec.Reason.String()).Msg("evaluation failed")
		return nil, dec, nil
	}
	d.state = Evaluated

	outcome := &Outcome{
		Outputs:     results[0].Outputs,
		Transcripts: make(map[party.ID][]byte, d.params.N),
	}
	for i, id := range ids {
		outcome.Transcripts[id] = results[i].TranscriptHash
		outcome.Stats.Merge(results[i].Stats)
	}

	trace, err := d.reconstructTrace(results)
	if err != nil {
		dec := d.reject(reasonOf(err))
		return nil, dec, nil
	}

	stmt, err := piop.NewStatement(d.circ, outcome.Outputs)
	if err != nil {
		return nil, nil, err
	}
	tr := transcript.New("eos/piop")
	proof, err := piop.Prove(d.srs, stmt, trace, tr)
	if err != nil {
		dec := d.reject(reasonOf(err))
		return nil, dec, nil
	}
	outcome.Statement = stmt
	outcome.Proof = proof
	d.state = Committed

	log.Info().
		Int("mul_gates", outcome.Stats.MulGates).
		Int("rounds", outcome.Stats.Rounds).
		Int("bytes", outcome.Stats.BytesSent).
		Msg("evaluation complete")
	return outcome, nil, nil
}

// Verify runs the consistency check against the outcome and decides. The
// check replays the Fiat-Shamir transcript from scratch.
func (d *Driver) Verify(outcome *Outcome) *Decision {
	tr := transcript.New("eos/piop")
	if err := piop.Check(d.srs, outcome.Statement, outcome.Proof, tr); err != nil {
		return d.reject(reasonOf(err))
	}
	d.state = Checked

	d.state = Accept
	return &Decision{State: Accept}
}

// Run executes the full sequence and returns the decision together with the
// outcome when one was produced.
func (d *Driver) Run(ctx context.Context, witness map[int]fr.Element, seed []byte) (*Outcome, *Decision, error) {
	outcome, dec, err := d.Delegate(ctx, witness, seed)
	if err != nil {
		return nil, nil, err
	}
	if dec != nil {
		return nil, dec, nil
	}
	return outcome, d.Verify(outcome), nil
}

func (d *Driver) reject(reason wire.Reason) *Decision {
	d.state = Reject
	return &Decision{State: Reject, Reason: reason}
}

// reconstructTrace rebuilds the clear wire trace from the workers' shares so
// the commitments can be produced. Reconstruction is verified against all n
// shares per wire.
func (d *Driver) reconstructTrace(results []*mpc.Result) (*piop.Trace, error) {
	wires := make([]fr.Element, d.circ.NumWires())
	for i := range wires {
		w0 := results[0].Wires[i]
		if v, ok := w0.Public(); ok {
			wires[i] = v
			continue
		}
		set := &sharing.ShareSet{
			Scheme: d.params.Scheme,
			Degree: w0.Degree(),
			N:      d.params.N,
		}
		for _, res := range results {
			set.Shares = append(set.Shares, res.Wires[i].Share())
		}
		var v fr.Element
		var err error
		if d.params.Scheme == sharing.Shamir {
			v, err = set.ReconstructVerified()
		} else {
			v, err = set.Reconstruct()
		}
		if err != nil {
			return nil, err
		}
		wires[i] = v
	}
	return piop.TraceFromWires(d.circ, wires)
}

// reasonOf maps component errors to the stable reject codes.
func reasonOf(err error) wire.Reason {
	var mal *mpc.MaliciousShareError
	var tim *mpc.TimeoutError
	var ab *mpc.AbortError
	switch {
	case errors.As(err, &mal):
		return wire.ReasonMaliciousShare
	case errors.As(err, &tim):
		return wire.ReasonTimeout
	case errors.As(err, &ab):
		return ab.Reason
	case errors.Is(err, sharing.ErrDegreeOverflow):
		return wire.ReasonDegreeOverflow
	case errors.Is(err, sharing.ErrInconsistent):
		return wire.ReasonInconsistent
	case errors.Is(err, sharing.ErrInsufficient):
		return wire.ReasonInsufficient
	case errors.Is(err, mpc.ErrNotEnoughParties):
		return wire.ReasonNotEnoughParties
	case errors.Is(err, kzg.ErrDegreeTooLarge):
		return wire.ReasonDegreeTooLarge
	case errors.Is(err, piop.ErrIdentityFailed):
		return wire.ReasonIdentityFailed
	case errors.Is(err, piop.ErrCommitmentInvalid), errors.Is(err, kzg.ErrVerifyFailed):
		return wire.ReasonCommitmentInvalid
	case errors.Is(err, wire.ErrEncoding):
		return wire.ReasonEncoding
	default:
		return wire.ReasonInconsistent
	}
}
