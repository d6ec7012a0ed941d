package delegation_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/eos/internal/test"
	"github.com/luxfi/eos/pkg/circuit"
	"github.com/luxfi/eos/pkg/delegation"
	"github.com/luxfi/eos/pkg/kzg"
	"github.com/luxfi/eos/pkg/mpc"
	"github.com/luxfi/eos/pkg/party"
	"github.com/luxfi/eos/pkg/session"
	"github.com/luxfi/eos/pkg/sharing"
	"github.com/luxfi/eos/pkg/wire"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func demoParams(mode session.Mode) session.Params {
	return session.Params{N: 5, T: 2, Scheme: sharing.Shamir, Mode: mode, SecurityBits: 128, MaxDegree: 16}
}

func demoWitness() map[int]fr.Element {
	return map[int]fr.Element{0: elem(3), 1: elem(4)}
}

func newDriver(t *testing.T, mode session.Mode) *delegation.Driver {
	t.Helper()
	circ := circuit.SquarePlus(1, 2)
	drv, err := delegation.New(demoParams(mode), circ)
	require.NoError(t, err)
	require.Equal(t, delegation.Idle, drv.State())
	require.NoError(t, drv.Preprocess(rand.Reader))
	require.Equal(t, delegation.ParamsReady, drv.State())
	return drv
}

// S6: end-to-end delegation of (x·x) + y with x=3, y=4 accepts with output 13.
func TestEndToEnd(t *testing.T) {
	drv := newDriver(t, session.Collaboration)

	outcome, dec, err := drv.Run(context.Background(), demoWitness(), []byte("s6"))
	require.NoError(t, err)
	require.Equal(t, delegation.Accept, dec.State)
	require.Equal(t, delegation.Accept, drv.State())

	require.Len(t, outcome.Outputs, 1)
	want := elem(13)
	assert.True(t, outcome.Outputs[0].Equal(&want))
	assert.NotNil(t, outcome.Proof)
	assert.Len(t, outcome.Transcripts, 5)
}

// S6, second half: a forged Cm_H is rejected with the identity reason.
func TestForgedQuotientRejected(t *testing.T) {
	drv := newDriver(t, session.Collaboration)

	outcome, dec, err := drv.Delegate(context.Background(), demoWitness(), []byte("s6-forged"))
	require.NoError(t, err)
	require.Nil(t, dec)
	require.Equal(t, delegation.Committed, drv.State())

	var j bn254.G1Jac
	j.FromAffine(&outcome.Proof.CmH.Point)
	j.DoubleAssign()
	outcome.Proof.CmH.Point.FromJacobian(&j)

	verdict := drv.Verify(outcome)
	require.Equal(t, delegation.Reject, verdict.State)
	assert.Equal(t, wire.ReasonIdentityFailed, verdict.Reason)
}

func TestIsolationModeAccepts(t *testing.T) {
	drv := newDriver(t, session.Isolation)
	outcome, dec, err := drv.Run(context.Background(), demoWitness(), []byte("iso"))
	require.NoError(t, err)
	require.Equal(t, delegation.Accept, dec.State)
	want := elem(13)
	assert.True(t, outcome.Outputs[0].Equal(&want))
}

// Property 7: same seed and inputs give byte-identical party transcripts.
func TestDriverDeterminism(t *testing.T) {
	run := func() map[party.ID][]byte {
		drv := newDriver(t, session.Isolation)
		outcome, dec, err := drv.Run(context.Background(), demoWitness(), []byte("det"))
		require.NoError(t, err)
		require.Equal(t, delegation.Accept, dec.State)
		return outcome.Transcripts
	}

	a, b := run(), run()
	require.Equal(t, len(a), len(b))
	for id := range a {
		assert.True(t, bytes.Equal(a[id], b[id]), "party %d", id)
	}
}

// A cheating worker surfaces as Reject with the malicious-share reason.
func TestMaliciousWorkerRejected(t *testing.T) {
	drv := newDriver(t, session.Isolation)
	drv.Transport = func(id party.ID, tr mpc.Transport) mpc.Transport {
		if id != 3 {
			return tr
		}
		return &test.TamperTransport{Transport: tr, Mutate: func(_ party.ID, frame []byte) []byte {
			m, err := wire.Decode(frame)
			if err != nil || m.Kind != wire.KindShare || m.Round != 1 {
				return frame
			}
			one := elem(1)
			m.Value.Add(&m.Value, &one)
			out, err := m.Encode()
			if err != nil {
				return frame
			}
			return out
		}}
	}

	_, dec, err := drv.Run(context.Background(), demoWitness(), []byte("cheat"))
	require.NoError(t, err)
	require.NotNil(t, dec)
	require.Equal(t, delegation.Reject, dec.State)
	assert.Equal(t, wire.ReasonMaliciousShare, dec.Reason)
}

func TestParameterValidation(t *testing.T) {
	circ := circuit.SquarePlus(1, 2)

	bad := demoParams(session.Isolation)
	bad.T = 4 // above (n+1)/2
	_, err := delegation.New(bad, circ)
	assert.Error(t, err)

	small := demoParams(session.Isolation)
	small.MaxDegree = 2 // below circuit size − 1
	_, err = delegation.New(small, circ)
	assert.Error(t, err)
}

func TestDelegateRequiresPreprocess(t *testing.T) {
	circ := circuit.SquarePlus(1, 2)
	drv, err := delegation.New(demoParams(session.Isolation), circ)
	require.NoError(t, err)
	_, _, err = drv.Delegate(context.Background(), demoWitness(), []byte("x"))
	assert.Error(t, err)
}

func TestExternalSRS(t *testing.T) {
	srs, err := kzg.Setup(16, rand.Reader)
	require.NoError(t, err)
	data, err := srs.MarshalBinary()
	require.NoError(t, err)

	drv, err := delegation.New(demoParams(session.Isolation), circuit.SquarePlus(1, 2))
	require.NoError(t, err)

	var loaded kzg.SRS
	require.NoError(t, loaded.UnmarshalBinary(data))
	require.NoError(t, drv.UseSRS(&loaded))
	require.Equal(t, delegation.ParamsReady, drv.State())

	_, dec, err := drv.Run(context.Background(), demoWitness(), []byte("ext"))
	require.NoError(t, err)
	require.Equal(t, delegation.Accept, dec.State)

	// an SRS below the session bound is refused
	small, err := kzg.Setup(4, rand.Reader)
	require.NoError(t, err)
	short, err := delegation.New(demoParams(session.Isolation), circuit.SquarePlus(1, 2))
	require.NoError(t, err)
	assert.Error(t, short.UseSRS(small))
}
