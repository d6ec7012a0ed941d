package kzg_test

import (
	"crypto/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/eos/pkg/kzg"
	"github.com/luxfi/eos/pkg/math/polynomial"
	"github.com/luxfi/eos/pkg/transcript"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func testSRS(t *testing.T, maxDegree int) *kzg.SRS {
	t.Helper()
	srs, err := kzg.Setup(maxDegree, rand.Reader)
	require.NoError(t, err)
	return srs
}

func TestCommitOpenVerify(t *testing.T) {
	srs := testSRS(t, 16)
	p, err := polynomial.Random(10, rand.Reader)
	require.NoError(t, err)

	cm, err := kzg.Commit(srs, p)
	require.NoError(t, err)

	z := elem(31337)
	op, err := kzg.Open(srs, p, z)
	require.NoError(t, err)
	want := p.Eval(z)
	assert.True(t, op.Value.Equal(&want))

	assert.NoError(t, kzg.Verify(srs, cm, op))
}

func TestVerifyRejectsTampering(t *testing.T) {
	srs := testSRS(t, 16)
	p, err := polynomial.Random(8, rand.Reader)
	require.NoError(t, err)
	cm, err := kzg.Commit(srs, p)
	require.NoError(t, err)
	op, err := kzg.Open(srs, p, elem(99))
	require.NoError(t, err)

	t.Run("commitment", func(t *testing.T) {
		bad := cm
		_, _, g, _ := bn254.Generators()
		var j, gj bn254.G1Jac
		j.FromAffine(&bad.Point)
		gj.FromAffine(&g)
		j.AddAssign(&gj)
		bad.Point.FromJacobian(&j)
		assert.ErrorIs(t, kzg.Verify(srs, bad, op), kzg.ErrVerifyFailed)
	})

	t.Run("point", func(t *testing.T) {
		bad := op
		bad.Point = elem(100)
		assert.ErrorIs(t, kzg.Verify(srs, cm, bad), kzg.ErrVerifyFailed)
	})

	t.Run("value", func(t *testing.T) {
		bad := op
		bad.Value.Add(&bad.Value, &bad.Value)
		assert.ErrorIs(t, kzg.Verify(srs, cm, bad), kzg.ErrVerifyFailed)
	})

	t.Run("witness", func(t *testing.T) {
		bad := op
		var j bn254.G1Jac
		j.FromAffine(&bad.Witness)
		j.DoubleAssign()
		bad.Witness.FromJacobian(&j)
		assert.ErrorIs(t, kzg.Verify(srs, cm, bad), kzg.ErrVerifyFailed)
	})
}

func TestCommitDegreeTooLarge(t *testing.T) {
	srs := testSRS(t, 4)
	p, err := polynomial.Random(5, rand.Reader)
	require.NoError(t, err)
	_, err = kzg.Commit(srs, p)
	assert.ErrorIs(t, err, kzg.ErrDegreeTooLarge)
}

func TestBatchOpenVerify(t *testing.T) {
	srs := testSRS(t, 16)
	polys := make([]polynomial.Poly, 3)
	cms := make([]kzg.Commitment, 3)
	for i := range polys {
		p, err := polynomial.Random(6+i, rand.Reader)
		require.NoError(t, err)
		polys[i] = p
		cms[i], err = kzg.Commit(srs, p)
		require.NoError(t, err)
	}

	z := elem(555)
	buildTr := func() *transcript.Transcript {
		tr := transcript.New("batch-test")
		for i := range cms {
			b := cms[i].Point.Bytes()
			require.NoError(t, tr.Append("cm", b[:]))
		}
		_, err := tr.Challenge(transcript.ChallengeRho)
		require.NoError(t, err)
		return tr
	}

	op, err := kzg.BatchOpen(srs, polys, z, buildTr())
	require.NoError(t, err)
	require.Len(t, op.Values, 3)
	for i := range polys {
		want := polys[i].Eval(z)
		assert.True(t, op.Values[i].Equal(&want))
	}

	assert.NoError(t, kzg.BatchVerify(srs, cms, op, buildTr()))

	bad := op
	bad.Values = append([]fr.Element(nil), op.Values...)
	bad.Values[1].Add(&bad.Values[1], &bad.Values[1])
	assert.Error(t, kzg.BatchVerify(srs, cms, bad, buildTr()))
}

func TestSRSCheck(t *testing.T) {
	srs := testSRS(t, 8)
	require.NoError(t, srs.Check())

	bad := &kzg.SRS{G1: append([]bn254.G1Affine(nil), srs.G1...), G2: srs.G2}
	var j bn254.G1Jac
	j.FromAffine(&bad.G1[2])
	j.DoubleAssign()
	bad.G1[2].FromJacobian(&j)
	assert.ErrorIs(t, bad.Check(), kzg.ErrInvalidSRS)
}

func TestSRSMarshalRoundTrip(t *testing.T) {
	srs := testSRS(t, 6)
	data, err := srs.MarshalBinary()
	require.NoError(t, err)

	var back kzg.SRS
	require.NoError(t, back.UnmarshalBinary(data))
	require.NoError(t, back.Check())
	assert.Equal(t, srs.MaxDegree(), back.MaxDegree())

	p, err := polynomial.Random(4, rand.Reader)
	require.NoError(t, err)
	cm1, err := kzg.Commit(srs, p)
	require.NoError(t, err)
	cm2, err := kzg.Commit(&back, p)
	require.NoError(t, err)
	assert.True(t, cm1.Point.Equal(&cm2.Point))
}
