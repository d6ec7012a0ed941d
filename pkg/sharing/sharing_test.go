package sharing_test

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/eos/pkg/party"
	"github.com/luxfi/eos/pkg/sharing"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

// S1: Shamir round-trip with (t, n) = (3, 5).
func TestShamirRoundTrip(t *testing.T) {
	secret := elem(123)
	set, err := sharing.Deal(secret, 3, 5, 1, rand.Reader)
	require.NoError(t, err)
	require.Len(t, set.Shares, 5)
	assert.Equal(t, sharing.Shamir, set.Scheme)
	assert.Equal(t, 2, set.Degree)

	got, err := set.Subset(party.IDSlice{1, 2, 3}).Reconstruct()
	require.NoError(t, err)
	assert.True(t, got.Equal(&secret))

	_, err = set.Subset(party.IDSlice{1, 2}).Reconstruct()
	assert.ErrorIs(t, err, sharing.ErrInsufficient)
}

func TestShamirAnySubset(t *testing.T) {
	secret := elem(987654321)
	set, err := sharing.Deal(secret, 3, 7, 1, rand.Reader)
	require.NoError(t, err)

	subsets := []party.IDSlice{
		{1, 2, 3}, {5, 6, 7}, {1, 4, 7}, {2, 3, 5, 6}, {1, 2, 3, 4, 5, 6, 7},
	}
	for _, ids := range subsets {
		got, err := set.Subset(ids).Reconstruct()
		require.NoError(t, err)
		assert.True(t, got.Equal(&secret))
	}
}

// S2: additive round-trip with n = 4.
func TestAdditiveRoundTrip(t *testing.T) {
	secret := elem(42)
	set, err := sharing.DealAdditive(secret, 4, 1, rand.Reader)
	require.NoError(t, err)
	require.Len(t, set.Shares, 4)
	assert.Equal(t, sharing.Additive, set.Scheme)

	got, err := set.Reconstruct()
	require.NoError(t, err)
	assert.True(t, got.Equal(&secret))

	for drop := party.ID(1); drop <= 4; drop++ {
		sub := set.Subset(party.RangeIDs(4).Others(drop))
		_, err := sub.Reconstruct()
		assert.ErrorIs(t, err, sharing.ErrInsufficient)
	}
}

func TestHomomorphicAdd(t *testing.T) {
	testCases := []struct {
		name   string
		scheme sharing.Scheme
	}{
		{"shamir", sharing.Shamir},
		{"additive", sharing.Additive},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := elem(10), elem(20)
			var setA, setB *sharing.ShareSet
			var err error
			if tc.scheme == sharing.Shamir {
				setA, err = sharing.Deal(a, 2, 5, 1, rand.Reader)
				require.NoError(t, err)
				setB, err = sharing.Deal(b, 2, 5, 2, rand.Reader)
				require.NoError(t, err)
			} else {
				setA, err = sharing.DealAdditive(a, 5, 1, rand.Reader)
				require.NoError(t, err)
				setB, err = sharing.DealAdditive(b, 5, 2, rand.Reader)
				require.NoError(t, err)
			}
			sum, err := sharing.Add(setA, setB)
			require.NoError(t, err)
			got, err := sum.Reconstruct()
			require.NoError(t, err)
			want := elem(30)
			assert.True(t, got.Equal(&want))
		})
	}
}

func TestScale(t *testing.T) {
	set, err := sharing.Deal(elem(7), 2, 5, 1, rand.Reader)
	require.NoError(t, err)
	scaled := sharing.Scale(set, elem(6))
	assert.Equal(t, set.Degree, scaled.Degree)
	got, err := scaled.Reconstruct()
	require.NoError(t, err)
	want := elem(42)
	assert.True(t, got.Equal(&want))
}

func TestMulLocal(t *testing.T) {
	a, err := sharing.Deal(elem(7), 2, 5, 1, rand.Reader)
	require.NoError(t, err)
	b, err := sharing.Deal(elem(6), 2, 5, 2, rand.Reader)
	require.NoError(t, err)

	prod, err := sharing.MulLocal(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, prod.Degree)

	got, err := prod.Reconstruct()
	require.NoError(t, err)
	want := elem(42)
	assert.True(t, got.Equal(&want))
}

func TestMulLocalDegreeOverflow(t *testing.T) {
	// 2·(t−1) = 4 > n−1 = 3
	a, err := sharing.Deal(elem(1), 3, 4, 1, rand.Reader)
	require.NoError(t, err)
	b, err := sharing.Deal(elem(2), 3, 4, 2, rand.Reader)
	require.NoError(t, err)
	_, err = sharing.MulLocal(a, b)
	assert.ErrorIs(t, err, sharing.ErrDegreeOverflow)
}

func TestMulLocalAdditiveUnsupported(t *testing.T) {
	a, err := sharing.DealAdditive(elem(1), 3, 1, rand.Reader)
	require.NoError(t, err)
	_, err = sharing.MulLocal(a, a)
	assert.ErrorIs(t, err, sharing.ErrNoMul)
}

func TestSchemeMismatch(t *testing.T) {
	a, err := sharing.Deal(elem(1), 2, 3, 1, rand.Reader)
	require.NoError(t, err)
	b, err := sharing.DealAdditive(elem(2), 3, 2, rand.Reader)
	require.NoError(t, err)
	_, err = sharing.Add(a, b)
	assert.ErrorIs(t, err, sharing.ErrSchemeMismatch)
}

func TestReconstructVerified(t *testing.T) {
	set, err := sharing.Deal(elem(5), 2, 5, 1, rand.Reader)
	require.NoError(t, err)

	_, err = set.ReconstructVerified()
	require.NoError(t, err)

	// corrupt one share above the interpolation base
	bad := *set
	bad.Shares = append([]sharing.Share(nil), set.Shares...)
	bad.Shares[4].Value.SetUint64(999)
	_, err = bad.ReconstructVerified()
	assert.ErrorIs(t, err, sharing.ErrInconsistent)
}

// Fewer than t shares must carry no information: across many dealings of the
// same secret, a single sub-threshold share takes a fresh value every time.
func TestSubThresholdPrivacy(t *testing.T) {
	secret := elem(123)
	const runs = 64
	seen := make(map[string]struct{}, runs)
	for i := 0; i < runs; i++ {
		set, err := sharing.Deal(secret, 3, 5, uint32(i), rand.Reader)
		require.NoError(t, err)
		b := set.Shares[0].Value.Bytes()
		seen[string(b[:])] = struct{}{}
	}
	// collisions in a 254-bit field would be astronomically unlikely
	assert.Equal(t, runs, len(seen))
}

func TestShareReconstructProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40

	properties := gopter.NewProperties(parameters)
	properties.Property("reconstruct(share(s)) == s for any valid (t, n)", prop.ForAll(
		func(s uint64, t int, extra int) bool {
			n := t + extra
			secret := elem(s)
			set, err := sharing.Deal(secret, t, n, 1, rand.Reader)
			if err != nil {
				return false
			}
			got, err := set.Subset(party.RangeIDs(t)).Reconstruct()
			if err != nil {
				return false
			}
			return got.Equal(&secret)
		},
		gen.UInt64(),
		gen.IntRange(1, 8),
		gen.IntRange(0, 8),
	))
	properties.TestingRun(t)
}

func TestReconstructErrors(t *testing.T) {
	set := &sharing.ShareSet{Scheme: sharing.Scheme(99), Degree: 1, N: 3}
	_, err := set.Reconstruct()
	assert.Error(t, err)
	assert.False(t, errors.Is(err, sharing.ErrInsufficient))
}
