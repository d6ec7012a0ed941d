package transcript_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/eos/pkg/transcript"
)

func TestDeterministicChallenges(t *testing.T) {
	build := func() *transcript.Transcript {
		tr := transcript.New("test")
		require.NoError(t, tr.Append("cm", []byte{1, 2, 3}))
		require.NoError(t, tr.Append("cm", []byte{4, 5, 6}))
		return tr
	}

	a, b := build(), build()
	rhoA, err := a.Challenge(transcript.ChallengeRho)
	require.NoError(t, err)
	rhoB, err := b.Challenge(transcript.ChallengeRho)
	require.NoError(t, err)
	assert.True(t, rhoA.Equal(&rhoB))
	assert.Equal(t, a.Sum(), b.Sum())
}

func TestDivergingLogsDiverge(t *testing.T) {
	a := transcript.New("test")
	b := transcript.New("test")
	require.NoError(t, a.Append("cm", []byte{1}))
	require.NoError(t, b.Append("cm", []byte{2}))

	rhoA, err := a.Challenge(transcript.ChallengeRho)
	require.NoError(t, err)
	rhoB, err := b.Challenge(transcript.ChallengeRho)
	require.NoError(t, err)
	assert.False(t, rhoA.Equal(&rhoB))
}

func TestChallengeOrder(t *testing.T) {
	tr := transcript.New("test")
	require.NoError(t, tr.Append("cm", []byte{1}))

	// gamma before rho is out of order
	_, err := tr.Challenge(transcript.ChallengeGamma)
	assert.Error(t, err)

	_, err = tr.Challenge(transcript.ChallengeRho)
	require.NoError(t, err)
	require.NoError(t, tr.Append("y", []byte{9}))
	_, err = tr.Challenge(transcript.ChallengeGamma)
	require.NoError(t, err)

	// after the final challenge the log is sealed
	assert.Error(t, tr.Append("late", []byte{1}))
}

func TestLaterRecordsShiftLaterChallenges(t *testing.T) {
	a := transcript.New("test")
	b := transcript.New("test")
	require.NoError(t, a.Append("cm", []byte{1}))
	require.NoError(t, b.Append("cm", []byte{1}))
	_, err := a.Challenge(transcript.ChallengeRho)
	require.NoError(t, err)
	_, err = b.Challenge(transcript.ChallengeRho)
	require.NoError(t, err)

	require.NoError(t, a.Append("y", []byte{7}))
	require.NoError(t, b.Append("y", []byte{8}))
	ga, err := a.Challenge(transcript.ChallengeGamma)
	require.NoError(t, err)
	gb, err := b.Challenge(transcript.ChallengeGamma)
	require.NoError(t, err)
	assert.False(t, ga.Equal(&gb))
}
