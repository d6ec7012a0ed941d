package circuit_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/eos/pkg/circuit"
	"github.com/luxfi/eos/pkg/party"
)

func TestBuilder(t *testing.T) {
	b := circuit.NewBuilder()
	x := b.PrivateInput(party.ID(1))
	y := b.PrivateInput(party.ID(2))
	xx := b.Mul(x, x)
	sum := b.Add(xx, y)
	out := b.Output(sum)

	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 5, c.NumWires())
	assert.Equal(t, 1, c.NumMul())
	assert.Equal(t, []int{sum}, c.Outputs())
	assert.Equal(t, 4, out)
}

func TestValidateOrdering(t *testing.T) {
	testCases := []struct {
		name  string
		gates []circuit.Gate
		ok    bool
	}{
		{"empty", nil, false},
		{"forward reference", []circuit.Gate{
			{Kind: circuit.Add, A: 0, B: 1},
			{Kind: circuit.InputPublic},
		}, false},
		{"self reference", []circuit.Gate{
			{Kind: circuit.InputPublic},
			{Kind: circuit.Mul, A: 1, B: 0},
		}, false},
		{"negative wire", []circuit.Gate{
			{Kind: circuit.InputPublic},
			{Kind: circuit.Output, A: -1},
		}, false},
		{"valid chain", []circuit.Gate{
			{Kind: circuit.InputPublic},
			{Kind: circuit.InputPrivate, Owner: 1},
			{Kind: circuit.Add, A: 0, B: 1},
			{Kind: circuit.Output, A: 2},
		}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &circuit.Circuit{Gates: tc.gates}
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSquarePlus(t *testing.T) {
	c := circuit.SquarePlus(party.ID(1), party.ID(2))
	require.NoError(t, c.Validate())
	assert.Equal(t, 1, c.NumMul())
	assert.Len(t, c.Outputs(), 1)
}

func TestConstantAndEq(t *testing.T) {
	var thirteen fr.Element
	thirteen.SetUint64(13)

	b := circuit.NewBuilder()
	x := b.PrivateInput(party.ID(1))
	c13 := b.Constant(thirteen)
	b.Eq(x, c13)
	_, err := b.Build()
	require.NoError(t, err)
}
