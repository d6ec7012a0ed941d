package sharing

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/math/sample"
	"github.com/luxfi/eos/pkg/party"
)

// DealAdditive shares secret among n parties under the additive n-of-n
// scheme: n−1 values are sampled uniformly and the last balances the sum.
// Additive sets have degree 0 and do not support multiplication without
// interaction.
func DealAdditive(secret fr.Element, n int, sharingID uint32, rng io.Reader) (*ShareSet, error) {
	if n < 1 {
		return nil, fmt.Errorf("sharing: invalid party count %d", n)
	}
	set := &ShareSet{Scheme: Additive, Degree: 0, SharingID: sharingID, N: n}
	set.Shares = make([]Share, n)
	var sum fr.Element
	for i := 0; i < n-1; i++ {
		v, err := sample.Fr(rng)
		if err != nil {
			return nil, fmt.Errorf("sharing: sample additive share: %w", err)
		}
		set.Shares[i].Point = party.ID(i + 1)
		set.Shares[i].Value = v
		sum.Add(&sum, &v)
	}
	set.Shares[n-1].Point = party.ID(n)
	set.Shares[n-1].Value.Sub(&secret, &sum)
	return set, nil
}

func (s *ShareSet) reconstructAdditive() (fr.Element, error) {
	var sum fr.Element
	if len(s.Shares) < s.N {
		return sum, fmt.Errorf("%w: have %d, need all %d", ErrInsufficient, len(s.Shares), s.N)
	}
	seen := make(map[party.ID]struct{}, len(s.Shares))
	for _, sh := range s.Shares {
		if _, dup := seen[sh.Point]; dup {
			return fr.Element{}, fmt.Errorf("%w: duplicate point %d", ErrInconsistent, sh.Point)
		}
		seen[sh.Point] = struct{}{}
		sum.Add(&sum, &sh.Value)
	}
	return sum, nil
}
