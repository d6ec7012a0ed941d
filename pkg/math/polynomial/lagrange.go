package polynomial

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/party"
)

// Lagrange returns the coefficients {λ_i} such that ∑ λ_i · f(i) = f(0) for
// any polynomial f of degree < len(ids), where the interpolation points are
// the party IDs.
func Lagrange(ids party.IDSlice) map[party.ID]fr.Element {
	coeffs := make(map[party.ID]fr.Element, len(ids))
	denoms := make([]fr.Element, len(ids))
	var num fr.Element
	for i, idI := range ids {
		xi := idI.Scalar()
		num.SetOne()
		denoms[i].SetOne()
		var t fr.Element
		for _, idJ := range ids {
			if idI == idJ {
				continue
			}
			xj := idJ.Scalar()
			t.Neg(&xj)
			num.Mul(&num, &t) // ∏ (0 − x_j)
			t.Sub(&xi, &xj)
			denoms[i].Mul(&denoms[i], &t) // ∏ (x_i − x_j)
		}
		denoms[i].Inverse(&denoms[i])
		num.Mul(&num, &denoms[i])
		coeffs[idI] = num
	}
	return coeffs
}
