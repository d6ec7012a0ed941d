// Package party defines the identifiers of the workers taking part in a
// delegation session.
package party

import (
	"math/big"
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/cronokirby/saferith"
)

// ID identifies one of the n workers. IDs are 1-based: the evaluation point of
// a party's Shamir share is the party's ID.
type ID uint16

// Scalar returns the field element corresponding to the party's evaluation
// point. IDs are small so the conversion goes through a Nat to keep the
// arithmetic path uniform with larger session-derived values.
func (id ID) Scalar() fr.Element {
	nat := new(saferith.Nat).SetUint64(uint64(id))
	var s fr.Element
	s.SetBigInt(new(big.Int).SetBytes(nat.Bytes()))
	return s
}

// IDSlice is a sorted set of party IDs.
type IDSlice []ID

// NewIDSlice returns a sorted copy of ids.
func NewIDSlice(ids []ID) IDSlice {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RangeIDs returns the slice {1, …, n}.
func RangeIDs(n int) IDSlice {
	ids := make(IDSlice, n)
	for i := range ids {
		ids[i] = ID(i + 1)
	}
	return ids
}

// Contains reports whether id is present.
func (s IDSlice) Contains(id ID) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= id })
	return i < len(s) && s[i] == id
}

// Others returns the set with self removed.
func (s IDSlice) Others(self ID) IDSlice {
	out := make(IDSlice, 0, len(s)-1)
	for _, id := range s {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
