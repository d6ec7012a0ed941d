// Package sample draws field elements from explicit randomness sources.
// There is no implicit global RNG anywhere in the engine: every operation
// that samples takes an io.Reader, so tests can seed deterministically and
// parties keep independent streams.
package sample

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Fr returns a field element statistically close to uniform. Twice the field
// width is read so the modular reduction bias is negligible.
func Fr(rng io.Reader) (fr.Element, error) {
	var buf [2 * fr.Bytes]byte
	var e fr.Element
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return e, err
	}
	e.SetBytes(buf[:])
	return e, nil
}
