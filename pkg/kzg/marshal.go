package kzg

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/fxamacker/cbor/v2"
)

type srsCBOR struct {
	G1 [][]byte `cbor:"1,keyasint"`
	G2 [2][]byte `cbor:"2,keyasint"`
}

// MarshalBinary implements encoding.BinaryMarshaler so reference strings can
// be stored and handed to sessions. Group elements use compressed encoding.
func (s *SRS) MarshalBinary() ([]byte, error) {
	out := srsCBOR{G1: make([][]byte, len(s.G1))}
	for i := range s.G1 {
		b := s.G1[i].Bytes()
		out.G1[i] = b[:]
	}
	for i := range s.G2 {
		b := s.G2[i].Bytes()
		out.G2[i] = b[:]
	}
	return cbor.Marshal(out)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The caller should
// run Check on the result before using it.
func (s *SRS) UnmarshalBinary(data []byte) error {
	var in srsCBOR
	if err := cbor.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("kzg: decode SRS: %w", err)
	}
	s.G1 = make([]bn254.G1Affine, len(in.G1))
	for i := range in.G1 {
		if _, err := s.G1[i].SetBytes(in.G1[i]); err != nil {
			return fmt.Errorf("kzg: decode G1 power %d: %w", i, err)
		}
	}
	for i := range in.G2 {
		if _, err := s.G2[i].SetBytes(in.G2[i]); err != nil {
			return fmt.Errorf("kzg: decode G2 element %d: %w", i, err)
		}
	}
	return nil
}
