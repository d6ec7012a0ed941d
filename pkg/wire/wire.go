// Package wire implements the stable binary message format exchanged between
// parties. All integers are big-endian; field and group elements use the
// fixed widths of the BN254 adapter.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/party"
)

// Kind identifies the body layout of a message.
type Kind uint16

const (
	KindShare Kind = iota + 1
	KindCommitment
	KindOpening
	KindAbort
)

// Reason is the stable one-byte code carried by Abort bodies and surfaced in
// reject decisions.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonInsufficient
	ReasonInconsistent
	ReasonDegreeOverflow
	ReasonNotEnoughParties
	ReasonMaliciousShare
	ReasonTimeout
	ReasonDegreeTooLarge
	ReasonCommitmentInvalid
	ReasonIdentityFailed
	ReasonEncoding
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInsufficient:
		return "insufficient"
	case ReasonInconsistent:
		return "inconsistent"
	case ReasonDegreeOverflow:
		return "degree_overflow"
	case ReasonNotEnoughParties:
		return "not_enough_parties"
	case ReasonMaliciousShare:
		return "malicious_share"
	case ReasonTimeout:
		return "timeout"
	case ReasonDegreeTooLarge:
		return "degree_too_large"
	case ReasonCommitmentInvalid:
		return "commitment_invalid"
	case ReasonIdentityFailed:
		return "identity_failed"
	case ReasonEncoding:
		return "encoding_error"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

const (
	headerLen = 15
	frLen     = fr.Bytes
	g1Len     = bn254.SizeOfG1AffineCompressed
)

// ErrEncoding is returned for any malformed frame. Receivers abort the
// session on it.
var ErrEncoding = errors.New("wire: encoding error")

// Message is one frame between two parties: a fixed header and a body whose
// layout depends on Kind. Unused body fields are zero.
type Message struct {
	Kind      Kind
	SharingID uint32
	GateIndex uint32
	Round     uint8
	Sender    party.ID
	Recipient party.ID

	// KindShare and KindOpening
	Point party.ID
	Value fr.Element
	// KindCommitment and KindOpening
	Commitment bn254.G1Affine
	// KindAbort
	Reason Reason
}

func (m *Message) putHeader(buf []byte) {
	binary.BigEndian.PutUint16(buf[0:], uint16(m.Kind))
	binary.BigEndian.PutUint32(buf[2:], m.SharingID)
	binary.BigEndian.PutUint32(buf[6:], m.GateIndex)
	buf[10] = m.Round
	binary.BigEndian.PutUint16(buf[11:], uint16(m.Sender))
	binary.BigEndian.PutUint16(buf[13:], uint16(m.Recipient))
}

// Encode serialises the message to its wire form.
func (m *Message) Encode() ([]byte, error) {
	switch m.Kind {
	case KindShare:
		buf := make([]byte, headerLen+2+frLen)
		m.putHeader(buf)
		binary.BigEndian.PutUint16(buf[headerLen:], uint16(m.Point))
		v := m.Value.Bytes()
		copy(buf[headerLen+2:], v[:])
		return buf, nil
	case KindCommitment:
		buf := make([]byte, headerLen+g1Len)
		m.putHeader(buf)
		c := m.Commitment.Bytes()
		copy(buf[headerLen:], c[:])
		return buf, nil
	case KindOpening:
		buf := make([]byte, headerLen+2+frLen+g1Len)
		m.putHeader(buf)
		binary.BigEndian.PutUint16(buf[headerLen:], uint16(m.Point))
		v := m.Value.Bytes()
		copy(buf[headerLen+2:], v[:])
		c := m.Commitment.Bytes()
		copy(buf[headerLen+2+frLen:], c[:])
		return buf, nil
	case KindAbort:
		buf := make([]byte, headerLen+1)
		m.putHeader(buf)
		buf[headerLen] = uint8(m.Reason)
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrEncoding, m.Kind)
	}
}

// Decode parses a frame. Any length or group-element mismatch yields
// ErrEncoding.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < headerLen {
		return nil, fmt.Errorf("%w: frame too short (%d bytes)", ErrEncoding, len(buf))
	}
	m := &Message{
		Kind:      Kind(binary.BigEndian.Uint16(buf[0:])),
		SharingID: binary.BigEndian.Uint32(buf[2:]),
		GateIndex: binary.BigEndian.Uint32(buf[6:]),
		Round:     buf[10],
		Sender:    party.ID(binary.BigEndian.Uint16(buf[11:])),
		Recipient: party.ID(binary.BigEndian.Uint16(buf[13:])),
	}
	body := buf[headerLen:]
	switch m.Kind {
	case KindShare:
		if len(body) != 2+frLen {
			return nil, fmt.Errorf("%w: share body has %d bytes", ErrEncoding, len(body))
		}
		m.Point = party.ID(binary.BigEndian.Uint16(body))
		m.Value.SetBytes(body[2:])
		return m, nil
	case KindCommitment:
		if len(body) != g1Len {
			return nil, fmt.Errorf("%w: commitment body has %d bytes", ErrEncoding, len(body))
		}
		if _, err := m.Commitment.SetBytes(body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return m, nil
	case KindOpening:
		if len(body) != 2+frLen+g1Len {
			return nil, fmt.Errorf("%w: opening body has %d bytes", ErrEncoding, len(body))
		}
		m.Point = party.ID(binary.BigEndian.Uint16(body))
		m.Value.SetBytes(body[2 : 2+frLen])
		if _, err := m.Commitment.SetBytes(body[2+frLen:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return m, nil
	case KindAbort:
		if len(body) != 1 {
			return nil, fmt.Errorf("%w: abort body has %d bytes", ErrEncoding, len(body))
		}
		m.Reason = Reason(body[0])
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrEncoding, m.Kind)
	}
}
