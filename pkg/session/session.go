// Package session holds the enumerated parameters of a delegation session and
// the per-session randomness plumbing. Every party derives an independent RNG
// from the session seed; sharing IDs come from a session-scoped counter.
package session

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/zeebo/blake3"

	"github.com/luxfi/eos/pkg/party"
	"github.com/luxfi/eos/pkg/sharing"
)

// Mode selects how multiplication gates schedule their messages. The circuit
// semantics are identical in both modes.
type Mode uint8

const (
	// Isolation communicates only at multiplication gates.
	Isolation Mode = iota + 1
	// Collaboration preprocesses Beaver triples so online multiplications
	// need only two openings.
	Collaboration
)

func (m Mode) String() string {
	switch m {
	case Isolation:
		return "isolation"
	case Collaboration:
		return "collaboration"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

const (
	rngContext = "github.com/luxfi/eos session party rng v1"
	idContext  = "github.com/luxfi/eos session id v1"
)

// Params are the enumerated session parameters.
type Params struct {
	N            int
	T            int
	Scheme       sharing.Scheme
	Mode         Mode
	SecurityBits int
	MaxDegree    int
}

// Validate checks the documented parameter ranges.
func (p *Params) Validate() error {
	if p.N < 2 || p.N > 1024 {
		return fmt.Errorf("session: party count %d outside [2, 1024]", p.N)
	}
	if p.T < 1 || p.T > (p.N+1)/2 {
		return fmt.Errorf("session: threshold %d outside [1, %d]", p.T, (p.N+1)/2)
	}
	switch p.Scheme {
	case sharing.Shamir, sharing.Additive:
	default:
		return fmt.Errorf("session: unknown scheme %v", p.Scheme)
	}
	switch p.Mode {
	case Isolation, Collaboration:
	default:
		return fmt.Errorf("session: unknown mode %v", p.Mode)
	}
	switch p.SecurityBits {
	case 64, 128, 256:
	default:
		return fmt.Errorf("session: security bits %d not in {64, 128, 256}", p.SecurityBits)
	}
	if p.MaxDegree < 1 {
		return fmt.Errorf("session: max degree %d too small", p.MaxDegree)
	}
	return nil
}

// Session is the shared context of one delegation run.
type Session struct {
	Params
	ID []byte

	seed        []byte
	nextSharing atomic.Uint32
}

// New derives a session from validated parameters and a caller seed. The same
// seed and parameters produce an identical session, which the driver's
// determinism contract relies on.
func New(p Params, seed []byte) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(seed) == 0 {
		return nil, fmt.Errorf("session: empty seed")
	}
	id := make([]byte, 32)
	blake3.DeriveKey(idContext, seed, id)
	s := &Session{Params: p, ID: id, seed: append([]byte(nil), seed...)}
	return s, nil
}

// NextSharingID returns a fresh sharing identifier.
func (s *Session) NextSharingID() uint32 {
	return s.nextSharing.Add(1)
}

// PartyRNG returns an unbounded deterministic randomness stream for one
// party. Streams for distinct parties are independent; seeding all parties
// from one stream would break privacy.
func (s *Session) PartyRNG(id party.ID) io.Reader {
	material := make([]byte, len(s.seed)+2)
	copy(material, s.seed)
	binary.BigEndian.PutUint16(material[len(s.seed):], uint16(id))
	var key [32]byte
	blake3.DeriveKey(rngContext, material, key[:])
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic(err)
	}
	_, _ = h.Write(s.ID)
	return h.Digest()
}
