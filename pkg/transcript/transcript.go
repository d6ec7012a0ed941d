// Package transcript implements the session-scoped Fiat-Shamir transcript.
//
// A transcript is an append-only log of (tag, bytes) records. Challenges are
// derived from the log in a fixed order; two transcripts with identical logs
// yield identical challenges. The transcript is passed explicitly to the
// commitment and consistency layers so tests can construct adversarial ones.
package transcript

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Challenge identifiers, in derivation order.
const (
	ChallengeRho   = "rho"   // PIOP evaluation point
	ChallengeGamma = "gamma" // batched-opening folding factor
)

var errChallengeOrder = errors.New("transcript: challenges must be derived in order")

// Transcript accumulates protocol messages and produces field challenges.
type Transcript struct {
	fs      *fiatshamir.Transcript
	order   []string
	next    int
	digest  *blake3.Hasher
	records int
}

// New returns an empty transcript domain-separated by label.
func New(label string) *Transcript {
	t := &Transcript{
		fs:     fiatshamir.NewTranscript(sha3.New256(), ChallengeRho, ChallengeGamma),
		order:  []string{ChallengeRho, ChallengeGamma},
		digest: blake3.New(),
	}
	_, _ = t.digest.Write([]byte(label))
	return t
}

// Append adds a (tag, data) record to the log. Records appended after a
// challenge has been derived feed the following challenge.
func (t *Transcript) Append(tag string, data []byte) error {
	if t.next >= len(t.order) {
		return fmt.Errorf("transcript: append %q after final challenge", tag)
	}
	if err := t.fs.Bind(t.order[t.next], data); err != nil {
		return fmt.Errorf("transcript: bind %q: %w", tag, err)
	}
	_, _ = t.digest.Write([]byte(tag))
	_, _ = t.digest.Write(data)
	t.records++
	return nil
}

// Challenge derives the named challenge as a field element. Challenges must be
// requested in registration order; each derivation folds the previous one in.
func (t *Transcript) Challenge(name string) (fr.Element, error) {
	var c fr.Element
	if t.next >= len(t.order) || t.order[t.next] != name {
		return c, errChallengeOrder
	}
	b, err := t.fs.ComputeChallenge(name)
	if err != nil {
		return c, fmt.Errorf("transcript: challenge %q: %w", name, err)
	}
	t.next++
	_, _ = t.digest.Write([]byte(name))
	_, _ = t.digest.Write(b)
	c.SetBytes(b)
	return c, nil
}

// Sum returns a digest of everything appended and derived so far. Equal logs
// give equal digests.
func (t *Transcript) Sum() []byte {
	return t.digest.Sum(nil)
}

// Len returns the number of appended records.
func (t *Transcript) Len() int { return t.records }
