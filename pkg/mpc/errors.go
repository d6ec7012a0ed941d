package mpc

import (
	"errors"
	"fmt"

	"github.com/luxfi/eos/pkg/party"
	"github.com/luxfi/eos/pkg/wire"
)

var (
	// ErrNotEnoughParties is returned when n < 2t−1, so multiplication's
	// degree reduction cannot run.
	ErrNotEnoughParties = errors.New("mpc: not enough parties for degree reduction")
	// ErrAborted is wrapped by AbortError.
	ErrAborted = errors.New("mpc: session aborted")
)

// MaliciousShareError reports a party whose share failed verification. The
// gate is aborted and all session state dropped.
type MaliciousShareError struct {
	Party party.ID
}

func (e *MaliciousShareError) Error() string {
	return fmt.Sprintf("mpc: malicious share from party %d", e.Party)
}

// TimeoutError reports an expired gate-round deadline. The protocol never
// retries silently; retrying is the driver's decision.
type TimeoutError struct {
	Gate uint32
	Peer party.ID
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("mpc: timeout at gate %d waiting for party %d", e.Gate, e.Peer)
}

// AbortError reports an Abort broadcast received from another party. A party
// that sends an Abort returns its own local error instead.
type AbortError struct {
	From   party.ID
	Reason wire.Reason
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("mpc: abort from party %d: %s", e.From, e.Reason)
}

func (e *AbortError) Unwrap() error { return ErrAborted }
