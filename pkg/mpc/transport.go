package mpc

import (
	"context"

	"github.com/luxfi/eos/pkg/party"
)

// Transport moves frames between parties. Implementations must preserve FIFO
// order per sender-recipient pair; no ordering is assumed across pairs. The
// in-memory implementation lives in internal/test; a network transport only
// needs these two methods.
type Transport interface {
	// Send delivers one frame to the given party.
	Send(ctx context.Context, to party.ID, frame []byte) error
	// Recv blocks for the next inbound frame from any party.
	Recv(ctx context.Context) (from party.ID, frame []byte, err error)
}
