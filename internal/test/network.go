// Package test provides the in-memory party network and helpers shared by
// package tests and the CLI demo.
package test

import (
	"context"
	"fmt"

	"github.com/luxfi/eos/pkg/mpc"
	"github.com/luxfi/eos/pkg/party"
)

type envelope struct {
	from  party.ID
	frame []byte
}

// Network connects a set of parties with buffered in-memory mailboxes.
// Frames from one sender arrive in order; across senders no order is
// guaranteed, matching the protocol's assumptions.
type Network struct {
	boxes map[party.ID]chan envelope
}

// NewNetwork returns a network for the given parties.
func NewNetwork(ids party.IDSlice) *Network {
	n := &Network{boxes: make(map[party.ID]chan envelope, len(ids))}
	for _, id := range ids {
		n.boxes[id] = make(chan envelope, 4096)
	}
	return n
}

// Transport returns the transport endpoint for one party.
func (n *Network) Transport(id party.ID) mpc.Transport {
	return &endpoint{net: n, self: id}
}

type endpoint struct {
	net  *Network
	self party.ID
}

func (e *endpoint) Send(ctx context.Context, to party.ID, frame []byte) error {
	box, ok := e.net.boxes[to]
	if !ok {
		return fmt.Errorf("test: unknown party %d", to)
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	select {
	case box <- envelope{from: e.self, frame: out}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *endpoint) Recv(ctx context.Context) (party.ID, []byte, error) {
	select {
	case env := <-e.net.boxes[e.self]:
		return env.from, env.frame, nil
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

// TamperTransport wraps a transport and rewrites outgoing frames, for
// malicious-party tests.
type TamperTransport struct {
	mpc.Transport
	Mutate func(to party.ID, frame []byte) []byte
}

func (t *TamperTransport) Send(ctx context.Context, to party.ID, frame []byte) error {
	return t.Transport.Send(ctx, to, t.Mutate(to, frame))
}
