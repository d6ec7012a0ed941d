package mpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/luxfi/eos/pkg/party"
	"github.com/luxfi/eos/pkg/wire"
)

// msgKey orders buffered messages. Arbitrary interleaving across party pairs
// is tolerated by keying every frame on this triple.
type msgKey struct {
	sharingID uint32
	gateIndex uint32
	round     uint8
}

// inbox buffers inbound frames per key and sender until a round has received
// everything it expects.
type inbox struct {
	self   party.ID
	n      int
	tr     Transport
	queues map[msgKey]map[party.ID][]*wire.Message
}

func newInbox(self party.ID, n int, tr Transport) *inbox {
	return &inbox{self: self, n: n, tr: tr, queues: make(map[msgKey]map[party.ID][]*wire.Message)}
}

func (in *inbox) store(k msgKey, m *wire.Message) {
	q := in.queues[k]
	if q == nil {
		q = make(map[party.ID][]*wire.Message)
		in.queues[k] = q
	}
	q[m.Sender] = append(q[m.Sender], m)
}

// collect blocks until perSender frames of the given kind have arrived from
// every listed sender for key k. Frames for other keys are buffered for their
// own rounds. Abort frames terminate the session immediately.
func (in *inbox) collect(ctx context.Context, k msgKey, senders party.IDSlice, perSender int, kind wire.Kind) (map[party.ID][]*wire.Message, error) {
	want := bitset.New(uint(len(senders)))
	complete := func() bool {
		q := in.queues[k]
		for i, id := range senders {
			if len(q[id]) >= perSender {
				want.Set(uint(i))
			}
		}
		return want.Count() == uint(len(senders))
	}

	for !complete() {
		from, frame, err := in.tr.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, &TimeoutError{Gate: k.gateIndex, Peer: in.firstMissing(k, senders, perSender)}
			}
			return nil, fmt.Errorf("mpc: transport: %w", err)
		}
		m, err := wire.Decode(frame)
		if err != nil {
			return nil, err
		}
		if m.Sender != from || m.Sender < 1 || int(m.Sender) > in.n {
			return nil, &MaliciousShareError{Party: from}
		}
		if m.Recipient != in.self {
			return nil, &MaliciousShareError{Party: from}
		}
		if m.Kind == wire.KindAbort {
			return nil, &AbortError{From: m.Sender, Reason: m.Reason}
		}
		in.store(msgKey{m.SharingID, m.GateIndex, m.Round}, m)
	}

	q := in.queues[k]
	out := make(map[party.ID][]*wire.Message, len(senders))
	for _, id := range senders {
		msgs := q[id]
		for _, m := range msgs[:perSender] {
			if m.Kind != kind {
				return nil, &MaliciousShareError{Party: id}
			}
		}
		out[id] = msgs[:perSender]
		q[id] = msgs[perSender:]
	}
	return out, nil
}

func (in *inbox) firstMissing(k msgKey, senders party.IDSlice, perSender int) party.ID {
	q := in.queues[k]
	for _, id := range senders {
		if len(q[id]) < perSender {
			return id
		}
	}
	return 0
}

// drop discards all buffered state. Called on abort so partial results cannot
// leak.
func (in *inbox) drop() {
	in.queues = make(map[msgKey]map[party.ID][]*wire.Message)
}
