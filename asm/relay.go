// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asm

// Message is one buffered inter-subprotocol message. Ownership transfers from the
// sender to the relay, then to the destination's queue; the message is consumed and
// discarded during delivery within the same block.
type Message struct {
	Dest    SubprotocolID
	Payload []byte
}

// msgRelay buffers messages in global send order for delivery after all process calls
type msgRelay struct {
	queue []Message
}

func newMsgRelay() *msgRelay { return &msgRelay{} }

// Relay implements MsgRelayer
func (r *msgRelay) Relay(dest SubprotocolID, payload []byte) {
	r.queue = append(r.queue, Message{Dest: dest, Payload: payload})
}

// take removes and returns the payloads buffered for the destination, in send order
func (r *msgRelay) take(dest SubprotocolID) [][]byte {
	var taken [][]byte
	rest := r.queue[:0]
	for _, m := range r.queue {
		if m.Dest == dest {
			taken = append(taken, m.Payload)
		} else {
			rest = append(rest, m)
		}
	}
	r.queue = rest
	return taken
}

// pending returns the messages not yet taken. A non-empty remainder after delivery
// means a message was addressed to an unregistered subprotocol.
func (r *msgRelay) pending() []Message { return r.queue }
