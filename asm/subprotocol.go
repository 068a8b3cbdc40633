// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package asm implements the anchor state machine: a deterministic engine that ingests
// Bitcoin L1 blocks and transitions a composite protocol state by dispatching tagged
// transactions to a fixed, ordered set of pluggable subprotocols.
package asm

import (
	"context"

	aux "github.com/anchorproject/anchor-core/asm/auxiliary"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/l1"
)

// SubprotocolID identifies a registered subprotocol
type SubprotocolID = l1.SubprotocolID

// MsgRelayer buffers inter-subprotocol messages during the process phase. Messages are
// delivered to their destinations after every subprotocol has processed its
// transactions, within the same block; a subprotocol never observes a message (its own
// included) before that delivery step.
type MsgRelayer interface {
	// Relay enqueues a message for the destination subprotocol
	Relay(dest SubprotocolID, payload []byte)
}

// Subprotocol is the plug-in contract of an isolated unit of protocol logic. A
// subprotocol owns its state S, its message type M, its auxiliary input A and its
// genesis params P; the engine never sees those types, only the byte sections and
// payloads its codec methods produce.
//
// All five processing operations must be total over well-formed, already-tag-parsed
// input and must not perform I/O, suspend or observe wall-clock time: external effects
// are expressed as aux requests or relayed messages resolved by the engine.
type Subprotocol[S, M, A, P any] interface {
	// ID returns the stable subprotocol id
	ID() SubprotocolID

	// Init builds the genesis state from the chain-configuration params
	Init(params P) (S, error)

	// PreProcessTxs inspects the subprotocol's transaction group and registers any
	// out-of-band data requests with the collector, keyed by in-block tx index
	PreProcessTxs(state *S, txs []l1.TaggedTx, collector *aux.Collector, view ChainView) error

	// BuildAuxInput assembles the subprotocol's typed aux input from the verified bundle
	BuildAuxInput(verified *aux.Verified, txs []l1.TaggedTx) (A, error)

	// ProcessTxs applies the transaction group to the state, emitting log entries and
	// optionally relaying messages to other subprotocols
	ProcessTxs(state *S, txs []l1.TaggedTx, view ChainView, auxInput A, relayer MsgRelayer) ([]manifest.LogEntry, error)

	// ProcessMsgs consumes the messages buffered for this subprotocol this block
	ProcessMsgs(state *S, msgs []M) ([]manifest.LogEntry, error)

	// EncodeState produces the canonical byte section for the state
	EncodeState(state *S) ([]byte, error)

	// DecodeState parses a byte section produced by EncodeState
	DecodeState(section []byte) (S, error)

	// DecodeMsg parses a relayed message payload addressed to this subprotocol
	DecodeMsg(payload []byte) (M, error)
}

// Fulfiller is the boundary to the external auxiliary-data fetch layer. From the
// engine's point of view this is a synchronous request/response contract: the pipeline
// waits until one complete bundle exists. Retries and concurrent fetching belong
// entirely to the implementation behind this interface.
type Fulfiller interface {
	Fulfill(ctx context.Context, env *aux.RequestEnvelope) (*aux.Data, error)
}
