// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asm

import (
	"github.com/pkg/errors"

	aux "github.com/anchorproject/anchor-core/asm/auxiliary"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/l1"
)

// Handler is the uniform dispatch surface over a concrete subprotocol. It erases the
// subprotocol's associated types so the engine can hold one homogeneous, ordered list
// of handlers and drive them over serialized byte sections and message payloads.
//
// A handler carries the decoded state of the block currently being processed between
// LoadSection and Section. The engine drives handlers strictly sequentially; a handler
// is not safe for concurrent use.
type Handler interface {
	// ID returns the wrapped subprotocol's id
	ID() SubprotocolID
	// InitSection produces the genesis section from the params fixed at construction
	InitSection() ([]byte, error)
	// LoadSection decodes the subprotocol's section of the parent anchor state
	LoadSection(section []byte) error
	// PreProcess runs the wrapped subprotocol's pre-process phase
	PreProcess(txs []l1.TaggedTx, collector *aux.Collector, view ChainView) error
	// Process runs the wrapped subprotocol's process phase
	Process(txs []l1.TaggedTx, view ChainView, verified *aux.Verified, relayer MsgRelayer) ([]manifest.LogEntry, error)
	// DeliverMsgs decodes and delivers the buffered message payloads
	DeliverMsgs(payloads [][]byte) ([]manifest.LogEntry, error)
	// Section encodes the updated state back into an opaque section
	Section() ([]byte, error)
}

type handler[S, M, A, P any] struct {
	sp     Subprotocol[S, M, A, P]
	params P
	state  S
	loaded bool
}

// NewHandler wraps a concrete subprotocol and its chain-configuration params into the
// type-erased dispatch surface
func NewHandler[S, M, A, P any](sp Subprotocol[S, M, A, P], params P) Handler {
	return &handler[S, M, A, P]{sp: sp, params: params}
}

func (h *handler[S, M, A, P]) ID() SubprotocolID { return h.sp.ID() }

func (h *handler[S, M, A, P]) InitSection() ([]byte, error) {
	state, err := h.sp.Init(h.params)
	if err != nil {
		return nil, errors.Wrapf(err, "init subprotocol %d", h.sp.ID())
	}
	return h.sp.EncodeState(&state)
}

func (h *handler[S, M, A, P]) LoadSection(section []byte) error {
	state, err := h.sp.DecodeState(section)
	if err != nil {
		return errors.Wrapf(err, "decode section of subprotocol %d", h.sp.ID())
	}
	h.state = state
	h.loaded = true
	return nil
}

func (h *handler[S, M, A, P]) PreProcess(txs []l1.TaggedTx, collector *aux.Collector, view ChainView) error {
	if !h.loaded {
		return errors.Errorf("subprotocol %d has no loaded section", h.sp.ID())
	}
	return h.sp.PreProcessTxs(&h.state, txs, collector, view)
}

func (h *handler[S, M, A, P]) Process(
	txs []l1.TaggedTx,
	view ChainView,
	verified *aux.Verified,
	relayer MsgRelayer,
) ([]manifest.LogEntry, error) {
	auxInput, err := h.sp.BuildAuxInput(verified, txs)
	if err != nil {
		return nil, errors.Wrapf(err, "build aux input for subprotocol %d", h.sp.ID())
	}
	return h.sp.ProcessTxs(&h.state, txs, view, auxInput, relayer)
}

func (h *handler[S, M, A, P]) DeliverMsgs(payloads [][]byte) ([]manifest.LogEntry, error) {
	msgs := make([]M, 0, len(payloads))
	for _, p := range payloads {
		msg, err := h.sp.DecodeMsg(p)
		if err != nil {
			return nil, errors.Wrapf(err, "decode message for subprotocol %d", h.sp.ID())
		}
		msgs = append(msgs, msg)
	}
	return h.sp.ProcessMsgs(&h.state, msgs)
}

func (h *handler[S, M, A, P]) Section() ([]byte, error) {
	if !h.loaded {
		return nil, errors.Errorf("subprotocol %d has no loaded section", h.sp.ID())
	}
	return h.sp.EncodeState(&h.state)
}
