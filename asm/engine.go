// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asm

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	aux "github.com/anchorproject/anchor-core/asm/auxiliary"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/mmr"
	"github.com/anchorproject/anchor-core/pkg/log"
)

var (
	// ErrSubprotocolDefect indicates a programming error inside a subprotocol or an
	// inconsistency between the registry and the chain's history. It is not a
	// recoverable runtime condition: the operator must treat it as fatal, because
	// recovering would silently fork consensus.
	ErrSubprotocolDefect = errors.New("subprotocol defect")
	// ErrAuxFetch indicates the external fulfiller failed to produce a bundle. Unlike a
	// verification failure this is a scheduling condition, not a protocol fault.
	ErrAuxFetch = errors.New("aux data fetch failed")
)

// Engine owns the ordered subprotocol registry and computes anchor state transitions,
// one L1 block at a time. The transition itself is single-threaded and strictly
// sequential; an Engine must not be used for more than one block concurrently.
type Engine struct {
	magic     l1.Magic
	registry  *Registry
	fulfiller Fulfiller
}

// NewEngine creates an engine over the given registry. The fulfiller is consulted only
// for blocks whose subprotocols request auxiliary data.
func NewEngine(magic l1.Magic, registry *Registry, fulfiller Fulfiller) *Engine {
	return &Engine{magic: magic, registry: registry, fulfiller: fulfiller}
}

// GenesisState builds the anchor state anchored at the configured genesis block, with
// every registered subprotocol's section initialized from its params.
func (e *Engine) GenesisState(genesisView ChainView) (*AnchorState, error) {
	sections := make(map[SubprotocolID][]byte, e.registry.Size())
	for _, h := range e.registry.Handlers() {
		sec, err := h.InitSection()
		if err != nil {
			return nil, errors.Wrapf(ErrSubprotocolDefect, "genesis section of subprotocol %d: %v", h.ID(), err)
		}
		sections[h.ID()] = sec
	}
	return NewAnchorState(genesisView, &mmr.Accumulator{}, sections), nil
}

// ProcessBlock computes the state transition for one block on top of the parent state.
// The parent state is never mutated; on any error no new state exists. Aux verification
// errors reject the block before any subprotocol section is replaced, and subprotocol
// errors surface as ErrSubprotocolDefect.
func (e *Engine) ProcessBlock(
	ctx context.Context,
	prev *AnchorState,
	block *btcutil.Block,
) (*AnchorState, *manifest.Manifest, error) {
	view, err := prev.View().Advance(block)
	if err != nil {
		_blockTransitionMtc.WithLabelValues("rejected_linkage").Inc()
		return nil, nil, err
	}

	handlers := e.registry.Handlers()
	if err := e.loadSections(prev, handlers); err != nil {
		_blockTransitionMtc.WithLabelValues("defect").Inc()
		return nil, nil, err
	}

	groups := l1.GroupTagged(block, e.magic)

	// phase 1: collect aux requests
	collector := aux.NewCollector()
	for _, h := range handlers {
		if err := h.PreProcess(groups[h.ID()], collector, view); err != nil {
			_blockTransitionMtc.WithLabelValues("defect").Inc()
			return nil, nil, errors.Wrapf(ErrSubprotocolDefect, "pre-process of subprotocol %d: %v", h.ID(), err)
		}
	}

	verified, err := e.fetchAndVerify(ctx, collector, prev)
	if err != nil {
		return nil, nil, err
	}

	// phase 2: process transactions in registry order
	relay := newMsgRelay()
	logsByID := make(map[SubprotocolID][]manifest.LogEntry, len(handlers))
	for _, h := range handlers {
		entries, err := h.Process(groups[h.ID()], view, verified, relay)
		if err != nil {
			_blockTransitionMtc.WithLabelValues("defect").Inc()
			return nil, nil, errors.Wrapf(ErrSubprotocolDefect, "process of subprotocol %d: %v", h.ID(), err)
		}
		logsByID[h.ID()] = entries
	}

	// deliver buffered messages within the same block, before manifest finalization
	for _, h := range handlers {
		payloads := relay.take(h.ID())
		if len(payloads) == 0 {
			continue
		}
		entries, err := h.DeliverMsgs(payloads)
		if err != nil {
			_blockTransitionMtc.WithLabelValues("defect").Inc()
			return nil, nil, errors.Wrapf(ErrSubprotocolDefect, "message delivery to subprotocol %d: %v", h.ID(), err)
		}
		logsByID[h.ID()] = append(logsByID[h.ID()], entries...)
	}
	if pending := relay.pending(); len(pending) > 0 {
		_blockTransitionMtc.WithLabelValues("defect").Inc()
		return nil, nil, errors.Wrapf(ErrSubprotocolDefect,
			"message addressed to unregistered subprotocol %d", pending[0].Dest)
	}

	// collect updated sections
	sections := make(map[SubprotocolID][]byte, len(handlers))
	for _, h := range handlers {
		sec, err := h.Section()
		if err != nil {
			_blockTransitionMtc.WithLabelValues("defect").Inc()
			return nil, nil, errors.Wrapf(ErrSubprotocolDefect, "section of subprotocol %d: %v", h.ID(), err)
		}
		sections[h.ID()] = sec
	}

	// finalize the manifest: logs concatenate in registry order, sources stamped by the
	// engine so a subprotocol cannot attribute an entry to another
	var logs []manifest.LogEntry
	for _, h := range handlers {
		for _, entry := range logsByID[h.ID()] {
			entry.Source = h.ID()
			logs = append(logs, entry)
		}
	}
	m := manifest.New(*block.Hash(), l1.CalcWitnessMerkleRoot(block), logs)

	acc := prev.ManifestMMR()
	acc.AddLeaf(m.Hash())
	next := NewAnchorState(view, acc, sections)

	_blockTransitionMtc.WithLabelValues("success").Inc()
	log.L().Debug("Processed anchor block.",
		zap.Uint64("height", view.Height),
		zap.String("block", view.BlockID.String()),
		zap.Int("logs", len(logs)))
	return next, m, nil
}

// loadSections checks the registry/state consistency invariant and decodes every
// handler's section. The set of ids in the state must equal the registry exactly.
func (e *Engine) loadSections(prev *AnchorState, handlers []Handler) error {
	if len(prev.SubprotocolIDs()) != len(handlers) {
		return errors.Wrapf(ErrSubprotocolDefect,
			"state has %d sections, registry has %d", len(prev.SubprotocolIDs()), len(handlers))
	}
	for _, h := range handlers {
		sec, ok := prev.Section(h.ID())
		if !ok {
			return errors.Wrapf(ErrSubprotocolDefect, "state has no section for subprotocol %d", h.ID())
		}
		if err := h.LoadSection(sec); err != nil {
			return errors.Wrapf(ErrSubprotocolDefect, "load section of subprotocol %d: %v", h.ID(), err)
		}
	}
	return nil
}

// fetchAndVerify hands the collected requests to the fulfiller and verifies the bundle
// against the parent state's manifest MMR
func (e *Engine) fetchAndVerify(ctx context.Context, collector *aux.Collector, prev *AnchorState) (*aux.Verified, error) {
	env := collector.IntoEnvelope()
	data := &aux.Data{}
	if !env.Empty() {
		if e.fulfiller == nil {
			return nil, errors.Wrap(ErrAuxFetch, "no fulfiller configured")
		}
		_auxRequestMtc.Add(float64(collector.Size()))
		fetched, err := e.fulfiller.Fulfill(ctx, env)
		if err != nil {
			_blockTransitionMtc.WithLabelValues("aux_fetch_failed").Inc()
			return nil, errors.Wrap(ErrAuxFetch, err.Error())
		}
		data = fetched
	}
	verified, err := aux.NewVerified(env, data, prev.ManifestRoot(), prev.ManifestLeafCount(), prev.View().Height)
	if err != nil {
		_blockTransitionMtc.WithLabelValues("rejected_aux").Inc()
		return nil, err
	}
	return verified, nil
}
