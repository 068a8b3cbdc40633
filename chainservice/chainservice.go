// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package chainservice assembles the anchor state machine from configuration: the KV
// store, the anchor store, the subprotocol registry and the engine. It is the handle
// the block-ingestion worker and the CLI drive.
package chainservice

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anchorproject/anchor-core/asm"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/config"
	"github.com/anchorproject/anchor-core/db"
	"github.com/anchorproject/anchor-core/pkg/lifecycle"
	"github.com/anchorproject/anchor-core/pkg/log"
	"github.com/anchorproject/anchor-core/store"
	"github.com/anchorproject/anchor-core/subprotocols/admin"
	"github.com/anchorproject/anchor-core/subprotocols/bridge"
	"github.com/anchorproject/anchor-core/subprotocols/checkpoint"
	"github.com/anchorproject/anchor-core/subprotocols/debug"
)

// ErrNoGenesis indicates the store holds no anchor state yet
var ErrNoGenesis = errors.New("anchor store is not initialized")

// ChainService wires the anchor state machine's components together
type ChainService struct {
	cfg      config.Config
	kv       db.KVStore
	store    *store.AnchorStore
	registry *asm.Registry
	engine   *asm.Engine
	lc       lifecycle.Lifecycle
}

// Option customizes the chain service assembly
type Option func(*options)

type options struct {
	kv          db.KVStore
	txSource    store.TxSource
	enableDebug bool
}

// WithKVStore overrides the bolt KV store, e.g. with an in-memory store for tests
func WithKVStore(kv db.KVStore) Option {
	return func(o *options) { o.kv = kv }
}

// WithTxSource supplies the raw-transaction source backing the local aux fulfiller
func WithTxSource(txs store.TxSource) Option {
	return func(o *options) { o.txSource = txs }
}

// WithDebugSubprotocol registers the debug subprotocol after the production set
func WithDebugSubprotocol() Option {
	return func(o *options) { o.enableDebug = true }
}

// NewRegistry builds the production subprotocol registry in its fixed declaration
// order. The order is consensus-critical and must never change across releases.
func NewRegistry(chain config.Chain, enableDebug bool) *asm.Registry {
	reg := asm.NewRegistry()
	reg.MustRegister(checkpoint.NewHandler(chain.Checkpoint))
	reg.MustRegister(bridge.NewHandler(chain.Bridge))
	reg.MustRegister(admin.NewHandler(chain.Admin))
	if enableDebug {
		reg.MustRegister(debug.NewHandler())
	}
	return reg
}

// New assembles a chain service from the config
func New(cfg config.Config, opts ...Option) (*ChainService, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	magic, err := cfg.Chain.Magic()
	if err != nil {
		return nil, err
	}
	kv := o.kv
	if kv == nil {
		kv = db.NewBoltDB(cfg.DB)
	}
	anchorStore := store.NewAnchorStore(kv)
	registry := NewRegistry(cfg.Chain, o.enableDebug)

	var fulfiller asm.Fulfiller
	if o.txSource != nil {
		fulfiller = store.NewLocalFulfiller(anchorStore, o.txSource)
	}

	cs := &ChainService{
		cfg:      cfg,
		kv:       kv,
		store:    anchorStore,
		registry: registry,
		engine:   asm.NewEngine(magic, registry, fulfiller),
	}
	cs.lc.Add(kv)
	return cs, nil
}

// Start starts the underlying components
func (cs *ChainService) Start(ctx context.Context) error {
	return errors.Wrap(cs.lc.OnStart(ctx), "failed to start chain service")
}

// Stop stops the underlying components
func (cs *ChainService) Stop(ctx context.Context) error {
	return errors.Wrap(cs.lc.OnStop(ctx), "failed to stop chain service")
}

// Store returns the anchor store
func (cs *ChainService) Store() *store.AnchorStore { return cs.store }

// Engine returns the state transition engine
func (cs *ChainService) Engine() *asm.Engine { return cs.engine }

// InitGenesis writes the genesis anchor state unless the store already holds one
func (cs *ChainService) InitGenesis() (*asm.AnchorState, error) {
	if _, _, ok, err := cs.store.GetLatest(); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.New("anchor store is already initialized")
	}
	view, err := cs.cfg.Chain.GenesisView()
	if err != nil {
		return nil, err
	}
	state, err := cs.engine.GenesisState(view)
	if err != nil {
		return nil, err
	}
	if err := cs.store.PutGenesis(state); err != nil {
		return nil, err
	}
	log.L().Info("Initialized anchor genesis state.",
		zap.Uint64("height", view.Height),
		zap.String("block", view.BlockID.String()))
	return state, nil
}

// AdvanceBlock computes and commits the transition for the next L1 block on top of the
// latest committed state. Writes for a given child block must be serialized by the
// caller; the transition itself either fully applies or is rejected.
func (cs *ChainService) AdvanceBlock(ctx context.Context, block *btcutil.Block) (*asm.AnchorState, *manifest.Manifest, error) {
	_, prev, ok, err := cs.store.GetLatest()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNoGenesis
	}
	state, m, err := cs.engine.ProcessBlock(ctx, prev, block)
	if err != nil {
		return nil, nil, err
	}
	if err := cs.store.PutTransition(state, m); err != nil {
		return nil, nil, err
	}
	return state, m, nil
}
