// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package store

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/asm"
	aux "github.com/anchorproject/anchor-core/asm/auxiliary"
	"github.com/anchorproject/anchor-core/mmr"
)

// TxSource fetches raw Bitcoin transactions, typically from a node RPC. Implementations
// may be slow or transiently unavailable; the fulfiller retries around them.
type TxSource interface {
	RawTransaction(ctx context.Context, txid chainhash.Hash) ([]byte, error)
}

// LocalFulfiller answers aux request envelopes from the local anchor store (manifest
// leaves and their proofs) and a TxSource (raw transactions). It serves the parent
// state's accumulator: fulfillment for block N runs after block N-1 was committed.
type LocalFulfiller struct {
	store *AnchorStore
	txs   TxSource
}

// NewLocalFulfiller creates a fulfiller over the store and transaction source
func NewLocalFulfiller(store *AnchorStore, txs TxSource) *LocalFulfiller {
	return &LocalFulfiller{store: store, txs: txs}
}

// Fulfill assembles one complete response bundle for the envelope. Fetching may be
// retried internally, but the engine sees a single synchronous call.
func (f *LocalFulfiller) Fulfill(ctx context.Context, env *aux.RequestEnvelope) (*aux.Data, error) {
	data := &aux.Data{}
	if len(env.LogQueries) > 0 {
		c, state, ok, err := f.store.GetLatest()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("no anchor state committed yet")
		}
		count := state.ManifestLeafCount()
		leaves, err := f.store.ManifestLeaves(count)
		if err != nil {
			return nil, err
		}
		firstLeafHeight := c.Height - count + 1
		for _, q := range env.LogQueries {
			if q.StartBlock < firstLeafHeight || q.EndBlock > c.Height || q.EndBlock < q.StartBlock {
				return nil, errors.Errorf("unservable manifest range [%d, %d]", q.StartBlock, q.EndBlock)
			}
			for h := q.StartBlock; h <= q.EndBlock; h++ {
				index := h - firstLeafHeight
				proof, err := mmr.GenProof(leaves, index)
				if err != nil {
					return nil, err
				}
				data.ManifestLeaves = append(data.ManifestLeaves, aux.LeafProof{
					Leaf:  leaves[index],
					Index: index,
					Proof: *proof,
				})
			}
		}
	}

	for _, q := range env.TxQueries {
		raw, err := f.fetchRawTx(ctx, q.Txid)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch tx %s", q.Txid)
		}
		data.RawTxs = append(data.RawTxs, raw)
	}
	return data, nil
}

func (f *LocalFulfiller) fetchRawTx(ctx context.Context, txid chainhash.Hash) ([]byte, error) {
	var raw []byte
	op := func() error {
		b, err := f.txs.RawTransaction(ctx, txid)
		if err != nil {
			return err
		}
		raw = b
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		return nil, err
	}
	return raw, nil
}

var _ asm.Fulfiller = (*LocalFulfiller)(nil)
