// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package aux

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/mmr"
	"github.com/anchorproject/anchor-core/pkg/hash"
)

type verifiedRange struct {
	startBlock uint64
	endBlock   uint64
}

// Verified is the post-verification form of an aux Data bundle. All proofs and
// transaction ids were checked at construction; lookups are pure functions of the
// indexed contents and the value is read-only for the remainder of block processing.
type Verified struct {
	txs        map[chainhash.Hash]*wire.MsgTx
	txByReq    map[uint32]*wire.MsgTx
	leaves     map[uint64]hash.Hash256
	rangeByReq map[uint32]verifiedRange
}

// NewVerified verifies a raw Data bundle against the request envelope and the parent
// anchor state's manifest MMR (root, leaf count and tip height). Every raw transaction
// is decoded and its computed id asserted against the requested id; every manifest leaf
// is checked with its inclusion proof. Any failure surfaces a typed error and the
// enclosing block transition must be rejected wholesale.
func NewVerified(
	env *RequestEnvelope,
	data *Data,
	mmrRoot hash.Hash256,
	leafCount uint64,
	tipHeight uint64,
) (*Verified, error) {
	v := &Verified{
		txs:        make(map[chainhash.Hash]*wire.MsgTx),
		txByReq:    make(map[uint32]*wire.MsgTx),
		leaves:     make(map[uint64]hash.Hash256),
		rangeByReq: make(map[uint32]verifiedRange),
	}

	if len(data.RawTxs) < len(env.TxQueries) {
		return nil, errors.Wrapf(ErrMissingResponse, "want %d raw txs, got %d", len(env.TxQueries), len(data.RawTxs))
	}
	if len(data.RawTxs) > len(env.TxQueries) {
		return nil, errors.Wrapf(ErrSpecMismatch, "%d unrequested raw txs", len(data.RawTxs)-len(env.TxQueries))
	}
	for i, q := range env.TxQueries {
		var msg wire.MsgTx
		if err := msg.Deserialize(bytes.NewReader(data.RawTxs[i])); err != nil {
			return nil, errors.Wrapf(ErrSpecMismatch, "undecodable raw tx for index %d: %v", q.RequesterTxIndex, err)
		}
		if txid := msg.TxHash(); txid != q.Txid {
			return nil, errors.Wrapf(ErrSpecMismatch, "tx id %s != requested %s", txid, q.Txid)
		}
		v.txs[q.Txid] = &msg
		v.txByReq[q.RequesterTxIndex] = &msg
	}

	// height of MMR leaf i is firstLeafHeight + i
	firstLeafHeight := tipHeight - leafCount + 1
	next := 0
	for _, q := range env.LogQueries {
		if q.EndBlock < q.StartBlock {
			return nil, errors.Wrapf(ErrSpecMismatch, "inverted range [%d, %d]", q.StartBlock, q.EndBlock)
		}
		if q.StartBlock < firstLeafHeight || q.EndBlock > tipHeight {
			return nil, errors.Wrapf(ErrSpecMismatch, "range [%d, %d] outside provable [%d, %d]",
				q.StartBlock, q.EndBlock, firstLeafHeight, tipHeight)
		}
		for h := q.StartBlock; h <= q.EndBlock; h++ {
			if next >= len(data.ManifestLeaves) {
				return nil, errors.Wrapf(ErrMissingResponse, "no manifest leaf for height %d", h)
			}
			leaf := data.ManifestLeaves[next]
			next++
			if want := h - firstLeafHeight; leaf.Index != want {
				return nil, errors.Wrapf(ErrSpecMismatch, "leaf index %d, want %d for height %d", leaf.Index, want, h)
			}
			if err := mmr.VerifyProof(mmrRoot, leaf.Leaf, leaf.Index, leafCount, &leaf.Proof); err != nil {
				return nil, errors.Wrapf(ErrInvalidMmrProof, "height %d: %v", h, err)
			}
			v.leaves[h] = leaf.Leaf
		}
		v.rangeByReq[q.RequesterTxIndex] = verifiedRange{startBlock: q.StartBlock, endBlock: q.EndBlock}
	}
	if next != len(data.ManifestLeaves) {
		return nil, errors.Wrapf(ErrSpecMismatch, "%d unrequested manifest leaves", len(data.ManifestLeaves)-next)
	}
	return v, nil
}

// Transaction returns the verified transaction with the given id
func (v *Verified) Transaction(txid chainhash.Hash) (*wire.MsgTx, error) {
	tx, ok := v.txs[txid]
	if !ok {
		return nil, errors.Wrapf(ErrMissingResponse, "tx %s", txid)
	}
	return tx, nil
}

// TransactionForIndex returns the verified transaction requested by the given
// transaction index
func (v *Verified) TransactionForIndex(txIndex uint32) (*wire.MsgTx, error) {
	tx, ok := v.txByReq[txIndex]
	if !ok {
		if _, isRange := v.rangeByReq[txIndex]; isRange {
			return nil, errors.Wrapf(ErrTypeMismatch, "index %d requested a manifest range", txIndex)
		}
		return nil, errors.Wrapf(ErrMissingResponse, "no tx request for index %d", txIndex)
	}
	return tx, nil
}

// ManifestRange returns the verified manifest leaves for [startBlock, endBlock]
func (v *Verified) ManifestRange(startBlock, endBlock uint64) ([]hash.Hash256, error) {
	out := make([]hash.Hash256, 0, endBlock-startBlock+1)
	for h := startBlock; h <= endBlock; h++ {
		leaf, ok := v.leaves[h]
		if !ok {
			return nil, errors.Wrapf(ErrMissingResponse, "manifest leaf for height %d", h)
		}
		out = append(out, leaf)
	}
	return out, nil
}

// ManifestRangeForIndex returns the verified leaves requested by the given transaction index
func (v *Verified) ManifestRangeForIndex(txIndex uint32) ([]hash.Hash256, error) {
	r, ok := v.rangeByReq[txIndex]
	if !ok {
		if _, isTx := v.txByReq[txIndex]; isTx {
			return nil, errors.Wrapf(ErrTypeMismatch, "index %d requested a transaction", txIndex)
		}
		return nil, errors.Wrapf(ErrMissingResponse, "no range request for index %d", txIndex)
	}
	return v.ManifestRange(r.startBlock, r.endBlock)
}
