// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asm

import (
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

var (
	// ErrBlockLinkage indicates a block that does not extend the current chain view
	ErrBlockLinkage = errors.New("block does not extend the chain view")
	// ErrInsufficientWork indicates a block hash that does not meet its own target
	ErrInsufficientWork = errors.New("block hash does not meet the claimed target")
)

// ChainView is the engine's summary of the validated L1 header chain: the height and id
// of the last verified block and the cumulative proof of work. It is used to validate
// the next block's parent linkage and difficulty.
type ChainView struct {
	Height    uint64
	BlockID   chainhash.Hash
	TotalWork *big.Int
}

// NewChainView returns a chain view anchored at the given block
func NewChainView(height uint64, blockID chainhash.Hash, totalWork *big.Int) ChainView {
	if totalWork == nil {
		totalWork = new(big.Int)
	}
	return ChainView{Height: height, BlockID: blockID, TotalWork: totalWork}
}

// Advance validates that the block extends this view and returns the advanced view.
// The receiver is not modified.
func (v ChainView) Advance(block *btcutil.Block) (ChainView, error) {
	header := block.MsgBlock().Header
	if header.PrevBlock != v.BlockID {
		return ChainView{}, errors.Wrapf(ErrBlockLinkage,
			"parent %s != tip %s", header.PrevBlock, v.BlockID)
	}
	blockID := *block.Hash()
	if blockchain.HashToBig(&blockID).Cmp(blockchain.CompactToBig(header.Bits)) > 0 {
		return ChainView{}, errors.Wrapf(ErrInsufficientWork, "block %s", blockID)
	}
	return ChainView{
		Height:    v.Height + 1,
		BlockID:   blockID,
		TotalWork: new(big.Int).Add(v.TotalWork, blockchain.CalcWork(header.Bits)),
	}, nil
}
