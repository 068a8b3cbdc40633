// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package testutil provides helpers for crafting Bitcoin blocks and tagged
// transactions in tests.
package testutil

import (
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/pkg/log"
)

// EasyBits encodes a target of 2^256, which every block hash meets. Crafted test
// blocks carry it so they pass the work check without grinding a nonce.
const EasyBits = 0x22000100

// TestMagic is the instance magic used throughout the tests
var TestMagic = l1.Magic{'T', 'E', 'S', 'T'}

// NewCoinbaseTx returns a minimal coinbase transaction for the given height
func NewCoinbaseTx(height uint64) *wire.MsgTx {
	script, err := txscript.NewScriptBuilder().AddInt64(int64(height)).Script()
	if err != nil {
		log.L().Panic("Error when building coinbase script.", zap.Error(err))
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
		SignatureScript:  script,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(50_0000_0000, []byte{txscript.OP_TRUE}))
	return tx
}

// NewTaggedTx returns a transaction whose first output carries a tag for the given
// subprotocol, followed by any extra outputs.
func NewTaggedTx(magic l1.Magic, id l1.SubprotocolID, txType uint8, aux []byte, extraOuts ...*wire.TxOut) *wire.MsgTx {
	script, err := l1.BuildTagScript(magic, id, txType, aux)
	if err != nil {
		log.L().Panic("Error when building tag script.", zap.Error(err))
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{1}, 0),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(0, script))
	for _, out := range extraOuts {
		tx.AddTxOut(out)
	}
	return tx
}

// NewPlainTx returns an untagged transaction with a single pay-anyone output
func NewPlainTx(seed byte) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{seed}, 0),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(int64(seed), []byte{txscript.OP_TRUE}))
	return tx
}

// NewBlock assembles a child block of prev at the given height, with a coinbase
// prepended to the provided transactions and a consistent merkle root.
func NewBlock(prev chainhash.Hash, height uint64, txs ...*wire.MsgTx) *btcutil.Block {
	msgBlock := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: prev,
			Timestamp: time.Unix(1700000000+int64(height)*600, 0),
			Bits:      EasyBits,
		},
	}
	msgBlock.AddTransaction(NewCoinbaseTx(height))
	for _, tx := range txs {
		msgBlock.AddTransaction(tx)
	}
	block := btcutil.NewBlock(msgBlock)
	msgBlock.Header.MerkleRoot = blockchain.CalcMerkleRoot(block.Transactions(), false)
	return btcutil.NewBlock(msgBlock)
}
