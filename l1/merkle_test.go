// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package l1_test

import (
	"testing"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/testutil"
)

func TestCalcWitnessMerkleRoot(t *testing.T) {
	require := require.New(t)

	// cross-check against btcd's reference for 1, 2, 3 and 6 transactions
	for _, n := range []int{0, 1, 2, 5} {
		txs := make([]*wire.MsgTx, n)
		for i := range txs {
			txs[i] = testutil.NewPlainTx(byte(i + 1))
		}
		block := testutil.NewBlock(chainhash.Hash{}, 1, txs...)
		want := blockchain.CalcMerkleRoot(block.Transactions(), true)
		require.Equal(want, l1.CalcWitnessMerkleRoot(block))
	}
}

func TestCalcWitnessMerkleRootCoinbaseZeroed(t *testing.T) {
	require := require.New(t)

	// blocks differing only in coinbase witness data share the witness root
	a := testutil.NewBlock(chainhash.Hash{}, 1, testutil.NewPlainTx(1))
	b := testutil.NewBlock(chainhash.Hash{}, 1, testutil.NewPlainTx(1))
	b.MsgBlock().Transactions[0].TxIn[0].Witness = wire.TxWitness{[]byte("commitment nonce")}
	require.Equal(l1.CalcWitnessMerkleRoot(a), l1.CalcWitnessMerkleRoot(b))
}
