// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package l1

import (
	"github.com/btcsuite/btcd/btcutil"
)

// TxRef retains a transaction together with its index within the enclosing block
type TxRef struct {
	Tx    *btcutil.Tx
	Index uint32
}

// TaggedTx is a transaction whose designated output carries a well-formed tag for this
// protocol instance. Tagged transactions are ephemeral: produced once per block and
// consumed during dispatch.
type TaggedTx struct {
	Tag TagPayload
	Ref TxRef
}

// GroupTagged scans a block and groups its tagged transactions by subprotocol id.
// Original in-block order is preserved within every group; the grouping never sorts or
// deduplicates, as the relative order is part of the protocol's determinism guarantee.
func GroupTagged(block *btcutil.Block, magic Magic) map[SubprotocolID][]TaggedTx {
	groups := make(map[SubprotocolID][]TaggedTx)
	for i, tx := range block.Transactions() {
		outs := tx.MsgTx().TxOut
		if len(outs) <= TagOutputIndex {
			continue
		}
		tag, ok := ParseTag(outs[TagOutputIndex].PkScript, magic)
		if !ok {
			continue
		}
		groups[tag.Subprotocol] = append(groups[tag.Subprotocol], TaggedTx{
			Tag: *tag,
			Ref: TxRef{Tx: tx, Index: uint32(i)},
		})
	}
	return groups
}
