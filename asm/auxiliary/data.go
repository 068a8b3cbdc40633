// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package aux

import (
	"github.com/anchorproject/anchor-core/mmr"
	"github.com/anchorproject/anchor-core/pkg/hash"
)

// LeafProof is one historical manifest leaf with its MMR inclusion proof
type LeafProof struct {
	Leaf  hash.Hash256
	Index uint64
	Proof mmr.Proof
}

// Data is the unverified response bundle from the external fulfiller. Manifest leaves
// answer the envelope's log queries positionally (one leaf per height of each range, in
// envelope order); raw transactions answer the tx queries positionally. Data is
// constructed once per block from external input and never persisted.
type Data struct {
	ManifestLeaves []LeafProof
	RawTxs         [][]byte
}
