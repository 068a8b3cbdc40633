// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package l1 holds the Bitcoin-facing types of the anchor state machine: the tagged
// transaction envelope carried in OP_RETURN outputs, the per-block grouping of tagged
// transactions, and block-level merkle helpers.
package l1

import (
	"github.com/btcsuite/btcd/txscript"
)

const (
	// MagicSize is the length of the instance magic prefix
	MagicSize = 4
	// MaxAuxDataSize is the maximum length of the aux bytes carried in a tag
	MaxAuxDataSize = 74
	// minTagSize is magic + subprotocol id + tx type
	minTagSize = MagicSize + 2
	// TagOutputIndex is the output that carries the tag
	TagOutputIndex = 0
)

// SubprotocolID identifies a subprotocol. The id is stable across the life of the chain
// and is carried on-chain in every tagged transaction.
type SubprotocolID uint8

// Magic is the 4-byte instance prefix. Transactions tagged with a different magic are
// ignored entirely.
type Magic [MagicSize]byte

// TagPayload is the parsed tag of a transaction: destination subprotocol, transaction
// type and the embedded aux bytes.
type TagPayload struct {
	Subprotocol SubprotocolID
	TxType      uint8
	AuxData     []byte
}

// ParseTag extracts a tag from an output script. Parsing is pure and total: any script
// that is not a single-push OP_RETURN of magic ‖ id ‖ type ‖ aux, or whose magic does
// not match, yields (nil, false) rather than an error.
func ParseTag(pkScript []byte, magic Magic) (*TagPayload, bool) {
	if txscript.GetScriptClass(pkScript) != txscript.NullDataTy {
		return nil, false
	}
	pushes, err := txscript.PushedData(pkScript)
	if err != nil || len(pushes) != 1 {
		return nil, false
	}
	payload := pushes[0]
	if len(payload) < minTagSize || len(payload) > minTagSize+MaxAuxDataSize {
		return nil, false
	}
	if Magic(payload[:MagicSize]) != magic {
		return nil, false
	}
	aux := make([]byte, len(payload)-minTagSize)
	copy(aux, payload[minTagSize:])
	return &TagPayload{
		Subprotocol: SubprotocolID(payload[MagicSize]),
		TxType:      payload[MagicSize+1],
		AuxData:     aux,
	}, true
}

// BuildTagScript assembles the OP_RETURN script for a tag. It is the inverse of
// ParseTag and is used by tests and tooling that craft tagged transactions.
func BuildTagScript(magic Magic, id SubprotocolID, txType uint8, aux []byte) ([]byte, error) {
	payload := make([]byte, 0, minTagSize+len(aux))
	payload = append(payload, magic[:]...)
	payload = append(payload, byte(id), txType)
	payload = append(payload, aux...)
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(payload).
		Script()
}
