// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package aux bridges the gap between "the chain is the only source of truth" and "some
// data is too large to re-embed in every transaction". During pre-processing,
// subprotocols register declarative requests for out-of-band data (historical manifest
// leaves, raw Bitcoin transactions) in a Collector. The external fulfiller answers with
// an unverified Data bundle, which is verified eagerly and in full before any
// subprotocol state is touched; the resulting Verified value is immutable and its
// lookups are pure.
package aux

import (
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

var (
	// ErrDuplicateRequest indicates two aux requests for the same transaction index.
	// Registering twice is a handler defect, not a runtime condition.
	ErrDuplicateRequest = errors.New("duplicate aux request for transaction index")
	// ErrInvalidMmrProof indicates a manifest leaf whose inclusion proof does not verify
	ErrInvalidMmrProof = errors.New("invalid mmr proof for manifest leaf")
	// ErrTypeMismatch indicates a typed lookup of the wrong request kind
	ErrTypeMismatch = errors.New("aux lookup kind does not match request")
	// ErrSpecMismatch indicates a response that does not match the request spec
	ErrSpecMismatch = errors.New("aux response does not match request spec")
	// ErrMissingResponse indicates a requested item absent from the response bundle
	ErrMissingResponse = errors.New("missing aux response")
)

type requestKind uint8

const (
	reqManifestRange requestKind = iota
	reqTransaction
)

type requestSpec struct {
	kind       requestKind
	startBlock uint64
	endBlock   uint64
	txid       chainhash.Hash
}

// LogQuery asks for the manifest leaves of a historical block-height range
type LogQuery struct {
	RequesterTxIndex uint32
	StartBlock       uint64
	EndBlock         uint64
}

// TxQuery asks for a specific Bitcoin transaction by id
type TxQuery struct {
	RequesterTxIndex uint32
	Txid             chainhash.Hash
}

// RequestEnvelope is the flat request bundle handed to the external fulfiller
type RequestEnvelope struct {
	LogQueries []LogQuery
	TxQueries  []TxQuery
}

// Empty reports whether the envelope carries no request
func (e *RequestEnvelope) Empty() bool {
	return len(e.LogQueries) == 0 && len(e.TxQueries) == 0
}

// Collector accumulates aux requests during the pre-process phase, keyed by the
// requesting transaction's in-block index. At most one request per index is allowed.
type Collector struct {
	reqs map[uint32]requestSpec
}

// NewCollector returns an empty collector
func NewCollector() *Collector {
	return &Collector{reqs: make(map[uint32]requestSpec)}
}

// RequestManifestRange registers a request for the manifest leaves of blocks
// [startBlock, endBlock], both inclusive
func (c *Collector) RequestManifestRange(txIndex uint32, startBlock, endBlock uint64) error {
	if _, ok := c.reqs[txIndex]; ok {
		return errors.Wrapf(ErrDuplicateRequest, "index %d", txIndex)
	}
	c.reqs[txIndex] = requestSpec{kind: reqManifestRange, startBlock: startBlock, endBlock: endBlock}
	return nil
}

// RequestTransaction registers a request for the raw Bitcoin transaction with the given id
func (c *Collector) RequestTransaction(txIndex uint32, txid chainhash.Hash) error {
	if _, ok := c.reqs[txIndex]; ok {
		return errors.Wrapf(ErrDuplicateRequest, "index %d", txIndex)
	}
	c.reqs[txIndex] = requestSpec{kind: reqTransaction, txid: txid}
	return nil
}

// Size returns the number of collected requests
func (c *Collector) Size() int { return len(c.reqs) }

// IntoEnvelope partitions the collected requests by kind into the flat envelope handed
// to the fulfiller. Requests are ordered by transaction index, so the envelope is a
// deterministic function of the collected set.
func (c *Collector) IntoEnvelope() *RequestEnvelope {
	indexes := make([]uint32, 0, len(c.reqs))
	for idx := range c.reqs {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	env := &RequestEnvelope{}
	for _, idx := range indexes {
		spec := c.reqs[idx]
		switch spec.kind {
		case reqManifestRange:
			env.LogQueries = append(env.LogQueries, LogQuery{
				RequesterTxIndex: idx,
				StartBlock:       spec.startBlock,
				EndBlock:         spec.endBlock,
			})
		case reqTransaction:
			env.TxQueries = append(env.TxQueries, TxQuery{
				RequesterTxIndex: idx,
				Txid:             spec.txid,
			})
		}
	}
	return env
}
