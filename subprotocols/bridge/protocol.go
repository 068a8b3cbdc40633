// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package bridge implements the bridge subprotocol. A deposit tag names a deposit
// request transaction (DRT) by id; the subprotocol requests the raw transaction,
// validates the deposited value and records the deposit. Operator-set updates arrive as
// relayed messages from the admin subprotocol.
package bridge

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/asm"
	aux "github.com/anchorproject/anchor-core/asm/auxiliary"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/pkg/log"
)

const (
	// ProtocolID is the bridge subprotocol's stable id
	ProtocolID = asm.SubprotocolID(2)

	// TxTypeDeposit tags a deposit recognition transaction
	TxTypeDeposit = uint8(1)

	// LogTypeDepositReceived records an accepted deposit
	LogTypeDepositReceived = uint16(1)
	// LogTypeOperatorSetUpdated records an applied operator-set update
	LogTypeOperatorSetUpdated = uint16(2)

	_stateSize = 20
)

// Params is the genesis configuration of the bridge subprotocol
type Params struct {
	// MinDepositValue is the smallest accepted deposit output value, in satoshi
	MinDepositValue uint64 `yaml:"minDepositValue"`
}

// State is the bridge subprotocol state
type State struct {
	Deposits           uint64
	TotalValue         uint64
	OperatorSetVersion uint32
}

/// Msg is the message type the bridge accepts: an operator-set update relayed by admin
type Msg struct {
	OperatorSetVersion uint32
}

// EncodeMsg encodes an operator-set update for relaying. The admin subprotocol uses it
// to address the bridge without importing its internals.
func EncodeMsg(m Msg) []byte {
	return enc.Uint32ToBytes(m.OperatorSetVersion)
}

// AuxInput maps a deposit transaction's in-block index to its verified DRT
type AuxInput struct {
	Deposits map[uint32]depositInfo
}

type depositInfo struct {
	txid  chainhash.Hash
	value uint64
}

// Protocol implements the bridge subprotocol
type Protocol struct {
	minDeposit uint64
}

// NewHandler wraps the bridge subprotocol for registration
func NewHandler(params Params) asm.Handler {
	return asm.NewHandler[State, Msg, AuxInput, Params](&Protocol{minDeposit: params.MinDepositValue}, params)
}

// ID returns the subprotocol id
func (p *Protocol) ID() asm.SubprotocolID { return ProtocolID }

// Init returns the genesis state
func (p *Protocol) Init(_ Params) (State, error) {
	return State{}, nil
}

// depositTxid decodes the DRT id from tag aux bytes
func depositTxid(tag l1.TagPayload) (chainhash.Hash, bool) {
	if tag.TxType != TxTypeDeposit || len(tag.AuxData) != chainhash.HashSize {
		return chainhash.Hash{}, false
	}
	var txid chainhash.Hash
	copy(txid[:], tag.AuxData)
	return txid, true
}

// PreProcessTxs registers one raw-transaction request per well-formed deposit tag
func (p *Protocol) PreProcessTxs(_ *State, txs []l1.TaggedTx, collector *aux.Collector, _ asm.ChainView) error {
	for _, tx := range txs {
		txid, ok := depositTxid(tx.Tag)
		if !ok {
			log.L().Debug("Skipping malformed deposit tag.")
			continue
		}
		if err := collector.RequestTransaction(tx.Ref.Index, txid); err != nil {
			return err
		}
	}
	return nil
}

// BuildAuxInput resolves every requested DRT from the verified bundle
func (p *Protocol) BuildAuxInput(verified *aux.Verified, txs []l1.TaggedTx) (AuxInput, error) {
	in := AuxInput{Deposits: make(map[uint32]depositInfo)}
	for _, tx := range txs {
		txid, ok := depositTxid(tx.Tag)
		if !ok {
			continue
		}
		drt, err := verified.TransactionForIndex(tx.Ref.Index)
		if err != nil {
			return AuxInput{}, err
		}
		if len(drt.TxOut) == 0 {
			continue
		}
		in.Deposits[tx.Ref.Index] = depositInfo{txid: txid, value: uint64(drt.TxOut[0].Value)}
	}
	return in, nil
}

// ProcessTxs records deposits whose DRT output meets the value floor
func (p *Protocol) ProcessTxs(
	state *State,
	txs []l1.TaggedTx,
	_ asm.ChainView,
	auxInput AuxInput,
	_ asm.MsgRelayer,
) ([]manifest.LogEntry, error) {
	var logs []manifest.LogEntry
	for _, tx := range txs {
		info, ok := auxInput.Deposits[tx.Ref.Index]
		if !ok {
			continue
		}
		if info.value < p.minDeposit {
			continue
		}
		state.Deposits++
		state.TotalValue += info.value
		data := make([]byte, 0, chainhash.HashSize+8)
		data = append(data, info.txid[:]...)
		data = append(data, enc.Uint64ToBytes(info.value)...)
		logs = append(logs, manifest.LogEntry{Type: LogTypeDepositReceived, Data: data})
	}
	return logs, nil
}

// ProcessMsgs applies buffered operator-set updates in send order
func (p *Protocol) ProcessMsgs(state *State, msgs []Msg) ([]manifest.LogEntry, error) {
	var logs []manifest.LogEntry
	for _, m := range msgs {
		state.OperatorSetVersion = m.OperatorSetVersion
		logs = append(logs, manifest.LogEntry{
			Type: LogTypeOperatorSetUpdated,
			Data: enc.Uint32ToBytes(m.OperatorSetVersion),
		})
	}
	return logs, nil
}

// EncodeState produces the canonical state section
func (p *Protocol) EncodeState(state *State) ([]byte, error) {
	b := make([]byte, 0, _stateSize)
	b = append(b, enc.Uint64ToBytes(state.Deposits)...)
	b = append(b, enc.Uint64ToBytes(state.TotalValue)...)
	b = append(b, enc.Uint32ToBytes(state.OperatorSetVersion)...)
	return b, nil
}

// DecodeState parses a state section
func (p *Protocol) DecodeState(section []byte) (State, error) {
	if len(section) != _stateSize {
		return State{}, errors.Errorf("bridge section must be %d bytes, got %d", _stateSize, len(section))
	}
	return State{
		Deposits:           enc.MachineEndian.Uint64(section[:8]),
		TotalValue:         enc.MachineEndian.Uint64(section[8:16]),
		OperatorSetVersion: enc.MachineEndian.Uint32(section[16:20]),
	}, nil
}

// DecodeMsg parses an operator-set update payload
func (p *Protocol) DecodeMsg(payload []byte) (Msg, error) {
	if len(payload) != 4 {
		return Msg{}, errors.Errorf("operator update payload must be 4 bytes, got %d", len(payload))
	}
	return Msg{OperatorSetVersion: enc.MachineEndian.Uint32(payload)}, nil
}
