// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package debug implements the debug subprotocol: it echoes tag aux bytes and relayed
// message payloads into the manifest verbatim. It exists to make engine behavior
// observable on test chains and carries no protocol rules of its own.
package debug

import (
	"github.com/anchorproject/anchor-core/asm"
	aux "github.com/anchorproject/anchor-core/asm/auxiliary"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/pkg/enc"

	"github.com/pkg/errors"
)

const (
	// ProtocolID is the debug subprotocol's stable id
	ProtocolID = asm.SubprotocolID(255)

	// LogTypeEcho echoes the aux bytes of a tagged transaction
	LogTypeEcho = uint16(1)
	// LogTypeMsgEcho echoes a relayed message payload
	LogTypeMsgEcho = uint16(2)
)

// Params is the (empty) genesis configuration of the debug subprotocol
type Params struct{}

// State counts the entries echoed so far
type State struct {
	Echoed uint64
}

// Msg is an arbitrary payload echoed into the manifest
type Msg []byte

// AuxInput is empty; the debug subprotocol requests no auxiliary data
type AuxInput struct{}

// Protocol implements the debug subprotocol
type Protocol struct{}

// NewHandler wraps the debug subprotocol for registration
func NewHandler() asm.Handler {
	return asm.NewHandler[State, Msg, AuxInput, Params](&Protocol{}, Params{})
}

// ID returns the subprotocol id
func (p *Protocol) ID() asm.SubprotocolID { return ProtocolID }

// Init returns the genesis state
func (p *Protocol) Init(_ Params) (State, error) { return State{}, nil }

// PreProcessTxs is a no-op
func (p *Protocol) PreProcessTxs(_ *State, _ []l1.TaggedTx, _ *aux.Collector, _ asm.ChainView) error {
	return nil
}

// BuildAuxInput returns the empty aux input
func (p *Protocol) BuildAuxInput(_ *aux.Verified, _ []l1.TaggedTx) (AuxInput, error) {
	return AuxInput{}, nil
}

// ProcessTxs echoes every tagged transaction's aux bytes
func (p *Protocol) ProcessTxs(
	state *State,
	txs []l1.TaggedTx,
	_ asm.ChainView,
	_ AuxInput,
	_ asm.MsgRelayer,
) ([]manifest.LogEntry, error) {
	var logs []manifest.LogEntry
	for _, tx := range txs {
		state.Echoed++
		data := append([]byte{tx.Tag.TxType}, tx.Tag.AuxData...)
		logs = append(logs, manifest.LogEntry{Type: LogTypeEcho, Data: data})
	}
	return logs, nil
}

// ProcessMsgs echoes every buffered payload
func (p *Protocol) ProcessMsgs(state *State, msgs []Msg) ([]manifest.LogEntry, error) {
	var logs []manifest.LogEntry
	for _, m := range msgs {
		state.Echoed++
		logs = append(logs, manifest.LogEntry{Type: LogTypeMsgEcho, Data: []byte(m)})
	}
	return logs, nil
}

// EncodeState produces the canonical state section
func (p *Protocol) EncodeState(state *State) ([]byte, error) {
	return enc.Uint64ToBytes(state.Echoed), nil
}

// DecodeState parses a state section
func (p *Protocol) DecodeState(section []byte) (State, error) {
	if len(section) != 8 {
		return State{}, errors.Errorf("debug section must be 8 bytes, got %d", len(section))
	}
	return State{Echoed: enc.MachineEndian.Uint64(section)}, nil
}

// DecodeMsg accepts any payload
func (p *Protocol) DecodeMsg(payload []byte) (Msg, error) {
	return Msg(append([]byte(nil), payload...)), nil
}
