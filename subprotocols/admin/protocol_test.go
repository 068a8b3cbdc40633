// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package admin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anchorproject/anchor-core/asm"
	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/subprotocols/bridge"
)

// recordingRelayer captures relayed messages for assertions
type recordingRelayer struct {
	dests    []asm.SubprotocolID
	payloads [][]byte
}

func (r *recordingRelayer) Relay(dest asm.SubprotocolID, payload []byte) {
	r.dests = append(r.dests, dest)
	r.payloads = append(r.payloads, payload)
}

func updateTx(index uint32, param uint8, value uint32) l1.TaggedTx {
	aux := append([]byte{param}, enc.Uint32ToBytes(value)...)
	return l1.TaggedTx{
		Tag: l1.TagPayload{Subprotocol: ProtocolID, TxType: TxTypeParamUpdate, AuxData: aux},
		Ref: l1.TxRef{Index: index},
	}
}

func TestInit(t *testing.T) {
	require := require.New(t)

	p := &Protocol{}
	state, err := p.Init(Params{InitialOperatorSet: 7})
	require.NoError(err)
	require.Equal(uint32(7), state.OperatorSetVersion)
	require.Zero(state.ParamVersion)
}

func TestStateCodec(t *testing.T) {
	require := require.New(t)

	p := &Protocol{}
	state := State{ParamVersion: 4, OperatorSetVersion: 9}
	b, err := p.EncodeState(&state)
	require.NoError(err)
	require.Len(b, _stateSize)
	got, err := p.DecodeState(b)
	require.NoError(err)
	require.Equal(state, got)

	_, err = p.DecodeState(nil)
	require.Error(err)
}

func TestProcessTxs(t *testing.T) {
	require := require.New(t)

	p := &Protocol{}
	state, err := p.Init(Params{InitialOperatorSet: 1})
	require.NoError(err)
	relayer := &recordingRelayer{}

	malformed := l1.TaggedTx{
		Tag: l1.TagPayload{Subprotocol: ProtocolID, TxType: TxTypeParamUpdate, AuxData: []byte{1}},
		Ref: l1.TxRef{Index: 3},
	}
	logs, err := p.ProcessTxs(&state, []l1.TaggedTx{
		updateTx(1, ParamOperatorSet, 5),
		malformed,
		updateTx(2, 9, 77),
	}, asm.ChainView{}, AuxInput{}, relayer)
	require.NoError(err)

	// two well-formed updates versioned the parameter table
	require.Equal(uint32(2), state.ParamVersion)
	require.Equal(uint32(5), state.OperatorSetVersion)
	require.Len(logs, 2)
	require.Equal(LogTypeParamUpdated, logs[0].Type)
	require.Equal(uint8(ParamOperatorSet), logs[0].Data[0])
	require.Equal(uint32(5), enc.MachineEndian.Uint32(logs[0].Data[1:5]))
	require.Equal(uint32(1), enc.MachineEndian.Uint32(logs[0].Data[5:9]))

	// only the operator-set update was relayed, addressed to the bridge
	require.Equal([]asm.SubprotocolID{bridge.ProtocolID}, relayer.dests)
	msg, err := (&bridge.Protocol{}).DecodeMsg(relayer.payloads[0])
	require.NoError(err)
	require.Equal(uint32(5), msg.OperatorSetVersion)
}

func TestMsgsRejected(t *testing.T) {
	require := require.New(t)

	p := &Protocol{}
	state := State{}
	_, err := p.ProcessMsgs(&state, []Msg{{}})
	require.Error(err)
	_, err = p.DecodeMsg(nil)
	require.Error(err)
}
