// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMsgRelay(t *testing.T) {
	require := require.New(t)

	r := newMsgRelay()
	require.Empty(r.pending())
	require.Empty(r.take(1))

	r.Relay(1, []byte("a"))
	r.Relay(2, []byte("b"))
	r.Relay(1, []byte("c"))
	r.Relay(3, []byte("d"))
	require.Len(r.pending(), 4)

	// take drains one destination in send order
	require.Equal([][]byte{[]byte("a"), []byte("c")}, r.take(1))
	require.Empty(r.take(1))
	require.Len(r.pending(), 2)

	require.Equal([][]byte{[]byte("b")}, r.take(2))
	// the undelivered remainder names the unregistered destination
	pending := r.pending()
	require.Len(pending, 1)
	require.Equal(SubprotocolID(3), pending[0].Dest)
}
