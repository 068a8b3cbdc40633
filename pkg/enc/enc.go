// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package enc

import "encoding/binary"

// MachineEndian is the endianness used for canonical in-state encodings
var MachineEndian = binary.LittleEndian

// Uint32ToBytes converts a uint32 to canonical bytes
func Uint32ToBytes(v uint32) []byte {
	b := make([]byte, 4)
	MachineEndian.PutUint32(b, v)
	return b
}

// Uint64ToBytes converts a uint64 to canonical bytes
func Uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	MachineEndian.PutUint64(b, v)
	return b
}

// Uint64ToBytesBE converts a uint64 to big-endian bytes. Big endian is used for db keys
// so that lexicographic key order equals numeric order.
func Uint64ToBytesBE(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// BytesToUint64BE converts big-endian bytes to a uint64
func BytesToUint64BE(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
