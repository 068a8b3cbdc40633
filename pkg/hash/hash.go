// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// Hash256Size defines the size of a 256-bit hash
	Hash256Size = 32
)

// ZeroHash256 is 32-bytes of all zero
var ZeroHash256 = Hash256{}

// Hash256 is a 256-bit hash
type Hash256 [Hash256Size]byte

// Hash256b returns the 256-bit hash of the input byte stream
func Hash256b(b []byte) Hash256 {
	return Hash256(sha256.Sum256(b))
}

// BytesToHash256 copies the byte slice into a Hash256. Input longer than 32 bytes is
// truncated from the left, shorter input is left-padded with zeros.
func BytesToHash256(b []byte) Hash256 {
	var h Hash256
	if len(b) > Hash256Size {
		b = b[len(b)-Hash256Size:]
	}
	copy(h[Hash256Size-len(b):], b)
	return h
}

// Hex returns the hex encoding of the hash
func (h Hash256) Hex() string {
	return hex.EncodeToString(h[:])
}
