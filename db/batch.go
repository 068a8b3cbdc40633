// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"sync"

	"github.com/pkg/errors"
)

type (
	// KVStoreBatch defines a batch buffer that stages Put/Delete entries in sequential order.
	// To use it, first start a new batch
	// b := NewBatch()
	// and keep batching Put/Delete operations into it
	// b.Put(bucket, k, v)
	// b.Delete(bucket, k)
	// once it's done, call KVStore interface's Commit() to persist to the underlying DB
	// KVStore.Commit(b)
	// if commit succeeds, the batch is cleared, otherwise the batch is kept intact
	KVStoreBatch interface {
		// Lock locks the batch
		Lock()
		// Unlock unlocks the batch
		Unlock()
		// ClearAndUnlock clears the write queue and unlocks the batch
		ClearAndUnlock()
		// Put inserts or updates a record identified by (namespace, key)
		Put(string, []byte, []byte)
		// Delete deletes a record by (namespace, key)
		Delete(string, []byte)
		// Size returns the size of the batch
		Size() int
		// Entry returns the entry at the index
		Entry(int) (*writeInfo, error)
		// Clear clears entries staged in the batch
		Clear()
	}

	// writeInfo is the struct to store a Put/Delete operation
	writeInfo struct {
		writeType int32
		namespace string
		key       []byte
		value     []byte
	}

	// baseKVStoreBatch is the base implementation of KVStoreBatch
	baseKVStoreBatch struct {
		mutex      sync.RWMutex
		writeQueue []writeInfo
	}
)

const (
	// Put indicates the type of write operation to be Put
	Put int32 = iota
	// Delete indicates the type of write operation to be Delete
	Delete
)

// NewBatch returns a batch
func NewBatch() KVStoreBatch {
	return &baseKVStoreBatch{}
}

// Lock locks the batch
func (b *baseKVStoreBatch) Lock() { b.mutex.Lock() }

// Unlock unlocks the batch
func (b *baseKVStoreBatch) Unlock() { b.mutex.Unlock() }

// ClearAndUnlock clears the write queue and unlocks the batch
func (b *baseKVStoreBatch) ClearAndUnlock() {
	defer b.mutex.Unlock()
	b.writeQueue = nil
}

// Put inserts a <key, value> record
func (b *baseKVStoreBatch) Put(namespace string, key, value []byte) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.batch(Put, namespace, key, value)
}

// Delete deletes a record
func (b *baseKVStoreBatch) Delete(namespace string, key []byte) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.batch(Delete, namespace, key, nil)
}

// Size returns the size of the batch
func (b *baseKVStoreBatch) Size() int { return len(b.writeQueue) }

// Entry returns the entry at the index
func (b *baseKVStoreBatch) Entry(index int) (*writeInfo, error) {
	if index < 0 || index >= len(b.writeQueue) {
		return nil, errors.Wrap(ErrIO, "index out of range")
	}
	return &b.writeQueue[index], nil
}

// Clear clears the write queue
func (b *baseKVStoreBatch) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeQueue = nil
}

// batch puts a write in the queue
func (b *baseKVStoreBatch) batch(op int32, namespace string, key, value []byte) {
	b.writeQueue = append(
		b.writeQueue,
		writeInfo{
			writeType: op,
			namespace: namespace,
			key:       key,
			value:     value,
		})
}
