// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	_bucket1 = "ns1"
	_bucket2 = "ns2"
	_testK   = [][]byte{[]byte("key_1"), []byte("key_2"), []byte("key_3")}
	_testV   = [][]byte{[]byte("value_1"), []byte("value_2"), []byte("value_3")}
)

func readWriteStore(t *testing.T, kv KVStore) {
	require := require.New(t)
	ctx := context.Background()

	require.NoError(kv.Start(ctx))
	defer func() {
		require.NoError(kv.Stop(ctx))
	}()

	// get on a fresh store misses the bucket
	_, err := kv.Get(_bucket1, _testK[0])
	require.ErrorIs(err, ErrBucketNotExist)

	require.NoError(kv.Put(_bucket1, _testK[0], _testV[0]))
	v, err := kv.Get(_bucket1, _testK[0])
	require.NoError(err)
	require.Equal(_testV[0], v)

	// namespaces do not leak into each other
	require.NoError(kv.Put(_bucket2, _testK[0], _testV[1]))
	v, err = kv.Get(_bucket1, _testK[0])
	require.NoError(err)
	require.Equal(_testV[0], v)

	// overwrite
	require.NoError(kv.Put(_bucket1, _testK[0], _testV[2]))
	v, err = kv.Get(_bucket1, _testK[0])
	require.NoError(err)
	require.Equal(_testV[2], v)

	// miss within an existing bucket
	_, err = kv.Get(_bucket1, _testK[1])
	require.ErrorIs(err, ErrNotExist)

	// delete then miss
	require.NoError(kv.Delete(_bucket1, _testK[0]))
	_, err = kv.Get(_bucket1, _testK[0])
	require.ErrorIs(err, ErrNotExist)
}

func batchCommitStore(t *testing.T, kv KVStore) {
	require := require.New(t)
	ctx := context.Background()

	require.NoError(kv.Start(ctx))
	defer func() {
		require.NoError(kv.Stop(ctx))
	}()

	b := NewBatch()
	b.Put(_bucket1, _testK[0], _testV[0])
	b.Put(_bucket1, _testK[1], _testV[1])
	b.Put(_bucket2, _testK[2], _testV[2])
	require.Equal(3, b.Size())

	require.NoError(kv.Commit(b))
	// a successful commit clears the batch
	require.Zero(b.Size())

	for i, ns := range []string{_bucket1, _bucket1, _bucket2} {
		v, err := kv.Get(ns, _testK[i])
		require.NoError(err)
		require.Equal(_testV[i], v)
	}

	// deletes commit atomically with puts
	b.Put(_bucket1, _testK[2], _testV[0])
	b.Delete(_bucket1, _testK[0])
	require.NoError(kv.Commit(b))
	_, err := kv.Get(_bucket1, _testK[0])
	require.ErrorIs(err, ErrNotExist)
	v, err := kv.Get(_bucket1, _testK[2])
	require.NoError(err)
	require.Equal(_testV[0], v)
}

func TestKVStorePutGet(t *testing.T) {
	t.Run("in-memory KV store", func(t *testing.T) {
		readWriteStore(t, NewMemKVStore())
	})
	t.Run("bolt DB", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test-kv-store.db")
		readWriteStore(t, NewBoltDB(Config{DbPath: path, NumRetries: 3}))
	})
}

func TestKVStoreBatchCommit(t *testing.T) {
	t.Run("in-memory KV store", func(t *testing.T) {
		batchCommitStore(t, NewMemKVStore())
	})
	t.Run("bolt DB", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test-batch-commit.db")
		batchCommitStore(t, NewBoltDB(Config{DbPath: path, NumRetries: 3}))
	})
}

func TestBoltDBPersistence(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test-persistence.db")

	kv := NewBoltDB(Config{DbPath: path, NumRetries: 3})
	require.NoError(kv.Start(ctx))
	require.NoError(kv.Put(_bucket1, _testK[0], _testV[0]))
	require.NoError(kv.Stop(ctx))

	// the record survives a restart
	kv = NewBoltDB(Config{DbPath: path, NumRetries: 3})
	require.NoError(kv.Start(ctx))
	v, err := kv.Get(_bucket1, _testK[0])
	require.NoError(err)
	require.Equal(_testV[0], v)
	require.NoError(kv.Stop(ctx))
}
