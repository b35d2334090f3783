package app

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/store"
)

// readOnlyStore rejects all writes to the root store while a query is
// processed. Deliveries run on caches of the root store, so reads and
// uncommitted changes are not affected.
type readOnlyStore struct {
	refsys.CacheableKVStore
	locked *bool
}

var _ refsys.CacheableKVStore = readOnlyStore{}

func (s readOnlyStore) Set(key, value []byte) error {
	if *s.locked {
		return errQueryWrite
	}
	return s.CacheableKVStore.Set(key, value)
}

func (s readOnlyStore) Delete(key []byte) error {
	if *s.locked {
		return errQueryWrite
	}
	return s.CacheableKVStore.Delete(key)
}

func (s readOnlyStore) NewBatch() refsys.Batch {
	return &readOnlyBatch{Batch: s.CacheableKVStore.NewBatch(), locked: s.locked}
}

func (s readOnlyStore) CacheWrap() refsys.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// readOnlyBatch fails on write if it holds any operation and the store is
// locked. Empty batches can always be written.
type readOnlyBatch struct {
	refsys.Batch
	locked *bool
	ops    int
}

func (b *readOnlyBatch) Set(key, value []byte) error {
	b.ops++
	return b.Batch.Set(key, value)
}

func (b *readOnlyBatch) Delete(key []byte) error {
	b.ops++
	return b.Batch.Delete(key)
}

func (b *readOnlyBatch) Write() error {
	if *b.locked && b.ops > 0 {
		return errQueryWrite
	}
	return b.Batch.Write()
}

var errQueryWrite = errors.Wrap(errors.ErrInvalidState, "state cannot be modified by a query")
