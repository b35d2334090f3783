package store

import "github.com/iov-one/refsys"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = refsys.ReadOnlyKVStore
type SetDeleter = refsys.SetDeleter
type KVStore = refsys.KVStore
type Batch = refsys.Batch
type Iterator = refsys.Iterator
type CacheableKVStore = refsys.CacheableKVStore
type KVCacheWrap = refsys.KVCacheWrap

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
