package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixStoreIsolation(t *testing.T) {
	root := MemStore()
	alice := NewPrefixStore(root, []byte("alice:"))
	bob := NewPrefixStore(root, []byte("bob:"))

	require.NoError(t, alice.Set([]byte("balance"), []byte("1")))
	require.NoError(t, bob.Set([]byte("balance"), []byte("2")))

	assertGet(t, alice, []byte("balance"), []byte("1"))
	assertGet(t, bob, []byte("balance"), []byte("2"))
	assertGet(t, root, []byte("alice:balance"), []byte("1"))

	it, err := alice.Iterator(nil, nil)
	require.NoError(t, err)
	got, err := ReadAll(it)
	require.NoError(t, err)
	assert.Equal(t, []Model{Pair([]byte("balance"), []byte("1"))}, got)

	require.NoError(t, alice.Delete([]byte("balance")))
	assertGet(t, alice, []byte("balance"), nil)
	assertGet(t, bob, []byte("balance"), []byte("2"))
}

func TestPrefixStoreIterators(t *testing.T) {
	root := MemStore()
	require.NoError(t, root.Set([]byte("p/a"), []byte("1")))
	require.NoError(t, root.Set([]byte("p/b"), []byte("2")))
	require.NoError(t, root.Set([]byte("p/c"), []byte("3")))
	require.NoError(t, root.Set([]byte("q/a"), []byte("other")))
	db := NewPrefixStore(root, []byte("p/"))

	it, err := db.ReverseIterator(nil, nil)
	require.NoError(t, err)
	got, err := ReadAll(it)
	require.NoError(t, err)
	assert.Equal(t, []Model{
		Pair([]byte("c"), []byte("3")),
		Pair([]byte("b"), []byte("2")),
		Pair([]byte("a"), []byte("1")),
	}, got)

	it, err = db.Iterator([]byte("b"), []byte("c"))
	require.NoError(t, err)
	got, err = ReadAll(it)
	require.NoError(t, err)
	assert.Equal(t, []Model{Pair([]byte("b"), []byte("2"))}, got)
}

func TestPrefixStoreCacheWrap(t *testing.T) {
	root := MemStore()
	db := NewPrefixStore(root, []byte("x/"))

	cache := db.CacheWrap()
	require.NoError(t, cache.Set([]byte("k"), []byte("v")))
	assertGet(t, cache, []byte("k"), []byte("v"))
	assertGet(t, root, []byte("x/k"), nil)

	require.NoError(t, cache.Write())
	assertGet(t, root, []byte("x/k"), []byte("v"))

	cache = db.CacheWrap()
	require.NoError(t, cache.Delete([]byte("k")))
	cache.Discard()
	assertGet(t, db, []byte("k"), []byte("v"))
}
