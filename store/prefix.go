package store

// PrefixStore exposes the subspace of a parent store that shares a common
// key prefix. Keys are given and returned without the prefix, so code
// working with a prefixed store cannot see or alter data outside of it.
type PrefixStore struct {
	parent KVStore
	prefix []byte
}

var _ CacheableKVStore = (*PrefixStore)(nil)

// NewPrefixStore returns a store limited to the keys starting with prefix.
func NewPrefixStore(parent KVStore, prefix []byte) *PrefixStore {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &PrefixStore{parent: parent, prefix: p}
}

func (s *PrefixStore) key(key []byte) []byte {
	out := make([]byte, len(s.prefix)+len(key))
	copy(out, s.prefix)
	copy(out[len(s.prefix):], key)
	return out
}

// Get returns the value stored under key within the prefix.
func (s *PrefixStore) Get(key []byte) ([]byte, error) {
	return s.parent.Get(s.key(key))
}

// Has returns true if the key exists within the prefix.
func (s *PrefixStore) Has(key []byte) (bool, error) {
	return s.parent.Has(s.key(key))
}

// Set stores a value under key within the prefix.
func (s *PrefixStore) Set(key, value []byte) error {
	return s.parent.Set(s.key(key), value)
}

// Delete removes key within the prefix.
func (s *PrefixStore) Delete(key []byte) error {
	return s.parent.Delete(s.key(key))
}

// Iterator iterates over [start, end) within the prefix in ascending order.
func (s *PrefixStore) Iterator(start, end []byte) (Iterator, error) {
	pstart, pend := s.bounds(start, end)
	it, err := s.parent.Iterator(pstart, pend)
	if err != nil {
		return nil, err
	}
	return &prefixIterator{Iterator: it, prefixLen: len(s.prefix)}, nil
}

// ReverseIterator iterates over [start, end) within the prefix in
// descending order.
func (s *PrefixStore) ReverseIterator(start, end []byte) (Iterator, error) {
	pstart, pend := s.bounds(start, end)
	it, err := s.parent.ReverseIterator(pstart, pend)
	if err != nil {
		return nil, err
	}
	return &prefixIterator{Iterator: it, prefixLen: len(s.prefix)}, nil
}

func (s *PrefixStore) bounds(start, end []byte) ([]byte, []byte) {
	pstart := s.key(start)
	var pend []byte
	if end == nil {
		pend = PrefixEnd(s.prefix)
	} else {
		pend = s.key(end)
	}
	return pstart, pend
}

// NewBatch returns a batch writing to the parent store batch, so that the
// atomicity of the parent store is preserved.
func (s *PrefixStore) NewBatch() Batch {
	return &prefixBatch{Batch: s.parent.NewBatch(), store: s}
}

// CacheWrap returns a cache over this prefix. Writing the cache flushes all
// changes to the parent with a single batch.
func (s *PrefixStore) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

type prefixBatch struct {
	Batch
	store *PrefixStore
}

func (b *prefixBatch) Set(key, value []byte) error {
	return b.Batch.Set(b.store.key(key), value)
}

func (b *prefixBatch) Delete(key []byte) error {
	return b.Batch.Delete(b.store.key(key))
}

type prefixIterator struct {
	Iterator
	prefixLen int
}

func (it *prefixIterator) Next() ([]byte, []byte, error) {
	key, value, err := it.Iterator.Next()
	if err != nil {
		return nil, nil, err
	}
	return key[it.prefixLen:], value, nil
}
