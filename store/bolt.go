package store

import (
	"bytes"
	"time"

	"github.com/iov-one/refsys/errors"
	bolt "go.etcd.io/bbolt"
)

var defaultBoltBucket = []byte("refsys")

// BoltStore is a persistent KVStore kept in a single bbolt bucket. Every
// Set and Delete is a separate transaction, batches are written in a
// single transaction so that they are applied atomically.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

var _ CacheableKVStore = (*BoltStore)(nil)

// OpenBoltStore opens (or creates) a database file at given path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(defaultBoltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "create bucket: %s", err)
	}
	return &BoltStore{db: db, bucket: defaultBoltBucket}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get returns a copy of the value stored under key, nil if missing.
func (s *BoltStore) Get(key []byte) ([]byte, error) {
	var res []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get(key); v != nil {
			res = make([]byte, len(v))
			copy(res, v)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return res, nil
}

// Has returns true if given key exists.
func (s *BoltStore) Has(key []byte) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(s.bucket).Get(key) != nil
		return nil
	})
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return found, nil
}

// Set writes a value in its own transaction.
func (s *BoltStore) Set(key, value []byte) error {
	return s.apply([]Op{SetOp(key, value)})
}

// Delete removes a key in its own transaction.
func (s *BoltStore) Delete(key []byte) error {
	return s.apply([]Op{DelOp(key)})
}

func (s *BoltStore) apply(ops []Op) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, op := range ops {
			switch op.kind {
			case setKind:
				value := op.value
				if value == nil {
					value = []byte{}
				}
				if err := b.Put(op.key, value); err != nil {
					return err
				}
			case delKind:
				if err := b.Delete(op.key); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Iterator returns all pairs within [start, end) in ascending order. The
// range is read within a single read transaction.
func (s *BoltStore) Iterator(start, end []byte) (Iterator, error) {
	data, err := s.scan(start, end)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(data), nil
}

// ReverseIterator returns all pairs within [start, end) in descending order.
func (s *BoltStore) ReverseIterator(start, end []byte) (Iterator, error) {
	data, err := s.scan(start, end)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(reverse(data)), nil
}

func (s *BoltStore) scan(start, end []byte) ([]Model, error) {
	var res []Model
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			key := make([]byte, len(k))
			copy(key, k)
			value := make([]byte, len(v))
			copy(value, v)
			res = append(res, Pair(key, value))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return res, nil
}

// NewBatch returns a batch that is written in a single transaction.
func (s *BoltStore) NewBatch() Batch {
	return &boltBatch{store: s}
}

// CacheWrap returns a btree cache that is flushed with a single
// transaction.
func (s *BoltStore) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

type boltBatch struct {
	store *BoltStore
	ops   []Op
}

func (b *boltBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *boltBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

func (b *boltBatch) Write() error {
	if len(b.ops) == 0 {
		return nil
	}
	err := b.store.apply(b.ops)
	b.ops = nil
	return err
}
