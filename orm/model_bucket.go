/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of model.
* Models are accessed by their primary key.
* Easy queries for one and iteration.
*/
package orm

import (
	"reflect"
	"regexp"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/store"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	refsys.Persistent
	Validate() error
}

// ModelBucket is a prefixed subspace of the database that holds models of
// a single type.
type ModelBucket struct {
	name   string
	prefix []byte
	model  reflect.Type
}

// NewModelBucket returns a bucket storing models of the same type as given
// prototype. This function panics if the bucket name is not valid.
func NewModelBucket(name string, proto Model) ModelBucket {
	if !isBucketName(name) {
		panic(errors.Wrapf(errors.ErrInvalidInput, "illegal bucket: %s", name))
	}
	return ModelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		model:  reflect.TypeOf(proto),
	}
}

// Name returns the name of this bucket.
func (b ModelBucket) Name() string {
	return b.name
}

// DBKey is the full key used to store a model with given primary key.
func (b ModelBucket) DBKey(key []byte) []byte {
	return append(append([]byte{}, b.prefix...), key...)
}

// One query the database for a single model instance. Lookup is done by the
// primary key. Result is loaded into given destination model.
// This method returns ErrNotFound if the entity does not exist in the
// database.
// If given model type cannot be used to contain stored entity, ErrInvalidType
// is returned.
func (b ModelBucket) One(db refsys.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := b.checkType(dest); err != nil {
		return err
	}
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return errors.Wrap(err, "get")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", b.name)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "unmarshal %s", b.name)
	}
	return nil
}

// Has returns nil if an entity with given key exists and ErrNotFound
// otherwise.
func (b ModelBucket) Has(db refsys.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(b.DBKey(key))
	if err != nil {
		return errors.Wrap(err, "has")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", b.name)
	}
	return nil
}

// Put saves given model in the database. The model is validated before it
// is written.
func (b ModelBucket) Put(db refsys.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := b.checkType(m); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	if err := db.Set(b.DBKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

// Delete removes an entity with given primary key from the database.
// It returns ErrNotFound if an entity with given key does not exist.
func (b ModelBucket) Delete(db refsys.KVStore, key []byte) error {
	if err := b.Has(db, key); err != nil {
		return err
	}
	return db.Delete(b.DBKey(key))
}

// Each iterates over all models stored in this bucket in the order of their
// keys. For every entity dest is loaded and fn is called with the primary
// key. Iteration stops on the first error returned by fn.
func (b ModelBucket) Each(db refsys.ReadOnlyKVStore, dest Model, fn func(key []byte) error) error {
	if err := b.checkType(dest); err != nil {
		return err
	}
	it, err := db.Iterator(b.prefix, store.PrefixEnd(b.prefix))
	if err != nil {
		return errors.Wrap(err, "iterator")
	}
	defer it.Release()

	for {
		k, v, err := it.Next()
		if err != nil {
			if errors.ErrIteratorDone.Is(err) {
				return nil
			}
			return err
		}
		if err := dest.Unmarshal(v); err != nil {
			return errors.Wrapf(err, "unmarshal %s", b.name)
		}
		if err := fn(k[len(b.prefix):]); err != nil {
			return err
		}
	}
}

func (b ModelBucket) checkType(m Model) error {
	if tp := reflect.TypeOf(m); tp != b.model {
		return errors.Wrapf(errors.ErrInvalidType, "%s bucket cannot hold %v", b.name, tp)
	}
	return nil
}
