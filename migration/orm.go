package migration

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/orm"
)

// Model is a schema versioned entity that can be stored in a ModelBucket.
type Model interface {
	orm.Model
	GetMetadata() *refsys.Metadata
}

// ModelBucket provides the same functionality as orm.ModelBucket, but
// ensures that only entities in a schema version known to the running code
// are loaded or stored.
type ModelBucket struct {
	orm.ModelBucket
	migrations *register
}

// NewModelBucket returns a schema aware bucket.
func NewModelBucket(b orm.ModelBucket) *ModelBucket {
	return &ModelBucket{
		ModelBucket: b,
		migrations:  reg,
	}
}

// useRegister will update this bucket to use a custom register instance
// instead of the global one. This is a private method meant to be used for
// tests only.
func (m *ModelBucket) useRegister(r *register) {
	m.migrations = r
}

// One loads a single entity. ErrSchema is returned if the entity was written
// by a version of the logic that is not known to the running code.
func (m *ModelBucket) One(db refsys.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := m.ModelBucket.One(db, key, dest); err != nil {
		return err
	}
	if err := m.check(dest); err != nil {
		return errors.Wrapf(err, "load %s", m.Name())
	}
	return nil
}

// Put stores an entity after ensuring its schema version is known.
func (m *ModelBucket) Put(db refsys.KVStore, key []byte, model Model) error {
	if err := m.check(model); err != nil {
		return errors.Wrapf(err, "store %s", m.Name())
	}
	return m.ModelBucket.Put(db, key, model)
}

func (m *ModelBucket) check(model Model) error {
	meta := model.GetMetadata()
	if err := meta.Validate(); err != nil {
		return err
	}
	if !m.migrations.Supports(model, meta.Schema) {
		return errors.Wrapf(errors.ErrSchema, "unknown schema version %d", meta.Schema)
	}
	return nil
}
