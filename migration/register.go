package migration

import (
	"reflect"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

// Migratable is implemented by all schema versioned entities.
type Migratable interface {
	GetMetadata() *refsys.Metadata
	Validate() error
}

// Migrator is a function that migrates a data entity from version
// requiredVersion-1 to requested version.
type Migrator func(ctx refsys.Context, db refsys.KVStore, m Migratable) error

// NoModification is a migration function that migrates data that requires no
// change. It should be used to register migrations that do not require any
// modifications.
func NoModification(ctx refsys.Context, db refsys.KVStore, m Migratable) error {
	return nil
}

func newRegister() *register {
	return &register{
		handlers: make(map[payloadVersion]Migrator),
	}
}

type register struct {
	handlers map[payloadVersion]Migrator
}

// payloadVersion references a model at a given schema version.
type payloadVersion struct {
	payload reflect.Type
	version uint32
}

func (r *register) MustRegister(migrationTo uint32, m Migratable, fn Migrator) {
	if err := r.Register(migrationTo, m, fn); err != nil {
		panic(err)
	}
}

func (r *register) Register(migrationTo uint32, m Migratable, fn Migrator) error {
	tp, err := structType(m)
	if err != nil {
		return err
	}
	if migrationTo == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "schema version zero is reserved")
	}
	pv := payloadVersion{
		version: migrationTo,
		payload: tp,
	}
	if _, ok := r.handlers[pv]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "already registered: %s.%s:%d", tp.PkgPath(), tp.Name(), migrationTo)
	}
	r.handlers[pv] = fn
	return nil
}

// Supports returns true if the running code knows given schema version of
// the entity.
func (r *register) Supports(m Migratable, version uint32) bool {
	tp, err := structType(m)
	if err != nil {
		return false
	}
	_, ok := r.handlers[payloadVersion{payload: tp, version: version}]
	return ok
}

func (r *register) Apply(ctx refsys.Context, db refsys.KVStore, m Migratable, migrateTo uint32) error {
	tp, err := structType(m)
	if err != nil {
		return err
	}
	meta := m.GetMetadata()
	if err := meta.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	for v := meta.Schema + 1; v <= migrateTo; v++ {
		migrate, ok := r.handlers[payloadVersion{payload: tp, version: v}]
		if !ok {
			return errors.Wrapf(errors.ErrSchema, "migration to version %d missing", v)
		}
		if err := migrate(ctx, db, m); err != nil {
			return errors.Wrapf(err, "migration to version %d", v)
		}
		meta.Schema = v
	}

	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "validation")
	}
	return nil
}

func structType(m Migratable) (reflect.Type, error) {
	tp := reflect.TypeOf(m)
	for tp != nil && tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp == nil || tp.Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "only struct can be migrated, got %T", m)
	}
	return tp, nil
}

// reg is a globally available register instance that must be used during the
// runtime to register migration handlers.
// Register is declared as a separate type so that it can be tested without
// worrying about the global state.
var reg = newRegister()

// MustRegister registers a migration function for given entity. Migration
// function is migrating from migrationTo-1 to migrationTo schema version.
func MustRegister(migrationTo uint32, m Migratable, fn Migrator) {
	reg.MustRegister(migrationTo, m, fn)
}

// Supports returns true if given schema version of the entity is known to
// the running code.
func Supports(m Migratable, version uint32) bool {
	return reg.Supports(m, version)
}

// Apply updates an entity by applying all missing data migrations. Even a no
// modification migration is updating the metadata to point to the requested
// data format version.
//
// Because changes are applied directly on the passed entity, even if this
// function fails some of the data migrations might be applied.
//
// Validation method is called only on the final version of the entity.
func Apply(ctx refsys.Context, db refsys.KVStore, m Migratable, migrateTo uint32) error {
	return reg.Apply(ctx, db, m, migrateTo)
}
