package migration

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

// Upgradeable is implemented by the state of every component instance that
// can be moved to a new logic version.
type Upgradeable interface {
	Migratable

	// Upgrader returns the address that is authorized to upgrade the
	// instance.
	Upgrader() refsys.Address
}

// Resetter is implemented by entities that hold transient attributes. Those
// are cleared once the entity is upgraded to a new version.
type Resetter interface {
	ResetTransient()
}

func (r *register) Upgrade(
	ctx refsys.Context,
	db refsys.KVStore,
	caller refsys.Address,
	m Upgradeable,
	toVersion uint32,
) error {
	if !m.Upgrader().Equals(caller) {
		return errors.Wrap(errors.ErrUnauthorized, "only the upgrader can upgrade")
	}
	meta := m.GetMetadata()
	if err := meta.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	switch {
	case toVersion == meta.Schema:
		return errors.Wrapf(errors.ErrAlreadyAtVersion, "version %d", toVersion)
	case toVersion < meta.Schema:
		return errors.Wrapf(errors.ErrSchema, "cannot downgrade from %d to %d", meta.Schema, toVersion)
	}
	if err := r.Apply(ctx, db, m, toVersion); err != nil {
		return err
	}
	if rs, ok := m.(Resetter); ok {
		rs.ResetTransient()
	}
	return nil
}

// Upgrade moves given entity to a new logic version. Only the upgrader of the
// entity is allowed to do this. All registered migrations between the current
// and the requested version are applied in order.
//
// This function returns ErrUnauthorized if caller is not the upgrader,
// ErrAlreadyAtVersion if the entity is already at the requested version and
// ErrSchema if the version is lower than the current one or not known to the
// running code.
func Upgrade(
	ctx refsys.Context,
	db refsys.KVStore,
	caller refsys.Address,
	m Upgradeable,
	toVersion uint32,
) error {
	return reg.Upgrade(ctx, db, caller, m, toVersion)
}
