package refsys

import (
	"github.com/iov-one/refsys/errors"
)

// Metadata is the first attribute of every schema versioned model and
// message. Schema is the version of the logic the entity was written by.
type Metadata struct {
	Schema uint32 `json:"schema"`
}

// Validate returns an error if the metadata is missing or does not declare
// a schema version.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "nil")
	}
	if m.Schema == 0 {
		return errors.Wrap(errors.ErrMetadata, "schema is required")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when implementing
// orm.CloneableData interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}
