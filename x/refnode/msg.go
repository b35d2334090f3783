package refnode

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

const (
	pathRecordMsg = "record"
	pathGetMsg    = "get"
)

// RecordMsg sets the last referrer of the subject.
type RecordMsg struct {
	Registry refsys.Address `json:"registry"`
	Subject  refsys.Address `json:"subject"`
	Referrer refsys.Address `json:"referrer"`
}

var _ refsys.Msg = (*RecordMsg)(nil)

func (RecordMsg) Path() string {
	return pathRecordMsg
}

func (m *RecordMsg) Validate() error {
	if err := m.Registry.Validate(); err != nil {
		return errors.Wrap(err, "registry")
	}
	if err := m.Subject.Validate(); err != nil {
		return errors.Wrap(err, "subject")
	}
	if err := m.Referrer.Validate(); err != nil {
		return errors.Wrap(err, "referrer")
	}
	if m.Referrer.Equals(m.Subject) {
		return errors.Wrap(errors.ErrSelfReferral, "subject cannot refer itself")
	}
	return nil
}

// GetMsg returns the encoded node state.
type GetMsg struct{}

var _ refsys.Msg = (*GetMsg)(nil)

func (GetMsg) Path() string {
	return pathGetMsg
}

func (*GetMsg) Validate() error {
	return nil
}
