package migration

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	amino "github.com/tendermint/go-amino"
)

// testModel is a schema versioned entity used by tests.
type testModel struct {
	Metadata *refsys.Metadata
	Owner    refsys.Address
	Count    uint64
	// Cache is transient and dropped on upgrade.
	Cache string
}

var _ UpgradeableModel = (*testModel)(nil)

func (m *testModel) GetMetadata() *refsys.Metadata { return m.Metadata }
func (m *testModel) Upgrader() refsys.Address      { return m.Owner }
func (m *testModel) ResetTransient()               { m.Cache = "" }
func (m *testModel) Marshal() ([]byte, error)      { return amino.MarshalBinaryBare(m) }
func (m *testModel) Unmarshal(raw []byte) error    { return amino.UnmarshalBinaryBare(raw, m) }

func (m *testModel) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}
