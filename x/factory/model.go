package factory

import (
	"encoding/binary"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/orm"
	amino "github.com/tendermint/go-amino"
)

func init() {
	migration.MustRegister(1, &Factory{}, migration.NoModification)
}

// Kind is the component kind of factories.
const Kind = "factory"

var stateKey = []byte("state")

// Factory is the state of a factory instance.
type Factory struct {
	Metadata *refsys.Metadata `json:"metadata"`
	Owner    refsys.Address   `json:"owner"`
	// Deployed is the number of registries created so far.
	Deployed uint64 `json:"deployed"`
}

var _ migration.UpgradeableModel = (*Factory)(nil)

func (f *Factory) GetMetadata() *refsys.Metadata {
	return f.Metadata
}

func (f *Factory) Upgrader() refsys.Address {
	return f.Owner
}

func (f *Factory) Validate() error {
	if err := f.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return errors.Wrap(f.Owner.Validate(), "owner")
}

func (f *Factory) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(f)
}

func (f *Factory) Unmarshal(raw []byte) error {
	return amino.UnmarshalBinaryBare(raw, f)
}

// NewFactoryBucket returns a bucket holding the factory state.
func NewFactoryBucket() *migration.ModelBucket {
	return migration.NewModelBucket(orm.NewModelBucket("factory", &Factory{}))
}

// Address returns the address of the factory owned by given account.
func Address(owner refsys.Address) refsys.Address {
	return refsys.NewCondition("factory", "factory", owner).Address()
}

// RegistryAddress returns the address of the n-th registry deployed by
// given factory.
func RegistryAddress(factory refsys.Address, n uint64) refsys.Address {
	data := make([]byte, len(factory)+8)
	copy(data, factory)
	binary.BigEndian.PutUint64(data[len(factory):], n)
	return refsys.NewCondition("factory", "registry", data).Address()
}
