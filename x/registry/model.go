package registry

import (
	"encoding/binary"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/orm"
	"github.com/iov-one/refsys/x/feesplit"
	amino "github.com/tendermint/go-amino"
)

func init() {
	migration.MustRegister(1, &Registry{}, migration.NoModification)
	migration.MustRegister(1, &ProjectEntry{}, migration.NoModification)
}

// Kind is the component kind of registries.
const Kind = "registry"

var stateKey = []byte("state")

// Registry is the state of a registry instance.
type Registry struct {
	Metadata *refsys.Metadata `json:"metadata"`
	Owner    refsys.Address   `json:"owner"`
	Factory  refsys.Address   `json:"factory"`
	// ApprovalFee is the minimal fee a project must offer to be approved.
	ApprovalFee uint64 `json:"approval_fee"`
	// FeeBps is the registry cut of every reward, in basis points.
	FeeBps       uint32 `json:"fee_bps"`
	ProjectCount uint64 `json:"project_count"`
}

var _ migration.UpgradeableModel = (*Registry)(nil)

func (r *Registry) GetMetadata() *refsys.Metadata {
	return r.Metadata
}

// Upgrader returns the registry owner.
func (r *Registry) Upgrader() refsys.Address {
	return r.Owner
}

func (r *Registry) Validate() error {
	if err := r.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := r.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := r.Factory.Validate(); err != nil {
		return errors.Wrap(err, "factory")
	}
	return validateFeeBps(r.FeeBps)
}

func (r *Registry) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(r)
}

func (r *Registry) Unmarshal(raw []byte) error {
	return amino.UnmarshalBinaryBare(raw, r)
}

// NewRegistryBucket returns a bucket holding the registry state.
func NewRegistryBucket() *migration.ModelBucket {
	return migration.NewModelBucket(orm.NewModelBucket("registry", &Registry{}))
}

// ProjectEntry is kept by the registry for every project it deployed. It is
// stored under the project address.
type ProjectEntry struct {
	Metadata *refsys.Metadata `json:"metadata"`
	Owner    refsys.Address   `json:"owner"`
	Approved bool             `json:"approved"`
}

func (e *ProjectEntry) GetMetadata() *refsys.Metadata {
	return e.Metadata
}

func (e *ProjectEntry) Validate() error {
	if err := e.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := e.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}

func (e *ProjectEntry) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(e)
}

func (e *ProjectEntry) Unmarshal(raw []byte) error {
	return amino.UnmarshalBinaryBare(raw, e)
}

// NewProjectEntryBucket returns a bucket holding entries of all deployed
// projects.
func NewProjectEntryBucket() *migration.ModelBucket {
	return migration.NewModelBucket(orm.NewModelBucket("projects", &ProjectEntry{}))
}

// ListedProject is a single element of the project listing.
type ListedProject struct {
	Address  refsys.Address `json:"address"`
	Owner    refsys.Address `json:"owner"`
	Approved bool           `json:"approved"`
}

// ProjectList is the result of listing projects of a registry.
type ProjectList struct {
	Projects []ListedProject `json:"projects"`
}

func (l *ProjectList) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(l)
}

func (l *ProjectList) Unmarshal(raw []byte) error {
	// An empty list is encoded as no bytes at all.
	if len(raw) == 0 {
		*l = ProjectList{}
		return nil
	}
	return amino.UnmarshalBinaryBare(raw, l)
}

// ProjectAddress returns the address of the n-th project deployed by given
// registry.
func ProjectAddress(registry refsys.Address, n uint64) refsys.Address {
	data := make([]byte, len(registry)+8)
	copy(data, registry)
	binary.BigEndian.PutUint64(data[len(registry):], n)
	return refsys.NewCondition("registry", "project", data).Address()
}

func validateFeeBps(bps uint32) error {
	if bps > feesplit.MaxBps {
		return errors.Wrapf(errors.ErrInvalidParams, "fee of %d bps", bps)
	}
	return nil
}
