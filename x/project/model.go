package project

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/orm"
	"github.com/iov-one/refsys/x/feesplit"
	amino "github.com/tendermint/go-amino"
)

func init() {
	migration.MustRegister(1, &Project{}, migration.NoModification)
}

// Kind is the component kind of projects.
const Kind = "project"

var stateKey = []byte("state")

// Project is the state of a project instance.
type Project struct {
	Metadata *refsys.Metadata `json:"metadata"`
	Owner    refsys.Address   `json:"owner"`
	// Registry that deployed the project. It approves and upgrades it.
	Registry refsys.Address `json:"registry"`

	ProjectBps  uint32 `json:"project_bps"`
	UpstreamBps uint32 `json:"upstream_bps"`
	CashbackBps uint32 `json:"cashback_bps"`
	// RegistryBps is the registry cut, fixed when the project is created.
	RegistryBps uint32 `json:"registry_bps"`
	// ApprovalFee is the fee the owner offered for the approval.
	ApprovalFee uint64 `json:"approval_fee"`

	Approved bool `json:"approved"`
}

var _ migration.UpgradeableModel = (*Project)(nil)

func (p *Project) GetMetadata() *refsys.Metadata {
	return p.Metadata
}

// Upgrader returns the registry that deployed this project.
func (p *Project) Upgrader() refsys.Address {
	return p.Registry
}

// SplitParams returns the fee split parameters. The referrer receives
// everything that is not claimed by any other party.
func (p *Project) SplitParams() feesplit.Params {
	return splitParams(p.ProjectBps, p.UpstreamBps, p.CashbackBps, p.RegistryBps)
}

func (p *Project) Validate() error {
	if err := p.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := p.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := p.Registry.Validate(); err != nil {
		return errors.Wrap(err, "registry")
	}
	return validateBps(p.ProjectBps, p.UpstreamBps, p.CashbackBps, p.RegistryBps)
}

func (p *Project) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(p)
}

func (p *Project) Unmarshal(raw []byte) error {
	return amino.UnmarshalBinaryBare(raw, p)
}

// NewProjectBucket returns a bucket holding the project state.
func NewProjectBucket() *migration.ModelBucket {
	return migration.NewModelBucket(orm.NewModelBucket("project", &Project{}))
}

func validateBps(project, upstream, cashback, registry uint32) error {
	sum := uint64(project) + uint64(upstream) + uint64(cashback) + uint64(registry)
	if sum > feesplit.MaxBps {
		return errors.Wrapf(errors.ErrInvalidParams, "shares sum up to %d bps", sum)
	}
	return nil
}

// splitParams must only be called with values accepted by validateBps.
func splitParams(project, upstream, cashback, registry uint32) feesplit.Params {
	return feesplit.Params{
		ReferrerBps: feesplit.MaxBps - project - upstream - cashback - registry,
		UpstreamBps: upstream,
		CashbackBps: cashback,
		RegistryBps: registry,
	}
}
