package registry

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/x/feesplit"
)

const (
	pathInitMsg           = "init"
	pathDeployProjectMsg  = "deploy_project"
	pathApproveProjectMsg = "approve_project"
	pathIsApprovedMsg     = "is_approved"
	pathUpdateFeesMsg     = "update_fees"
	pathListProjectsMsg   = "list_projects"
	pathGetMsg            = "get"
	pathUpgradeProjectMsg = "upgrade_project"
	pathUpgradeNodeMsg    = "upgrade_node"
)

var _ refsys.Msg = (*InitMsg)(nil)

// InitMsg creates a registry. The sender is the factory.
type InitMsg struct {
	Owner       refsys.Address `json:"owner"`
	ApprovalFee uint64         `json:"approval_fee"`
	FeeBps      uint32         `json:"fee_bps"`
}

func (InitMsg) Path() string {
	return pathInitMsg
}

func (m *InitMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return validateFeeBps(m.FeeBps)
}

var _ refsys.Msg = (*DeployProjectMsg)(nil)

// DeployProjectMsg creates a new, not yet approved, project owned by the
// sender. The registry cut is added to the given shares.
type DeployProjectMsg struct {
	ProjectBps  uint32 `json:"project_bps"`
	UpstreamBps uint32 `json:"upstream_bps"`
	CashbackBps uint32 `json:"cashback_bps"`
	ApprovalFee uint64 `json:"approval_fee"`
}

func (DeployProjectMsg) Path() string {
	return pathDeployProjectMsg
}

func (m *DeployProjectMsg) Validate() error {
	sum := uint64(m.ProjectBps) + uint64(m.UpstreamBps) + uint64(m.CashbackBps)
	if sum > feesplit.MaxBps {
		return errors.Wrapf(errors.ErrInvalidParams, "shares sum up to %d bps", sum)
	}
	return nil
}

var _ refsys.Msg = (*ApproveProjectMsg)(nil)

// ApproveProjectMsg approves a project deployed by this registry. Only the
// owner can send it.
type ApproveProjectMsg struct {
	Project refsys.Address `json:"project"`
}

func (ApproveProjectMsg) Path() string {
	return pathApproveProjectMsg
}

func (m *ApproveProjectMsg) Validate() error {
	return errors.Wrap(m.Project.Validate(), "project")
}

var _ refsys.Msg = (*IsApprovedMsg)(nil)

// IsApprovedMsg asks whether a project is approved. The result data is a
// single byte, 1 when approved.
type IsApprovedMsg struct {
	Project refsys.Address `json:"project"`
}

func (IsApprovedMsg) Path() string {
	return pathIsApprovedMsg
}

func (m *IsApprovedMsg) Validate() error {
	return errors.Wrap(m.Project.Validate(), "project")
}

var _ refsys.Msg = (*UpdateFeesMsg)(nil)

// UpdateFeesMsg changes the registry fees. Projects that are already
// deployed keep the cut they were created with.
type UpdateFeesMsg struct {
	ApprovalFee uint64 `json:"approval_fee"`
	FeeBps      uint32 `json:"fee_bps"`
}

func (UpdateFeesMsg) Path() string {
	return pathUpdateFeesMsg
}

func (m *UpdateFeesMsg) Validate() error {
	return validateFeeBps(m.FeeBps)
}

var _ refsys.Msg = (*ListProjectsMsg)(nil)

// ListProjectsMsg returns all projects deployed by the registry.
type ListProjectsMsg struct{}

func (ListProjectsMsg) Path() string {
	return pathListProjectsMsg
}

func (*ListProjectsMsg) Validate() error {
	return nil
}

var _ refsys.Msg = (*GetMsg)(nil)

// GetMsg returns the encoded registry state.
type GetMsg struct{}

func (GetMsg) Path() string {
	return pathGetMsg
}

func (*GetMsg) Validate() error {
	return nil
}

var _ refsys.Msg = (*UpgradeProjectMsg)(nil)

// UpgradeProjectMsg upgrades a project deployed by the registry.
type UpgradeProjectMsg struct {
	Project   refsys.Address `json:"project"`
	ToVersion uint32         `json:"to_version"`
}

func (UpgradeProjectMsg) Path() string {
	return pathUpgradeProjectMsg
}

func (m *UpgradeProjectMsg) Validate() error {
	if err := m.Project.Validate(); err != nil {
		return errors.Wrap(err, "project")
	}
	if m.ToVersion == 0 {
		return errors.Wrap(errors.ErrEmpty, "version")
	}
	return nil
}

var _ refsys.Msg = (*UpgradeNodeMsg)(nil)

// UpgradeNodeMsg upgrades the referral node of a subject.
type UpgradeNodeMsg struct {
	Subject   refsys.Address `json:"subject"`
	ToVersion uint32         `json:"to_version"`
}

func (UpgradeNodeMsg) Path() string {
	return pathUpgradeNodeMsg
}

func (m *UpgradeNodeMsg) Validate() error {
	if err := m.Subject.Validate(); err != nil {
		return errors.Wrap(err, "subject")
	}
	if m.ToVersion == 0 {
		return errors.Wrap(errors.ErrEmpty, "version")
	}
	return nil
}
