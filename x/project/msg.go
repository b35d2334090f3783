package project

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

const (
	pathInitMsg     = "init"
	pathApproveMsg  = "approve"
	pathReferralMsg = "referral"
	pathGetMsg      = "get"
)

var _ refsys.Msg = (*InitMsg)(nil)

// InitMsg creates a project. It must be sent by the registry the project
// belongs to.
type InitMsg struct {
	Owner       refsys.Address `json:"owner"`
	Registry    refsys.Address `json:"registry"`
	ProjectBps  uint32         `json:"project_bps"`
	UpstreamBps uint32         `json:"upstream_bps"`
	CashbackBps uint32         `json:"cashback_bps"`
	RegistryBps uint32         `json:"registry_bps"`
	ApprovalFee uint64         `json:"approval_fee"`
}

func (InitMsg) Path() string {
	return pathInitMsg
}

func (m *InitMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := m.Registry.Validate(); err != nil {
		return errors.Wrap(err, "registry")
	}
	return validateBps(m.ProjectBps, m.UpstreamBps, m.CashbackBps, m.RegistryBps)
}

var _ refsys.Msg = (*ApproveMsg)(nil)

// ApproveMsg enables referral processing. It must be sent by the project
// registry.
type ApproveMsg struct{}

func (ApproveMsg) Path() string {
	return pathApproveMsg
}

func (*ApproveMsg) Validate() error {
	return nil
}

var _ refsys.Msg = (*ReferralMsg)(nil)

// ReferralMsg reports that Referrer brought Subject to the project. Reward
// is paid by the sender of the message.
type ReferralMsg struct {
	Referrer refsys.Address `json:"referrer"`
	Subject  refsys.Address `json:"subject"`
	Reward   uint64         `json:"reward"`
}

func (ReferralMsg) Path() string {
	return pathReferralMsg
}

func (m *ReferralMsg) Validate() error {
	if m.Reward == 0 {
		return errors.Wrap(errors.ErrInvalidReward, "reward must be positive")
	}
	if err := m.Referrer.Validate(); err != nil {
		return errors.Wrap(err, "referrer")
	}
	if err := m.Subject.Validate(); err != nil {
		return errors.Wrap(err, "subject")
	}
	if m.Referrer.Equals(m.Subject) {
		return errors.Wrap(errors.ErrSelfReferral, "subject cannot refer itself")
	}
	return nil
}

var _ refsys.Msg = (*GetMsg)(nil)

// GetMsg returns the encoded project state.
type GetMsg struct{}

func (GetMsg) Path() string {
	return pathGetMsg
}

func (*GetMsg) Validate() error {
	return nil
}
