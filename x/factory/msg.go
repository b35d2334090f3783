package factory

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/x/feesplit"
)

const (
	pathInitMsg           = "init"
	pathDeployRegistryMsg = "deploy_registry"
	pathGetMsg            = "get"
)

var _ refsys.Msg = (*InitMsg)(nil)

// InitMsg creates a factory. It must be delivered to the address returned
// by Address for the owner.
type InitMsg struct {
	Owner refsys.Address `json:"owner"`
}

func (InitMsg) Path() string {
	return pathInitMsg
}

func (m *InitMsg) Validate() error {
	return errors.Wrap(m.Owner.Validate(), "owner")
}

var _ refsys.Msg = (*DeployRegistryMsg)(nil)

// DeployRegistryMsg creates a registry owned by Owner. The result data is
// the address of the new registry.
type DeployRegistryMsg struct {
	Owner       refsys.Address `json:"owner"`
	ApprovalFee uint64         `json:"approval_fee"`
	FeeBps      uint32         `json:"fee_bps"`
}

func (DeployRegistryMsg) Path() string {
	return pathDeployRegistryMsg
}

func (m *DeployRegistryMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if m.FeeBps > feesplit.MaxBps {
		return errors.Wrapf(errors.ErrInvalidParams, "fee of %d bps", m.FeeBps)
	}
	return nil
}

var _ refsys.Msg = (*GetMsg)(nil)

// GetMsg returns the encoded factory state.
type GetMsg struct{}

func (GetMsg) Path() string {
	return pathGetMsg
}

func (*GetMsg) Validate() error {
	return nil
}
