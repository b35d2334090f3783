package registry

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/x/refnode"
)

// ApprovalChecker asks registry instances whether a project was approved.
type ApprovalChecker struct{}

var _ refnode.ApprovalChecker = ApprovalChecker{}

// IsApproved returns false if the registry does not know the project. An
// address that does not hold a registry never approves anything.
func (ApprovalChecker) IsApproved(ctx refsys.Context, registry, project refsys.Address) (bool, error) {
	switch kind, err := refsys.InstanceKind(ctx, registry); {
	case errors.ErrNotFound.Is(err):
		return false, nil
	case err != nil:
		return false, err
	case kind != Kind:
		return false, nil
	}
	res, err := refsys.Send(ctx, registry, &IsApprovedMsg{Project: project})
	if err != nil {
		return false, errors.Wrap(err, "is approved")
	}
	return len(res.Data) == 1 && res.Data[0] == 1, nil
}

// Get returns the state of the registry at given address. It must be called
// while processing a message.
func Get(ctx refsys.Context, addr refsys.Address) (*Registry, error) {
	res, err := refsys.Send(ctx, addr, &GetMsg{})
	if err != nil {
		return nil, errors.Wrap(err, "get registry")
	}
	var r Registry
	if err := r.Unmarshal(res.Data); err != nil {
		return nil, errors.Wrap(err, "unmarshal registry")
	}
	return &r, nil
}
