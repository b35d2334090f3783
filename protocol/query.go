package protocol

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/x/factory"
	"github.com/iov-one/refsys/x/project"
	"github.com/iov-one/refsys/x/refnode"
	"github.com/iov-one/refsys/x/registry"
)

// Balance returns the funds held by an account. It waits for the call in
// progress to complete.
func (p *Protocol) Balance(addr refsys.Address) (uint64, error) {
	var amount uint64
	err := p.sub.Exclusive(func() error {
		var err error
		amount, err = p.bank.Balance(addr)
		return err
	})
	return amount, err
}

// Factory returns the state of a factory.
func (p *Protocol) Factory(ctx refsys.Context, addr refsys.Address) (*factory.Factory, error) {
	var f factory.Factory
	if err := p.query(ctx, addr, &factory.GetMsg{}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Registry returns the state of a registry.
func (p *Protocol) Registry(ctx refsys.Context, addr refsys.Address) (*registry.Registry, error) {
	var r registry.Registry
	if err := p.query(ctx, addr, &registry.GetMsg{}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ApprovalFee returns the minimal approval fee of a registry.
func (p *Protocol) ApprovalFee(ctx refsys.Context, addr refsys.Address) (uint64, error) {
	r, err := p.Registry(ctx, addr)
	if err != nil {
		return 0, err
	}
	return r.ApprovalFee, nil
}

// Projects lists projects deployed by a registry.
func (p *Protocol) Projects(ctx refsys.Context, addr refsys.Address) ([]registry.ListedProject, error) {
	var l registry.ProjectList
	if err := p.query(ctx, addr, &registry.ListProjectsMsg{}, &l); err != nil {
		return nil, err
	}
	return l.Projects, nil
}

// Project returns the state of a project.
func (p *Protocol) Project(ctx refsys.Context, addr refsys.Address) (*project.Project, error) {
	var pr project.Project
	if err := p.query(ctx, addr, &project.GetMsg{}, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// Node returns the referral node of a subject. ErrNotFound is returned if
// the subject was never referred within the registry.
func (p *Protocol) Node(ctx refsys.Context, registryAddr, subject refsys.Address) (*refnode.Node, error) {
	if err := registryAddr.Validate(); err != nil {
		return nil, errors.Wrap(err, "registry")
	}
	if err := subject.Validate(); err != nil {
		return nil, errors.Wrap(err, "subject")
	}
	var n refnode.Node
	if err := p.query(ctx, refnode.NodeAddress(registryAddr, subject), &refnode.GetMsg{}, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// LastReferrer returns who referred the subject last, or nil.
func (p *Protocol) LastReferrer(ctx refsys.Context, registryAddr, subject refsys.Address) (refsys.Address, error) {
	n, err := p.Node(ctx, registryAddr, subject)
	switch {
	case err == nil:
		return n.LastReferrer, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// queryAddress is the sender of all read only calls.
var queryAddress = refsys.NewCondition("protocol", "query", []byte("query")).Address()

func (p *Protocol) query(ctx refsys.Context, addr refsys.Address, msg refsys.Msg, dest refsys.Persistent) error {
	res, err := p.sub.Query(ctx, queryAddress, addr, msg)
	if err != nil {
		return err
	}
	if err := dest.Unmarshal(res.Data); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	return nil
}
