package protocol

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/app"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/x/cash"
	"github.com/iov-one/refsys/x/factory"
	"github.com/iov-one/refsys/x/feesplit"
	"github.com/iov-one/refsys/x/project"
	"github.com/iov-one/refsys/x/refnode"
	"github.com/iov-one/refsys/x/registry"
	"github.com/tendermint/tendermint/libs/log"
)

// ledgerNamespace is the keyspace of the balances ledger.
const ledgerNamespace = "cash"

// RegisterRoutes registers handlers of all components.
func RegisterRoutes(r refsys.Registry, ctrl project.CashController) {
	factory.RegisterRoutes(r)
	registry.RegisterRoutes(r)
	project.RegisterRoutes(r, ctrl)
	refnode.RegisterRoutes(r, registry.ApprovalChecker{})
}

// Protocol is a running instance of the referral protocol.
type Protocol struct {
	sub  *app.Substrate
	bank *cash.BaseController
}

// New returns a protocol keeping all state in given store.
func New(db refsys.CacheableKVStore, logger log.Logger) *Protocol {
	r := app.NewRouter()
	sub := app.NewSubstrate(db, r).WithLogger(logger)
	// The ledger lives in a namespace of the substrate store.
	bank := cash.NewController(sub.Namespace(ledgerNamespace))
	RegisterRoutes(r, bank)
	return &Protocol{sub: sub, bank: bank}
}

// Substrate returns the substrate all components run on.
func (p *Protocol) Substrate() *app.Substrate {
	return p.sub
}

// InitGenesis loads balances and factories declared in the genesis options.
func (p *Protocol) InitGenesis(ctx refsys.Context, opts refsys.Options) error {
	// Factories are separate instances and do not use the ledger store.
	init := app.ChainInitializers(cash.Initializer{}, factory.Initializer{})
	return p.sub.InitGenesis(ctx, opts, ledgerNamespace, init)
}

// CreateFactory creates the factory owned by given account and returns its
// address.
func (p *Protocol) CreateFactory(ctx refsys.Context, owner refsys.Address) (refsys.Address, error) {
	addr := factory.Address(owner)
	if _, err := p.sub.Deploy(ctx, owner, addr, factory.Kind, &factory.InitMsg{Owner: owner}); err != nil {
		return nil, err
	}
	return addr, nil
}

// DeployRegistry asks a factory to create a registry.
func (p *Protocol) DeployRegistry(
	ctx refsys.Context,
	caller, factoryAddr, owner refsys.Address,
	approvalFee uint64,
	feeBps uint32,
) (refsys.Address, error) {
	res, err := p.sub.Execute(ctx, caller, factoryAddr, &factory.DeployRegistryMsg{
		Owner:       owner,
		ApprovalFee: approvalFee,
		FeeBps:      feeBps,
	})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// DeployProject creates a project owned by the caller within a registry.
func (p *Protocol) DeployProject(
	ctx refsys.Context,
	owner, registryAddr refsys.Address,
	projectBps, upstreamBps, cashbackBps uint32,
	approvalFee uint64,
) (refsys.Address, error) {
	res, err := p.sub.Execute(ctx, owner, registryAddr, &registry.DeployProjectMsg{
		ProjectBps:  projectBps,
		UpstreamBps: upstreamBps,
		CashbackBps: cashbackBps,
		ApprovalFee: approvalFee,
	})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ApproveProject approves a project. Caller must be the registry owner.
func (p *Protocol) ApproveProject(ctx refsys.Context, caller, registryAddr, projectAddr refsys.Address) error {
	_, err := p.sub.Execute(ctx, caller, registryAddr, &registry.ApproveProjectMsg{Project: projectAddr})
	return err
}

// UpdateFees changes the fees of a registry. Caller must be the registry
// owner.
func (p *Protocol) UpdateFees(ctx refsys.Context, caller, registryAddr refsys.Address, approvalFee uint64, feeBps uint32) error {
	_, err := p.sub.Execute(ctx, caller, registryAddr, &registry.UpdateFeesMsg{
		ApprovalFee: approvalFee,
		FeeBps:      feeBps,
	})
	return err
}

// OnReferral reports a referral to a project. The reward is paid by the
// caller.
func (p *Protocol) OnReferral(
	ctx refsys.Context,
	caller, projectAddr, referrer, subject refsys.Address,
	reward uint64,
) (*feesplit.Split, error) {
	res, err := p.sub.Execute(ctx, caller, projectAddr, &project.ReferralMsg{
		Referrer: referrer,
		Subject:  subject,
		Reward:   reward,
	})
	if err != nil {
		return nil, err
	}
	var s feesplit.Split
	if err := s.Unmarshal(res.Data); err != nil {
		return nil, errors.Wrap(err, "unmarshal split")
	}
	return &s, nil
}

// Upgrade sends an upgrade request directly to a component instance.
func (p *Protocol) Upgrade(ctx refsys.Context, caller, addr refsys.Address, toVersion uint32) error {
	_, err := p.sub.Execute(ctx, caller, addr, &migration.UpgradeMsg{ToVersion: toVersion})
	return err
}

// UpgradeProject asks a registry to upgrade one of its projects.
func (p *Protocol) UpgradeProject(ctx refsys.Context, caller, registryAddr, projectAddr refsys.Address, toVersion uint32) error {
	_, err := p.sub.Execute(ctx, caller, registryAddr, &registry.UpgradeProjectMsg{
		Project:   projectAddr,
		ToVersion: toVersion,
	})
	return err
}

// UpgradeNode asks a registry to upgrade the referral node of a subject.
func (p *Protocol) UpgradeNode(ctx refsys.Context, caller, registryAddr, subject refsys.Address, toVersion uint32) error {
	_, err := p.sub.Execute(ctx, caller, registryAddr, &registry.UpgradeNodeMsg{
		Subject:   subject,
		ToVersion: toVersion,
	})
	return err
}
