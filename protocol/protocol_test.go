package protocol

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/app"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/reftest"
	"github.com/iov-one/refsys/store"
	"github.com/iov-one/refsys/x/cash"
	"github.com/iov-one/refsys/x/factory"
	"github.com/iov-one/refsys/x/project"
	"github.com/iov-one/refsys/x/refnode"
	"github.com/iov-one/refsys/x/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func init() {
	migration.MustRegister(2, &registry.Registry{}, migration.NoModification)
	migration.MustRegister(2, &project.Project{}, migration.NoModification)
	migration.MustRegister(2, &refnode.Node{}, migration.NoModification)
}

func genesis(t testing.TB, balances map[string]uint64, factoryOwners ...refsys.Address) refsys.Options {
	t.Helper()
	var accounts []cash.GenesisAccount
	for addr, amount := range balances {
		accounts = append(accounts, cash.GenesisAccount{
			Address: reftest.ParseAddress(t, addr),
			Amount:  amount,
		})
	}
	var factories []factory.GenesisFactory
	for _, owner := range factoryOwners {
		factories = append(factories, factory.GenesisFactory{Owner: owner})
	}
	opts := refsys.Options{}
	for key, value := range map[string]interface{}{"cash": accounts, "factory": factories} {
		raw, err := json.Marshal(value)
		require.NoError(t, err)
		opts[key] = raw
	}
	return opts
}

type actors struct {
	factoryOwner, refSysOwner, projectOwner refsys.Address
	bob, alice, jerry                       refsys.Address
}

func newActors() actors {
	return actors{
		factoryOwner: reftest.NewAddress(),
		refSysOwner:  reftest.NewAddress(),
		projectOwner: reftest.NewAddress(),
		bob:          reftest.NewAddress(),
		alice:        reftest.NewAddress(),
		jerry:        reftest.NewAddress(),
	}
}

// setup creates a registry with a single approved project.
func setup(t *testing.T, p *Protocol, a actors) (reg, proj refsys.Address) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, p.InitGenesis(ctx, genesis(t, map[string]uint64{
		a.projectOwner.String(): 50000000,
	}, a.factoryOwner)))

	reg, err := p.DeployRegistry(ctx, a.factoryOwner, factory.Address(a.factoryOwner), a.refSysOwner, 300, 1000)
	require.NoError(t, err)
	proj, err = p.DeployProject(ctx, a.projectOwner, reg, 500, 500, 500, 100)
	require.NoError(t, err)
	require.NoError(t, p.ApproveProject(ctx, a.refSysOwner, reg, proj))
	return reg, proj
}

func TestReferralScenario(t *testing.T) {
	ctx := context.Background()
	p := New(store.MemStore(), log.NewNopLogger())
	a := newActors()

	require.NoError(t, p.InitGenesis(ctx, genesis(t, map[string]uint64{
		a.projectOwner.String(): 50000000,
	}, a.factoryOwner)))

	fac := factory.Address(a.factoryOwner)
	f, err := p.Factory(ctx, fac)
	require.NoError(t, err)
	assert.Equal(t, a.factoryOwner, f.Owner)

	reg, err := p.DeployRegistry(ctx, a.factoryOwner, fac, a.refSysOwner, 300, 1000)
	require.NoError(t, err)
	fee, err := p.ApprovalFee(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), fee)

	proj, err := p.DeployProject(ctx, a.projectOwner, reg, 500, 500, 500, 100)
	require.NoError(t, err)
	pr, err := p.Project(ctx, proj)
	require.NoError(t, err)
	assert.Equal(t, a.projectOwner, pr.Owner)
	assert.Equal(t, uint64(100), pr.ApprovalFee)
	assert.False(t, pr.Approved)

	reward := uint64(1000000)
	_, err = p.OnReferral(ctx, a.projectOwner, proj, a.bob, a.alice, reward)
	require.True(t, errors.ErrNotApproved.Is(err), "%+v", err)

	err = p.ApproveProject(ctx, a.projectOwner, reg, proj)
	require.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)
	require.NoError(t, p.ApproveProject(ctx, a.refSysOwner, reg, proj))
	pr, err = p.Project(ctx, proj)
	require.NoError(t, err)
	assert.True(t, pr.Approved)
	err = p.ApproveProject(ctx, a.refSysOwner, reg, proj)
	require.True(t, errors.ErrAlreadyApproved.Is(err), "%+v", err)

	parties := []refsys.Address{a.projectOwner, a.bob, a.alice, a.jerry, reg, proj}
	balances := func() []uint64 {
		out := make([]uint64, len(parties))
		var err error
		for i, addr := range parties {
			out[i], err = p.Balance(addr)
			require.NoError(t, err)
		}
		return out
	}
	sum := func(values []uint64) (total uint64) {
		for _, v := range values {
			total += v
		}
		return total
	}

	before := balances()
	split, err := p.OnReferral(ctx, a.projectOwner, proj, a.bob, a.alice, reward)
	require.NoError(t, err)
	after := balances()

	assert.Equal(t, reward, split.Total())
	assert.Equal(t, sum(before), sum(after))
	assert.True(t, after[1]-before[1] >= reward*60/100, "bob got %d", after[1]-before[1])
	assert.True(t, after[2]-before[2] >= reward*5/100, "alice got %d", after[2]-before[2])
	assert.Equal(t, uint64(800000), after[1]-before[1])
	assert.Equal(t, uint64(50000), after[2]-before[2])
	last, err := p.LastReferrer(ctx, reg, a.alice)
	require.NoError(t, err)
	assert.Equal(t, a.bob, last)

	// Referring alice again updates her referrer. Bob is paid as the
	// upstream referrer.
	before = after
	split, err = p.OnReferral(ctx, a.projectOwner, proj, a.jerry, a.alice, reward)
	require.NoError(t, err)
	after = balances()
	assert.Equal(t, a.bob, split.Upstream)
	assert.Equal(t, uint64(50000), after[1]-before[1])
	assert.Equal(t, uint64(50000), after[2]-before[2])
	assert.Equal(t, uint64(750000), after[3]-before[3])
	assert.Equal(t, uint64(100000), after[4]-before[4])
	assert.Equal(t, uint64(50000), after[5]-before[5])
	last, err = p.LastReferrer(ctx, reg, a.alice)
	require.NoError(t, err)
	assert.Equal(t, a.jerry, last)

	// Bob was never referred.
	last, err = p.LastReferrer(ctx, reg, a.bob)
	require.NoError(t, err)
	assert.Nil(t, last)

	_, err = p.OnReferral(ctx, a.projectOwner, proj, a.alice, a.alice, reward)
	require.True(t, errors.ErrSelfReferral.Is(err), "%+v", err)
	_, err = p.OnReferral(ctx, a.projectOwner, proj, a.bob, a.alice, 0)
	require.True(t, errors.ErrInvalidReward.Is(err), "%+v", err)

	projects, err := p.Projects(ctx, reg)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, proj, projects[0].Address)
	assert.True(t, projects[0].Approved)
}

func TestReferralWithoutFunds(t *testing.T) {
	ctx := context.Background()
	p := New(store.MemStore(), log.NewNopLogger())
	a := newActors()
	_, proj := setup(t, p, a)

	broke := reftest.NewAddress()
	_, err := p.OnReferral(ctx, broke, proj, a.bob, a.alice, 100)
	require.True(t, errors.ErrInsufficientAmount.Is(err), "%+v", err)

	for _, addr := range []refsys.Address{broke, a.bob, a.alice, proj} {
		b, err := p.Balance(addr)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), b)
	}
	r, err := p.Project(ctx, proj)
	require.NoError(t, err)
	last, err := p.LastReferrer(ctx, r.Registry, a.alice)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestConcurrentReferrals(t *testing.T) {
	ctx := context.Background()
	p := New(store.MemStore(), log.NewNopLogger())
	a := newActors()
	reg, proj := setup(t, p, a)

	const (
		rounds = 20
		reward = 1000
	)
	parties := []refsys.Address{a.projectOwner, a.bob, a.alice, a.jerry}
	total := func() uint64 {
		var sum uint64
		for _, addr := range parties {
			b, err := p.Balance(addr)
			if err != nil {
				t.Error(err)
			}
			sum += b
		}
		return sum
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			referrer := a.bob
			if i%2 == 1 {
				referrer = a.jerry
			}
			if _, err := p.OnReferral(ctx, a.projectOwner, proj, referrer, a.alice, reward); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := p.Balance(a.bob); err != nil {
				t.Error(err)
				return
			}
			if _, err := p.LastReferrer(ctx, reg, a.alice); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()

	owner, err := p.Balance(a.projectOwner)
	require.NoError(t, err)
	assert.Equal(t, uint64(50000000-rounds*reward), owner)
	// Registry and project cuts leave the parties.
	assert.Equal(t, uint64(50000000-rounds*reward*15/100), total())
}

func TestNodeQueryValidatesAddresses(t *testing.T) {
	ctx := context.Background()
	p := New(store.MemStore(), log.NewNopLogger())
	a := newActors()
	reg, proj := setup(t, p, a)
	_, err := p.OnReferral(ctx, a.projectOwner, proj, a.bob, a.alice, 1000)
	require.NoError(t, err)

	// Shifting bytes between the registry and the subject must not
	// resolve to the same node.
	joined := append(append([]byte{}, reg...), a.alice...)
	shortReg, longSubject := refsys.Address(joined[:19]), refsys.Address(joined[19:])

	cases := map[string]struct {
		registry, subject refsys.Address
	}{
		"short registry": {shortReg, longSubject},
		"empty registry": {nil, a.alice},
		"empty subject":  {reg, nil},
		"short subject":  {reg, a.alice[:10]},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Node(ctx, tc.registry, tc.subject)
			require.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)
			last, err := p.LastReferrer(ctx, tc.registry, tc.subject)
			require.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)
			assert.Nil(t, last)
		})
	}

	last, err := p.LastReferrer(ctx, reg, a.alice)
	require.NoError(t, err)
	assert.Equal(t, a.bob, last)
}

func TestUpgradePreservesState(t *testing.T) {
	ctx := context.Background()
	p := New(store.MemStore(), log.NewNopLogger())
	a := newActors()
	reg, proj := setup(t, p, a)
	_, err := p.OnReferral(ctx, a.projectOwner, proj, a.bob, a.alice, 1000)
	require.NoError(t, err)

	regBefore, err := p.Registry(ctx, reg)
	require.NoError(t, err)
	projBefore, err := p.Project(ctx, proj)
	require.NoError(t, err)
	nodeBefore, err := p.Node(ctx, reg, a.alice)
	require.NoError(t, err)

	err = p.Upgrade(ctx, a.projectOwner, reg, 2)
	require.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)
	err = p.Upgrade(ctx, a.projectOwner, proj, 2)
	require.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)

	require.NoError(t, p.Upgrade(ctx, a.refSysOwner, reg, 2))
	require.NoError(t, p.UpgradeProject(ctx, a.refSysOwner, reg, proj, 2))
	require.NoError(t, p.UpgradeNode(ctx, a.refSysOwner, reg, a.alice, 2))
	err = p.Upgrade(ctx, a.refSysOwner, reg, 2)
	require.True(t, errors.ErrAlreadyAtVersion.Is(err), "%+v", err)
	err = p.UpgradeNode(ctx, a.refSysOwner, reg, a.alice, 2)
	require.True(t, errors.ErrAlreadyAtVersion.Is(err), "%+v", err)

	regAfter, err := p.Registry(ctx, reg)
	require.NoError(t, err)
	projAfter, err := p.Project(ctx, proj)
	require.NoError(t, err)
	nodeAfter, err := p.Node(ctx, reg, a.alice)
	require.NoError(t, err)

	for _, m := range []interface {
		GetMetadata() *refsys.Metadata
	}{regAfter, projAfter, nodeAfter} {
		assert.Equal(t, uint32(2), m.GetMetadata().Schema)
		m.GetMetadata().Schema = 1
	}
	assert.Equal(t, regBefore, regAfter)
	assert.Equal(t, projBefore, projAfter)
	assert.Equal(t, nodeBefore, nodeAfter)

	_, err = p.OnReferral(ctx, a.projectOwner, proj, a.jerry, a.alice, 1000)
	require.NoError(t, err)
	last, err := p.LastReferrer(ctx, reg, a.alice)
	require.NoError(t, err)
	assert.Equal(t, a.jerry, last)
}

func TestGenesisFile(t *testing.T) {
	gen, err := app.LoadGenesis("testdata/genesis.json")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state.db")
	db, err := store.OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, New(db, log.NewNopLogger()).InitGenesis(context.Background(), gen.AppState))
	require.NoError(t, db.Close())

	// State survives reopening the store.
	db, err = store.OpenBoltStore(path)
	require.NoError(t, err)
	defer db.Close()
	p := New(db, log.NewNopLogger())

	rich := reftest.ParseAddress(t, "1111111111111111111111111111111111111111")
	b, err := p.Balance(rich)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000000), b)

	owner := reftest.ParseAddress(t, "3333333333333333333333333333333333333333")
	f, err := p.Factory(context.Background(), factory.Address(owner))
	require.NoError(t, err)
	assert.Equal(t, owner, f.Owner)
	assert.Equal(t, uint64(0), f.Deployed)

	reg, err := p.DeployRegistry(context.Background(), rich, factory.Address(owner), rich, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, factory.RegistryAddress(factory.Address(owner), 1), reg)
}
