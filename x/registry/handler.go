package registry

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/orm"
	"github.com/iov-one/refsys/x/project"
	"github.com/iov-one/refsys/x/refnode"
)

// RegisterRoutes registers handlers for registry message processing.
func RegisterRoutes(r refsys.Registry) {
	b := buckets{
		state:    NewRegistryBucket(),
		projects: NewProjectEntryBucket(),
		seq:      orm.NewSequence("projects", "id"),
	}
	r.Handle(Kind, pathInitMsg, &initHandler{b})
	r.Handle(Kind, pathDeployProjectMsg, &deployProjectHandler{b})
	r.Handle(Kind, pathApproveProjectMsg, &approveProjectHandler{b})
	r.Handle(Kind, pathIsApprovedMsg, &isApprovedHandler{b})
	r.Handle(Kind, pathUpdateFeesMsg, &updateFeesHandler{b})
	r.Handle(Kind, pathListProjectsMsg, &listProjectsHandler{b})
	r.Handle(Kind, pathGetMsg, &getHandler{b})
	r.Handle(Kind, pathUpgradeProjectMsg, &upgradeProjectHandler{b})
	r.Handle(Kind, pathUpgradeNodeMsg, &upgradeNodeHandler{b})
	r.Handle(Kind, migration.PathUpgradeMsg, migration.NewUpgradeHandler(b.state, stateKey, func() migration.UpgradeableModel {
		return &Registry{}
	}))
}

type buckets struct {
	state    *migration.ModelBucket
	projects *migration.ModelBucket
	seq      orm.Sequence
}

func (b buckets) load(db refsys.KVStore) (*Registry, error) {
	var r Registry
	if err := b.state.One(db, stateKey, &r); err != nil {
		return nil, errors.Wrap(err, "load registry")
	}
	return &r, nil
}

// loadAsOwner returns the registry state if the message sender is the
// registry owner.
func (b buckets) loadAsOwner(ctx refsys.Context, db refsys.KVStore) (*Registry, error) {
	r, err := b.load(db)
	if err != nil {
		return nil, err
	}
	if sender, _ := refsys.GetSender(ctx); !sender.Equals(r.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "registry owner only")
	}
	return r, nil
}

func (b buckets) entry(db refsys.KVStore, addr refsys.Address) (*ProjectEntry, error) {
	var e ProjectEntry
	if err := b.projects.One(db, addr, &e); err != nil {
		return nil, errors.Wrapf(err, "project %s", addr)
	}
	return &e, nil
}

type initHandler struct {
	buckets
}

func (h *initHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*InitMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	factory, ok := refsys.GetSender(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no factory")
	}
	r := Registry{
		Metadata:    &refsys.Metadata{Schema: 1},
		Owner:       msg.Owner,
		Factory:     factory,
		ApprovalFee: msg.ApprovalFee,
		FeeBps:      msg.FeeBps,
	}
	if err := h.state.Put(db, stateKey, &r); err != nil {
		return nil, errors.Wrap(err, "store registry")
	}
	return &refsys.Result{}, nil
}

type deployProjectHandler struct {
	buckets
}

// Deliver spawns a new project. The result data is the project address.
func (h *deployProjectHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*DeployProjectMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	r, err := h.load(db)
	if err != nil {
		return nil, err
	}
	owner, ok := refsys.GetSender(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no owner")
	}
	self, _ := refsys.GetSelf(ctx)

	n, err := h.seq.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "project sequence")
	}
	addr := ProjectAddress(self, n)
	_, err = refsys.Spawn(ctx, addr, project.Kind, &project.InitMsg{
		Owner:       owner,
		Registry:    self,
		ProjectBps:  msg.ProjectBps,
		UpstreamBps: msg.UpstreamBps,
		CashbackBps: msg.CashbackBps,
		RegistryBps: r.FeeBps,
		ApprovalFee: msg.ApprovalFee,
	})
	if err != nil {
		return nil, errors.Wrap(err, "spawn project")
	}

	entry := ProjectEntry{
		Metadata: &refsys.Metadata{Schema: 1},
		Owner:    owner,
	}
	if err := h.projects.Put(db, addr, &entry); err != nil {
		return nil, errors.Wrap(err, "store project entry")
	}
	r.ProjectCount = n
	if err := h.state.Put(db, stateKey, r); err != nil {
		return nil, errors.Wrap(err, "store registry")
	}
	refsys.GetLogger(ctx).Info("project deployed", "project", addr.String(), "owner", owner.String())
	return &refsys.Result{Data: addr}, nil
}

type approveProjectHandler struct {
	buckets
}

func (h *approveProjectHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*ApproveProjectMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	if _, err := h.loadAsOwner(ctx, db); err != nil {
		return nil, err
	}
	entry, err := h.entry(db, msg.Project)
	if err != nil {
		return nil, err
	}
	if entry.Approved {
		return nil, errors.Wrapf(errors.ErrAlreadyApproved, "project %s", msg.Project)
	}
	if _, err := refsys.Send(ctx, msg.Project, &project.ApproveMsg{}); err != nil {
		return nil, errors.Wrap(err, "approve")
	}
	entry.Approved = true
	if err := h.projects.Put(db, msg.Project, entry); err != nil {
		return nil, errors.Wrap(err, "store project entry")
	}
	return &refsys.Result{}, nil
}

type isApprovedHandler struct {
	buckets
}

func (h *isApprovedHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*IsApprovedMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	switch entry, err := h.entry(db, msg.Project); {
	case err == nil && entry.Approved:
		return &refsys.Result{Data: []byte{1}}, nil
	case err == nil, errors.ErrNotFound.Is(err):
		return &refsys.Result{Data: []byte{0}}, nil
	default:
		return nil, err
	}
}

type updateFeesHandler struct {
	buckets
}

func (h *updateFeesHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*UpdateFeesMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	r, err := h.loadAsOwner(ctx, db)
	if err != nil {
		return nil, err
	}
	r.ApprovalFee = msg.ApprovalFee
	r.FeeBps = msg.FeeBps
	if err := h.state.Put(db, stateKey, r); err != nil {
		return nil, errors.Wrap(err, "store registry")
	}
	return &refsys.Result{}, nil
}

type listProjectsHandler struct {
	buckets
}

func (h *listProjectsHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	if _, ok := m.(*ListProjectsMsg); !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	var (
		list  ProjectList
		entry ProjectEntry
	)
	err := h.projects.Each(db, &entry, func(key []byte) error {
		list.Projects = append(list.Projects, ListedProject{
			Address:  append(refsys.Address{}, key...),
			Owner:    entry.Owner,
			Approved: entry.Approved,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	raw, err := list.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	return &refsys.Result{Data: raw}, nil
}

type getHandler struct {
	buckets
}

func (h *getHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	if _, ok := m.(*GetMsg); !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	r, err := h.load(db)
	if err != nil {
		return nil, err
	}
	raw, err := r.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	return &refsys.Result{Data: raw}, nil
}

type upgradeProjectHandler struct {
	buckets
}

func (h *upgradeProjectHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*UpgradeProjectMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	if _, err := h.loadAsOwner(ctx, db); err != nil {
		return nil, err
	}
	if _, err := h.entry(db, msg.Project); err != nil {
		return nil, err
	}
	return refsys.Send(ctx, msg.Project, &migration.UpgradeMsg{ToVersion: msg.ToVersion})
}

type upgradeNodeHandler struct {
	buckets
}

func (h *upgradeNodeHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*UpgradeNodeMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	if _, err := h.loadAsOwner(ctx, db); err != nil {
		return nil, err
	}
	self, _ := refsys.GetSelf(ctx)
	return refsys.Send(ctx, refnode.NodeAddress(self, msg.Subject), &migration.UpgradeMsg{ToVersion: msg.ToVersion})
}
