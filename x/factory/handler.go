package factory

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/x/registry"
)

// RegisterRoutes registers handlers for factory message processing.
func RegisterRoutes(r refsys.Registry) {
	bucket := NewFactoryBucket()
	r.Handle(Kind, pathInitMsg, &initHandler{bucket: bucket})
	r.Handle(Kind, pathDeployRegistryMsg, &deployRegistryHandler{bucket: bucket})
	r.Handle(Kind, pathGetMsg, &getHandler{bucket: bucket})
	r.Handle(Kind, migration.PathUpgradeMsg, migration.NewUpgradeHandler(bucket, stateKey, func() migration.UpgradeableModel {
		return &Factory{}
	}))
}

type initHandler struct {
	bucket *migration.ModelBucket
}

func (h *initHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*InitMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	if self, _ := refsys.GetSelf(ctx); !self.Equals(Address(msg.Owner)) {
		return nil, errors.Wrap(errors.ErrInvalidInput, "factory address does not match owner")
	}
	f := Factory{
		Metadata: &refsys.Metadata{Schema: 1},
		Owner:    msg.Owner,
	}
	if err := h.bucket.Put(db, stateKey, &f); err != nil {
		return nil, errors.Wrap(err, "store factory")
	}
	return &refsys.Result{}, nil
}

type deployRegistryHandler struct {
	bucket *migration.ModelBucket
}

func (h *deployRegistryHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*DeployRegistryMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	var f Factory
	if err := h.bucket.One(db, stateKey, &f); err != nil {
		return nil, errors.Wrap(err, "load factory")
	}
	self, _ := refsys.GetSelf(ctx)

	f.Deployed++
	addr := RegistryAddress(self, f.Deployed)
	_, err := refsys.Spawn(ctx, addr, registry.Kind, &registry.InitMsg{
		Owner:       msg.Owner,
		ApprovalFee: msg.ApprovalFee,
		FeeBps:      msg.FeeBps,
	})
	if err != nil {
		return nil, errors.Wrap(err, "spawn registry")
	}
	if err := h.bucket.Put(db, stateKey, &f); err != nil {
		return nil, errors.Wrap(err, "store factory")
	}
	refsys.GetLogger(ctx).Info("registry deployed", "registry", addr.String(), "owner", msg.Owner.String())
	return &refsys.Result{Data: addr}, nil
}

type getHandler struct {
	bucket *migration.ModelBucket
}

func (h *getHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	if _, ok := m.(*GetMsg); !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	var f Factory
	if err := h.bucket.One(db, stateKey, &f); err != nil {
		return nil, err
	}
	raw, err := f.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	return &refsys.Result{Data: raw}, nil
}
