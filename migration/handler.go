package migration

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

// UpgradeableModel is the state of a component instance that is both stored
// in a ModelBucket and can be upgraded.
type UpgradeableModel interface {
	Model
	Upgrader() refsys.Address
}

// NewUpgradeHandler returns a handler for UpgradeMsg. The state of the
// receiving instance is stored in given bucket under given key. newModel must
// return an empty instance of the state.
func NewUpgradeHandler(b *ModelBucket, key []byte, newModel func() UpgradeableModel) refsys.Handler {
	return &upgradeHandler{
		bucket:   b,
		key:      key,
		newModel: newModel,
	}
}

type upgradeHandler struct {
	bucket   *ModelBucket
	key      []byte
	newModel func() UpgradeableModel
}

func (h *upgradeHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*UpgradeMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	caller, ok := refsys.GetSender(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no sender")
	}

	state := h.newModel()
	if err := h.bucket.One(db, h.key, state); err != nil {
		return nil, errors.Wrap(err, "load state")
	}
	from := state.GetMetadata().Schema
	if err := h.migrations().Upgrade(ctx, db, caller, state, msg.ToVersion); err != nil {
		return nil, err
	}
	if err := h.bucket.Put(db, h.key, state); err != nil {
		return nil, errors.Wrap(err, "store state")
	}

	refsys.GetLogger(ctx).Info("instance upgraded",
		"bucket", h.bucket.Name(),
		"from", from,
		"to", msg.ToVersion)
	return &refsys.Result{Log: "upgraded"}, nil
}

func (h *upgradeHandler) migrations() *register {
	return h.bucket.migrations
}
