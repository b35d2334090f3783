package refnode

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
)

// ApprovalChecker answers whether a project was approved by a registry.
type ApprovalChecker interface {
	IsApproved(ctx refsys.Context, registry, project refsys.Address) (bool, error)
}

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r refsys.Registry, checker ApprovalChecker) {
	bucket := NewNodeBucket()
	r.Handle(Kind, pathRecordMsg, &RecordHandler{bucket: bucket, checker: checker})
	r.Handle(Kind, pathGetMsg, &GetHandler{bucket: bucket})
	r.Handle(Kind, migration.PathUpgradeMsg, migration.NewUpgradeHandler(bucket, stateKey, func() migration.UpgradeableModel {
		return &Node{}
	}))
}

// RecordHandler updates the last referrer of the node. The first record
// creates the node.
type RecordHandler struct {
	bucket  *migration.ModelBucket
	checker ApprovalChecker
}

var _ refsys.Handler = (*RecordHandler)(nil)

func (h *RecordHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*RecordMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	self, _ := refsys.GetSelf(ctx)
	if !self.Equals(NodeAddress(msg.Registry, msg.Subject)) {
		return nil, errors.Wrap(errors.ErrInvalidInput, "node address does not match registry and subject")
	}
	sender, ok := refsys.GetSender(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no sender")
	}
	approved, err := h.checker.IsApproved(ctx, msg.Registry, sender)
	if err != nil {
		return nil, errors.Wrap(err, "approval check")
	}
	if !approved {
		return nil, errors.Wrap(errors.ErrUnauthorized, "sender is not an approved project")
	}

	var node Node
	switch err := h.bucket.One(db, stateKey, &node); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		node = Node{
			Metadata: &refsys.Metadata{Schema: 1},
			Registry: msg.Registry,
			Subject:  msg.Subject,
		}
	default:
		return nil, errors.Wrap(err, "load node")
	}
	node.LastReferrer = msg.Referrer
	if err := h.bucket.Put(db, stateKey, &node); err != nil {
		return nil, errors.Wrap(err, "store node")
	}
	return &refsys.Result{}, nil
}

// GetHandler returns the encoded node state.
type GetHandler struct {
	bucket *migration.ModelBucket
}

var _ refsys.Handler = (*GetHandler)(nil)

func (h *GetHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	if _, ok := m.(*GetMsg); !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	var node Node
	if err := h.bucket.One(db, stateKey, &node); err != nil {
		return nil, err
	}
	raw, err := node.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	return &refsys.Result{Data: raw}, nil
}
