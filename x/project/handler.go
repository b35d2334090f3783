package project

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/x/cash"
	"github.com/iov-one/refsys/x/feesplit"
	"github.com/iov-one/refsys/x/refnode"
)

// CashController pays the parties of a referral.
// Required functionality is implemented by the x/cash extension.
type CashController interface {
	Pay(ctx refsys.Context, src refsys.Address, payouts []cash.Payout) error
}

// RegisterRoutes registers handlers for project message processing.
func RegisterRoutes(r refsys.Registry, ctrl CashController) {
	bucket := NewProjectBucket()
	r.Handle(Kind, pathInitMsg, &initHandler{bucket: bucket})
	r.Handle(Kind, pathApproveMsg, &approveHandler{bucket: bucket})
	r.Handle(Kind, pathReferralMsg, &referralHandler{bucket: bucket, ctrl: ctrl})
	r.Handle(Kind, pathGetMsg, &getHandler{bucket: bucket})
	r.Handle(Kind, migration.PathUpgradeMsg, migration.NewUpgradeHandler(bucket, stateKey, func() migration.UpgradeableModel {
		return &Project{}
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
	if sender, _ := refsys.GetSender(ctx); !sender.Equals(msg.Registry) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "project must be created by its registry")
	}
	p := Project{
		Metadata:    &refsys.Metadata{Schema: 1},
		Owner:       msg.Owner,
		Registry:    msg.Registry,
		ProjectBps:  msg.ProjectBps,
		UpstreamBps: msg.UpstreamBps,
		CashbackBps: msg.CashbackBps,
		RegistryBps: msg.RegistryBps,
		ApprovalFee: msg.ApprovalFee,
	}
	if err := h.bucket.Put(db, stateKey, &p); err != nil {
		return nil, errors.Wrap(err, "store project")
	}
	return &refsys.Result{}, nil
}

type approveHandler struct {
	bucket *migration.ModelBucket
}

func (h *approveHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	if _, ok := m.(*ApproveMsg); !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	var p Project
	if err := h.bucket.One(db, stateKey, &p); err != nil {
		return nil, errors.Wrap(err, "load project")
	}
	if sender, _ := refsys.GetSender(ctx); !sender.Equals(p.Registry) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "only the registry can approve")
	}
	if p.Approved {
		return nil, errors.Wrap(errors.ErrAlreadyApproved, "project")
	}
	p.Approved = true
	if err := h.bucket.Put(db, stateKey, &p); err != nil {
		return nil, errors.Wrap(err, "store project")
	}
	refsys.GetLogger(ctx).Info("project approved", "owner", p.Owner.String())
	return &refsys.Result{}, nil
}

type referralHandler struct {
	bucket *migration.ModelBucket
	ctrl   CashController
}

// Deliver settles a referral. Payments are committed before the referral
// node is updated. If the node update fails, the payments are not reverted.
func (h *referralHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	msg, ok := m.(*ReferralMsg)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	var p Project
	if err := h.bucket.One(db, stateKey, &p); err != nil {
		return nil, errors.Wrap(err, "load project")
	}
	if !p.Approved {
		return nil, errors.Wrap(errors.ErrNotApproved, "project")
	}
	payer, ok := refsys.GetSender(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no payer")
	}
	self, _ := refsys.GetSelf(ctx)

	upstream, err := refnode.LastReferrer(ctx, p.Registry, msg.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "upstream referrer")
	}
	split, err := feesplit.Calculate(msg.Reward, msg.Referrer, upstream, p.SplitParams())
	if err != nil {
		return nil, err
	}
	raw, err := split.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal split")
	}

	payouts := []cash.Payout{
		{Destination: msg.Referrer, Amount: split.ReferrerAmount},
		{Destination: msg.Subject, Amount: split.CashbackAmount},
		{Destination: self, Amount: split.ProjectAmount},
		{Destination: p.Registry, Amount: split.RegistryAmount},
	}
	if !upstream.IsEmpty() {
		payouts = append(payouts, cash.Payout{Destination: upstream, Amount: split.UpstreamAmount})
	}
	if err := h.ctrl.Pay(ctx, payer, payouts); err != nil {
		return nil, errors.Wrap(err, "pay")
	}

	logger := refsys.GetLogger(ctx)
	if err := refnode.Record(ctx, p.Registry, msg.Subject, msg.Referrer); err != nil {
		logger.Error("referral paid but not recorded",
			"subject", msg.Subject.String(),
			"referrer", msg.Referrer.String(),
			"err", err)
		return nil, err
	}
	logger.Info("referral settled",
		"subject", msg.Subject.String(),
		"referrer", msg.Referrer.String(),
		"upstream", upstream.String(),
		"reward", msg.Reward)
	return &refsys.Result{Data: raw}, nil
}

type getHandler struct {
	bucket *migration.ModelBucket
}

func (h *getHandler) Deliver(ctx refsys.Context, db refsys.KVStore, m refsys.Msg) (*refsys.Result, error) {
	if _, ok := m.(*GetMsg); !ok {
		return nil, errors.WithType(errors.ErrInvalidMsg, m)
	}
	var p Project
	if err := h.bucket.One(db, stateKey, &p); err != nil {
		return nil, err
	}
	raw, err := p.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	return &refsys.Result{Data: raw}, nil
}
