package migration

import (
	"context"
	"testing"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/orm"
	"github.com/iov-one/refsys/reftest"
	"github.com/iov-one/refsys/reftest/assert"
	"github.com/iov-one/refsys/store"
)

func TestUpgradeHandler(t *testing.T) {
	r := newRegister()
	r.MustRegister(1, &testModel{}, NoModification)
	r.MustRegister(2, &testModel{}, NoModification)

	b := NewModelBucket(orm.NewModelBucket("tests", &testModel{}))
	b.useRegister(r)
	key := []byte("state")
	h := NewUpgradeHandler(b, key, func() UpgradeableModel { return &testModel{} })

	owner := reftest.NewAddress()
	db := store.MemStore()
	assert.Nil(t, b.Put(db, key, &testModel{
		Metadata: &refsys.Metadata{Schema: 1},
		Owner:    owner,
		Count:    3,
	}))

	ctx := refsys.WithSender(context.Background(), reftest.NewAddress())
	_, err := h.Deliver(ctx, db, &UpgradeMsg{ToVersion: 2})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	ctx = refsys.WithSender(context.Background(), owner)
	_, err = h.Deliver(ctx, db, &UpgradeMsg{ToVersion: 2})
	assert.Nil(t, err)

	var got testModel
	assert.Nil(t, b.One(db, key, &got))
	assert.Equal(t, uint32(2), got.Metadata.Schema)
	assert.Equal(t, uint64(3), got.Count)

	_, err = h.Deliver(ctx, db, &UpgradeMsg{ToVersion: 2})
	assert.IsErr(t, errors.ErrAlreadyAtVersion, err)
}

func TestModelBucketRejectsUnknownSchema(t *testing.T) {
	r := newRegister()
	r.MustRegister(1, &testModel{}, NoModification)

	raw := orm.NewModelBucket("tests", &testModel{})
	b := NewModelBucket(raw)
	b.useRegister(r)

	db := store.MemStore()
	owner := reftest.NewAddress()

	err := b.Put(db, []byte("a"), &testModel{Metadata: &refsys.Metadata{Schema: 2}, Owner: owner})
	assert.IsErr(t, errors.ErrSchema, err)

	// Written by a newer logic version, bypassing the schema check.
	assert.Nil(t, raw.Put(db, []byte("b"), &testModel{Metadata: &refsys.Metadata{Schema: 2}, Owner: owner}))
	var m testModel
	assert.IsErr(t, errors.ErrSchema, b.One(db, []byte("b"), &m))

	assert.Nil(t, b.Put(db, []byte("c"), &testModel{Metadata: &refsys.Metadata{Schema: 1}, Owner: owner}))
	assert.Nil(t, b.One(db, []byte("c"), &m))
}

func TestUpgradeMsgValidate(t *testing.T) {
	assert.IsErr(t, errors.ErrEmpty, (&UpgradeMsg{}).Validate())
	assert.Nil(t, (&UpgradeMsg{ToVersion: 1}).Validate())
	assert.Equal(t, PathUpgradeMsg, (&UpgradeMsg{}).Path())
}
