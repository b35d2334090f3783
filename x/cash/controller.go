package cash

import (
	"math"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
)

// Payout is a single transfer made as part of a payment.
type Payout struct {
	Destination refsys.Address
	Amount      uint64
}

// Controller is the functionality needed by components that move funds.
type Controller interface {
	// Balance returns the amount held by given account. Unknown accounts
	// hold nothing.
	Balance(addr refsys.Address) (uint64, error)

	// Issue credits given account with newly created funds.
	Issue(ctx refsys.Context, dest refsys.Address, amount uint64) error

	// MoveCoins moves the given amount from src to dest.
	MoveCoins(ctx refsys.Context, src, dest refsys.Address, amount uint64) error

	// Pay moves funds from src to all destinations. Either all payouts
	// are applied, or none.
	Pay(ctx refsys.Context, src refsys.Address, payouts []Payout) error
}

// BaseController is a Controller backed by a store that is owned by the
// ledger.
type BaseController struct {
	db     refsys.CacheableKVStore
	bucket *migration.ModelBucket
}

var _ Controller = (*BaseController)(nil)

// NewController returns a controller that keeps all balances in given store.
func NewController(db refsys.CacheableKVStore) *BaseController {
	return &BaseController{
		db:     db,
		bucket: NewWalletBucket(),
	}
}

func (c *BaseController) Balance(addr refsys.Address) (uint64, error) {
	w, err := c.wallet(c.db, addr)
	if err != nil {
		return 0, err
	}
	return w.Amount, nil
}

// Issue attempts to add the given amount of funds to the destination
// address. Fails if it overflows the wallet.
func (c *BaseController) Issue(ctx refsys.Context, dest refsys.Address, amount uint64) error {
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	return issue(c.bucket, c.db, dest, amount)
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// funds, it fails.
func (c *BaseController) MoveCoins(ctx refsys.Context, src, dest refsys.Address, amount uint64) error {
	return c.Pay(ctx, src, []Payout{{Destination: dest, Amount: amount}})
}

// Pay moves funds from src to every payout destination. Payouts of zero are
// skipped. All changes are made on a cache that is written only if every
// payout succeeded.
func (c *BaseController) Pay(ctx refsys.Context, src refsys.Address, payouts []Payout) error {
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	var total uint64
	for i, p := range payouts {
		if err := p.Destination.Validate(); err != nil {
			return errors.Wrapf(err, "payout %d destination", i)
		}
		if total > math.MaxUint64-p.Amount {
			return errors.Wrap(errors.ErrOverflow, "payouts total")
		}
		total += p.Amount
	}
	if total == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "nothing to pay")
	}

	cache := c.db.CacheWrap()
	for i, p := range payouts {
		if p.Amount == 0 {
			continue
		}
		if err := moveCoins(c.bucket, cache, src, p.Destination, p.Amount); err != nil {
			cache.Discard()
			return errors.Wrapf(err, "payout %d", i)
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write")
	}

	refsys.GetLogger(ctx).Debug("payment",
		"source", src.String(),
		"payouts", len(payouts),
		"total", total)
	return nil
}

func (c *BaseController) wallet(db refsys.ReadOnlyKVStore, addr refsys.Address) (*Wallet, error) {
	return loadWallet(c.bucket, db, addr)
}

func loadWallet(b *migration.ModelBucket, db refsys.ReadOnlyKVStore, addr refsys.Address) (*Wallet, error) {
	var w Wallet
	switch err := b.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{Metadata: &refsys.Metadata{Schema: 1}}, nil
	default:
		return nil, err
	}
}

func moveCoins(b *migration.ModelBucket, db refsys.KVStore, src, dest refsys.Address, amount uint64) error {
	sender, err := loadWallet(b, db, src)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	if sender.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "balance %d, required %d", sender.Amount, amount)
	}
	sender.Amount -= amount
	if err := b.Put(db, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}
	return issue(b, db, dest, amount)
}

func issue(b *migration.ModelBucket, db refsys.KVStore, dest refsys.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	recipient, err := loadWallet(b, db, dest)
	if err != nil {
		return errors.Wrap(err, "recipient")
	}
	if recipient.Amount > math.MaxUint64-amount {
		return errors.Wrap(errors.ErrOverflow, "recipient balance")
	}
	recipient.Amount += amount
	return b.Put(db, dest, recipient)
}
