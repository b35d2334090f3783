package cash

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/migration"
	"github.com/iov-one/refsys/orm"
	amino "github.com/tendermint/go-amino"
)

func init() {
	migration.MustRegister(1, &Wallet{}, migration.NoModification)
}

// Wallet holds the balance of a single account.
type Wallet struct {
	Metadata *refsys.Metadata `json:"metadata"`
	Amount   uint64           `json:"amount"`
}

var _ migration.Model = (*Wallet)(nil)

func (w *Wallet) GetMetadata() *refsys.Metadata {
	return w.Metadata
}

func (w *Wallet) Validate() error {
	if err := w.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return nil
}

func (w *Wallet) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(w)
}

func (w *Wallet) Unmarshal(raw []byte) error {
	return amino.UnmarshalBinaryBare(raw, w)
}

// BucketName is where we store the balances
const BucketName = "wallet"

// NewWalletBucket returns a bucket for storing wallets, keyed by the owner
// address.
func NewWalletBucket() *migration.ModelBucket {
	return migration.NewModelBucket(orm.NewModelBucket(BucketName, &Wallet{}))
}
