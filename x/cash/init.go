package cash

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file
// use refsys.Address, so address in hex, not base64
type GenesisAccount struct {
	Address refsys.Address `json:"address"`
	Amount  uint64         `json:"amount"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ refsys.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(ctx refsys.Context, opts refsys.Options, kv refsys.KVStore) error {
	accts := []GenesisAccount{}
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	bucket := NewWalletBucket()
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if err := issue(bucket, kv, acct.Address, acct.Amount); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
	}
	return nil
}
