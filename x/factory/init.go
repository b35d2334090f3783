package factory

import (
	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

const optKey = "factory"

// GenesisFactory declares a factory created at genesis.
type GenesisFactory struct {
	Owner refsys.Address `json:"owner"`
}

// Initializer creates factories declared in the genesis file. It must run
// with a dispatcher in the context, because every factory is a separate
// instance.
type Initializer struct{}

var _ refsys.Initializer = Initializer{}

func (Initializer) FromGenesis(ctx refsys.Context, opts refsys.Options, kv refsys.KVStore) error {
	var factories []GenesisFactory
	if err := opts.ReadOptions(optKey, &factories); err != nil {
		return err
	}
	for i, f := range factories {
		if _, err := refsys.Spawn(ctx, Address(f.Owner), Kind, &InitMsg{Owner: f.Owner}); err != nil {
			return errors.Wrapf(err, "factory %d", i)
		}
	}
	return nil
}
