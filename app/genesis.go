package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/errors"
)

// Genesis file format.
type Genesis struct {
	AppState refsys.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct.
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis

	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrapf(errors.ErrInvalidInput, "loading genesis file: %s", err)
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInvalidInput, "unmarshaling genesis file: %s", err)
	}
	if gen.AppState == nil {
		return gen, errors.Wrap(errors.ErrEmpty, "app_state not set in genesis file")
	}
	return gen, nil
}

// ChainInitializers lets you initialize many extensions with one function.
func ChainInitializers(inits ...refsys.Initializer) refsys.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []refsys.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(ctx refsys.Context, opts refsys.Options, kv refsys.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(ctx, opts, kv); err != nil {
			return err
		}
	}
	return nil
}
