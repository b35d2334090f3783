package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/refsys"
	"github.com/iov-one/refsys/app"
	"github.com/iov-one/refsys/errors"
	"github.com/iov-one/refsys/protocol"
	"github.com/iov-one/refsys/store"
	"github.com/tendermint/tendermint/libs/log"
)

const stateFile = "state.db"

func initCmd(logger log.Logger, home string, args []string) error {
	fl := flag.NewFlagSet("init", flag.ExitOnError)
	genesisPath := fl.String("genesis", filepath.Join(home, "genesis.json"), "genesis file to load")
	if err := fl.Parse(args); err != nil {
		return err
	}

	gen, err := app.LoadGenesis(*genesisPath)
	if err != nil {
		return err
	}
	dbPath := filepath.Join(home, stateFile)
	if _, err := os.Stat(dbPath); err == nil {
		return errors.Wrapf(errors.ErrDuplicate, "state already initialized at %s", dbPath)
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	db, err := store.OpenBoltStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := protocol.New(db, logger).InitGenesis(context.Background(), gen.AppState); err != nil {
		return err
	}
	logger.Info("state initialized", "path", dbPath)
	return nil
}

func balanceCmd(logger log.Logger, home string, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(errors.ErrInvalidInput, "usage: balance <address>")
	}
	addr, err := refsys.ParseAddress(args[0])
	if err != nil {
		return err
	}
	return withProtocol(logger, home, func(p *protocol.Protocol) error {
		amount, err := p.Balance(addr)
		if err != nil {
			return err
		}
		fmt.Println(amount)
		return nil
	})
}

func referrerCmd(logger log.Logger, home string, args []string) error {
	if len(args) != 2 {
		return errors.Wrap(errors.ErrInvalidInput, "usage: referrer <registry> <subject>")
	}
	registry, err := refsys.ParseAddress(args[0])
	if err != nil {
		return errors.Wrap(err, "registry")
	}
	subject, err := refsys.ParseAddress(args[1])
	if err != nil {
		return errors.Wrap(err, "subject")
	}
	return withProtocol(logger, home, func(p *protocol.Protocol) error {
		last, err := p.LastReferrer(context.Background(), registry, subject)
		if err != nil {
			return err
		}
		fmt.Println(last)
		return nil
	})
}

func withProtocol(logger log.Logger, home string, fn func(*protocol.Protocol) error) error {
	db, err := store.OpenBoltStore(filepath.Join(home, stateFile))
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(protocol.New(db, logger))
}
