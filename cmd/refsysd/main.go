package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/refsys"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome = "home"
	varHome  *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".refsys")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Println("refsysd")
	fmt.Println("          Referral attribution and fee distribution")
	fmt.Println("")
	fmt.Println("help      Print this message")
	fmt.Println("init      Load the genesis file into a new state database")
	fmt.Println("balance   Print the balance of an account")
	fmt.Println("referrer  Print the last referrer of a subject within a registry")
	fmt.Println("version   Print the app version")
	fmt.Println(`
  -home string
        directory to store files under (default "$HOME/.refsys")`)
}

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "refsys")

	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	var err error
	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = initCmd(logger, *varHome, rest)
	case "balance":
		err = balanceCmd(logger, *varHome, rest)
	case "referrer":
		err = referrerCmd(logger, *varHome, rest)
	case "version":
		fmt.Println(refsys.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
}
