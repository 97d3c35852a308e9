package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/session"
	"github.com/trezcool/csiportal/storage"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up storage
	store, closeStore, err := storage.Open(context.Background(), conf)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		out:     os.Stdout,
		storage: store,
		sessions: session.NewManager(store, session.Options{
			Authenticator: identity.MockAuthenticator{Latency: conf.AuthLatency},
		}),
	}
	err = cli.run(os.Args)
	if cErr := closeStore(); cErr != nil {
		logger.Printf("closing storage: %v", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
