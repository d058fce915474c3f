package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/troshab/deckpreload/internal/diag"
	"github.com/troshab/deckpreload/pkg/logger"
	"github.com/troshab/deckpreload/pkg/preloadlib"
)

var (
	diagAddr string

	serveFlags = append([]cli.Flag{
		cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address for the diagnostic RPC endpoint",
			Value:       "127.0.0.1:7312",
			Destination: &diagAddr,
		},
	}, warmFlags...)
)

// serve warms the deck like warm does, but keeps running with the
// diagnostic JSON-RPC endpoint attached until interrupted.
func serve(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	pre, store, err := buildPreloader(path, nil)
	if errors.Is(err, preloadlib.ErrDisabled) {
		fmt.Println("preloading is disabled for this deck, nothing to serve")
		return nil
	}
	if err != nil {
		return printRuntimeErr("serve", err)
	}
	if store != nil {
		defer store.Close()
	}

	l := logger.NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags))
	ds := diag.NewServer(l, pre, diagAddr, version)
	go func() {
		if err := ds.Start(); err != nil {
			l.Error("diag server: %v", err)
		}
	}()
	defer ds.Close()

	if err := pre.Start(context.Background()); err != nil {
		return printRuntimeErr("serve", err)
	}
	defer pre.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	printSummary(pre)
	return nil
}
