// Package cmd implements the deckpreload command-line interface: warming a
// deck's image set into the local cache, inspecting the extracted URL index
// and serving the development diagnostic endpoint.
package cmd

import (
	"fmt"

	"github.com/urfave/cli"
)

// Execute runs the CLI with the given arguments.
func Execute(args []string) error {
	app := cli.App{
		Name:         "DeckPreload",
		HelpName:     "deckpreload",
		Usage:        "preload every image of a slide deck before it is needed",
		Version:      version,
		UsageText:    "deckpreload <command> [arguments...]",
		OnUsageError: usageErrorCallback,
		Commands: []cli.Command{
			{
				Name:                   "warm",
				Aliases:                []string{"w"},
				Usage:                  "fetch a deck's images into the local cache",
				Action:                 warm,
				OnUsageError:           usageErrorCallback,
				Flags:                  warmFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:    "extract",
				Aliases: []string{"x"},
				Usage:   "print the per-slide image URL index of a deck",
				Action:  extract,
			},
			{
				Name:         "serve",
				Aliases:      []string{"s"},
				Usage:        "warm a deck while exposing the diagnostic RPC endpoint",
				Action:       serve,
				OnUsageError: usageErrorCallback,
				Flags:        serveFlags,
			},
			{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "print the installed version",
				Action:  getVersion,
			},
		},
		Action:                 warm,
		Flags:                  warmFlags,
		UseShortOptionHandling: true,
		HideVersion:            true,
	}
	return app.Run(args)
}

func usageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	fmt.Printf("%s: %v\n", ctx.App.HelpName, err)
	fmt.Printf("run '%s help' to see available commands\n", ctx.App.HelpName)
	return nil
}
