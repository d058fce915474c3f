package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/troshab/deckpreload/pkg/deck"
	"github.com/troshab/deckpreload/pkg/preloadlib"
)

func extract(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	d, err := deck.Load(afero.NewOsFs(), path)
	if err != nil {
		return printRuntimeErr("extract", err)
	}
	index := preloadlib.BuildIndex(d.Slides)
	total := 0
	for i, urls := range index {
		if len(urls) == 0 {
			continue
		}
		fmt.Printf("slide %d:\n", i+1)
		for _, u := range urls {
			fmt.Printf("  %s\n", u)
			total++
		}
	}
	fmt.Printf("%d slides, %d image references\n", len(index), total)
	return nil
}
