package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
)

// Overridden at build time with -ldflags.
var (
	version = "dev"
	commit  = ""
)

func getVersion(_ *cli.Context) error {
	v := version
	if commit != "" {
		v += "-" + commit
	}
	fmt.Printf("deckpreload %s (%s/%s)\n", v, runtime.GOOS, runtime.GOARCH)
	return nil
}
