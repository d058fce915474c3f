package main

import (
	"os"

	"github.com/troshab/deckpreload/cmd"
)

func main() {
	if err := cmd.Execute(os.Args); err != nil {
		os.Exit(1)
	}
}
