package main

import (
	"os"

	"github.com/robmorgan/conductor/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
