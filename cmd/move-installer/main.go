package main

import (
	"os"

	"github.com/move-everything/installer/cmd/cli"
)

func main() {
	// cobra has already printed the error
	if err := cli.GetCommandOptions().Execute(); err != nil {
		os.Exit(1)
	}
}
