package main

import (
	"os"

	"github.com/isheraz/stroll-test/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
