package main

import (
	"os"

	"github.com/gsocket-tools/gsmon/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
