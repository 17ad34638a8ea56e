package main

import (
	"os"

	"github.com/rpggio/chronos/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
