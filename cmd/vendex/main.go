package main

import (
	"os"

	"github.com/temcen/vendex/cmd/vendex/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
