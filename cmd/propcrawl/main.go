// Package main is the entry point for the propcrawl CLI.
package main

import (
	"os"

	"github.com/jmylchreest/propcrawl/cmd/propcrawl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
