// Package main is the entry point for the statscrape CLI.
package main

import (
	"os"

	"github.com/jmylchreest/statscrape/cmd/statscrape/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
