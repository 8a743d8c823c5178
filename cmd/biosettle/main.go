// Package main is the entry point for the biosettle CLI.
package main

import (
	"os"

	"github.com/cmendoza/biosettle/cmd/biosettle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
