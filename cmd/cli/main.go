// Package main is the entry point for the studycost CLI.
package main

import (
	"os"

	"studycost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
