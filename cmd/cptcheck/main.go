// Package main provides the cptcheck command.
package main

import (
	"os"

	"github.com/leapstack-labs/cptcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
