// Package main provides the quel command-line compiler.
package main

import (
	"os"

	"github.com/quellabs/quel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
