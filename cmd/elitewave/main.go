// Package main is the entry point for the elitewave application.
package main

import (
	"os"

	"github.com/digitallive06-cyber/Elite-wave-GO/cmd/elitewave/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
