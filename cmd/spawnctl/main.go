// Package main is the entry point for the spawnctl CLI.
// The CLI is the terminal tool for driving sessions through the spawner daemon.
package main

import (
	"os"

	"slurmspawn/cmd/spawnctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
