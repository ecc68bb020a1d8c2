package main

import (
	"os"

	"github.com/hnaderi/pctl/internal/cli"
	"github.com/hnaderi/pctl/internal/logging"
)

// main is the entry point for the pctl CLI binary.
func main() {
	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
	if err := cli.Execute(os.Args[1:], logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
