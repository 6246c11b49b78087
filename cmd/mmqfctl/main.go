// Package main provides mmqfctl, a command-line driver for inspecting and
// manipulating memory-mapped queue files.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mmqf/mmqf/internal/cliapp"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cliapp.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh)

	os.Exit(exitCode)
}
