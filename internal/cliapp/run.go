// Package cliapp implements the mmqfctl command-line driver: flag parsing,
// subcommand dispatch, and the individual subcommands themselves. It is
// kept separate from cmd/mmqfctl so the dispatch logic can be exercised
// without forking a process.
package cliapp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Run is the process entry point. sigCh may be nil (e.g. in tests).
func Run(_ io.Reader, out, errOut io.Writer, args []string, sigCh <-chan os.Signal) int {
	cfg, err := LoadConfig()
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	commands := allCommands(cfg)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	if len(args) < 2 || args[1] == "-h" || args[1] == "--help" {
		printUsage(out, commands)

		if len(args) < 2 {
			return 1
		}

		return 0
	}

	cmdName := args[1]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	cmdIO := NewIO(out, errOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, args[2:])
	}()

	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		fprintln(errOut, "shutting down with 5s timeout...")
		cancel()
	}

	select {
	case <-done:
		fprintln(errOut, "graceful shutdown ok (130)")
		return 130
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")
		return 130
	case <-sigCh:
		fprintln(errOut, "graceful shutdown interrupted, forced exit (130)")
		return 130
	}
}

func allCommands(cfg Config) []*Command {
	return []*Command{
		CreateCmd(cfg),
		StatCmd(cfg),
		PushCmd(cfg),
		PopCmd(cfg),
		PeekCmd(cfg),
		ShellCmd(cfg),
		ExportCmd(cfg),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "mmqfctl - inspect and drive a memory-mapped queue file")
	fprintln(w)
	fprintln(w, "Usage: mmqfctl <command> [args]")
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}

	fprintln(w)
	fprintln(w, "Run 'mmqfctl <command> --help' for command-specific flags.")
	fprintln(w)
	fprintln(w, "Defaults for path/schema/capacity/slot-size can be set in")
	fprintln(w, strings.TrimSpace(`
  $XDG_CONFIG_HOME/mmqf/config.hujson (or ~/.config/mmqf/config.hujson)`))
}
