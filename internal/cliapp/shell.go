package cliapp

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmqf/mmqf"
	"github.com/peterh/liner"

	flag "github.com/spf13/pflag"
)

// ShellCmd returns the shell command, an interactive REPL over an open
// queue.
func ShellCmd(cfg Config) *Command {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	path := fs.String("path", cfg.Path, "queue file `path`")

	return &Command{
		Flags: fs,
		Usage: "shell [flags]",
		Short: "Interactive REPL for push/pop/peek/stat",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execShell(o, *path)
		},
	}
}

type shellREPL struct {
	q     *mmqf.Queue
	path  string
	out   *IO
	liner *liner.State
}

func execShell(o *IO, path string) error {
	q, err := mmqf.Open(path)
	if err != nil {
		return err
	}
	defer q.Close()

	r := &shellREPL{q: q, path: path, out: o}

	return r.run()
}

func shellHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".mmqfctl_history")
}

func (r *shellREPL) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(shellHistoryFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		f.Close()
	}

	r.out.Printf("mmqf shell - %s (capacity=%d slot_size=%d)\n", r.path, r.q.Capacity(), r.q.SlotSize())
	r.out.Println("Type 'help' for available commands.")
	r.out.Println()

	for {
		line, err := r.liner.Prompt("mmqf> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				r.out.Println("bye")
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		if !r.dispatch(line) {
			break
		}
	}

	r.saveHistory()

	return nil
}

func (r *shellREPL) saveHistory() {
	path := shellHistoryFile()
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = r.liner.WriteHistory(f)
}

// dispatch runs one command line. It returns false when the REPL should
// exit.
func (r *shellREPL) dispatch(line string) bool {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "push":
		r.cmdPush(args)
	case "pop":
		r.cmdPop()
	case "peek":
		r.cmdPeek()
	case "stat":
		r.cmdStat()
	case "help":
		r.printHelp()
	case "exit", "quit", "q":
		return false
	default:
		r.out.Printf("unknown command: %s (type 'help')\n", cmd)
	}

	return true
}

func (r *shellREPL) cmdPush(args []string) {
	if len(args) == 0 {
		r.out.Println("usage: push <hex>")
		return
	}

	payload, err := hex.DecodeString(args[0])
	if err != nil {
		r.out.Printf("error: %v\n", err)
		return
	}

	slot, err := mmqf.BytesBridge{}.ToBytes(payload, r.q.SlotSize())
	if err != nil {
		r.out.Printf("error: %v\n", err)
		return
	}

	if err := r.q.Enqueue(slot); err != nil {
		r.out.Printf("error: %v\n", err)
		return
	}

	r.out.Println("ok")
}

func (r *shellREPL) cmdPop() {
	slot, err := r.q.Dequeue()
	if err != nil {
		r.out.Printf("error: %v\n", err)
		return
	}

	r.out.Println(hex.EncodeToString(slot))
}

func (r *shellREPL) cmdPeek() {
	slot, err := r.q.Peek()
	if err != nil {
		r.out.Printf("error: %v\n", err)
		return
	}

	r.out.Println(hex.EncodeToString(slot))
}

func (r *shellREPL) cmdStat() {
	r.out.Printf("size=%d capacity=%d slot_size=%d schema=%d busy_iterations=%d\n",
		r.q.Size(), r.q.Capacity(), r.q.SlotSize(), r.q.SchemaID(), r.q.BusyIterations())
}

func (r *shellREPL) printHelp() {
	r.out.Println("Commands:")
	r.out.Println("  push <hex>   Enqueue a hex-encoded payload")
	r.out.Println("  pop          Dequeue the oldest element")
	r.out.Println("  peek         Show the oldest element without removing it")
	r.out.Println("  stat         Show queue geometry and size")
	r.out.Println("  help         Show this help")
	r.out.Println("  exit/quit/q  Exit")
}

func (r *shellREPL) completer(line string) []string {
	commands := []string{"push", "pop", "peek", "stat", "help", "exit", "quit"}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}
