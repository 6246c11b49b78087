package cliapp

import (
	"context"
	"encoding/hex"

	"github.com/mmqf/mmqf"

	flag "github.com/spf13/pflag"
)

// PeekCmd returns the peek command.
func PeekCmd(cfg Config) *Command {
	fs := flag.NewFlagSet("peek", flag.ContinueOnError)
	path := fs.String("path", cfg.Path, "queue file `path`")

	return &Command{
		Flags: fs,
		Usage: "peek [flags]",
		Short: "Print the oldest element as hex without removing it",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPeek(o, *path)
		},
	}
}

func execPeek(o *IO, path string) error {
	q, err := mmqf.Open(path)
	if err != nil {
		return err
	}
	defer q.Close()

	slot, err := q.Peek()
	if err != nil {
		return err
	}

	o.Println(hex.EncodeToString(slot))

	return nil
}
