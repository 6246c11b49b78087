package cliapp

import (
	"context"
	"encoding/hex"

	"github.com/mmqf/mmqf"

	flag "github.com/spf13/pflag"
)

// PopCmd returns the pop command.
func PopCmd(cfg Config) *Command {
	fs := flag.NewFlagSet("pop", flag.ContinueOnError)
	path := fs.String("path", cfg.Path, "queue file `path`")

	return &Command{
		Flags: fs,
		Usage: "pop [flags]",
		Short: "Dequeue the oldest element, printed as hex",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPop(o, *path)
		},
	}
}

func execPop(o *IO, path string) error {
	q, err := mmqf.Open(path)
	if err != nil {
		return err
	}
	defer q.Close()

	slot, err := q.Dequeue()
	if err != nil {
		return err
	}

	o.Println(hex.EncodeToString(slot))

	return nil
}
