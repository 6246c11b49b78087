package cliapp

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/mmqf/mmqf"

	flag "github.com/spf13/pflag"
)

// PushCmd returns the push command, which encodes a hex payload from argv
// into a fixed-width slot and enqueues it.
func PushCmd(cfg Config) *Command {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	path := fs.String("path", cfg.Path, "queue file `path`")

	return &Command{
		Flags: fs,
		Usage: "push <hex> [flags]",
		Short: "Enqueue a hex-encoded payload",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execPush(o, *path, args)
		},
	}
}

func execPush(o *IO, path string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("push requires a hex-encoded payload argument")
	}

	payload, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("decoding hex payload: %w", err)
	}

	q, err := mmqf.Open(path)
	if err != nil {
		return err
	}
	defer q.Close()

	slot, err := mmqf.BytesBridge{}.ToBytes(payload, q.SlotSize())
	if err != nil {
		return err
	}

	if err := q.Enqueue(slot); err != nil {
		return err
	}

	o.Println("ok")

	return nil
}
