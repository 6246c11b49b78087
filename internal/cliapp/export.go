package cliapp

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mmqf/mmqf"
	"github.com/natefinch/atomic"

	flag "github.com/spf13/pflag"
)

type exportSnapshot struct {
	Path     string   `json:"path"`
	SchemaID uint64   `json:"schema_id"`
	Capacity uint32   `json:"capacity"`
	SlotSize uint32   `json:"slot_size"`
	Elements []string `json:"elements"` // hex-encoded, oldest first
}

// ExportCmd returns the export command. Peek only exposes the oldest
// element, so exporting the full contents drains the queue into the
// snapshot and re-enqueues everything in the same order; callers must not
// run producers/consumers concurrently with export.
func ExportCmd(cfg Config) *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	path := fs.String("path", cfg.Path, "queue file `path`")
	out := fs.String("out", "", "output `file` (required)")

	return &Command{
		Flags: fs,
		Usage: "export [flags]",
		Short: "Write a JSON snapshot of the queue's contents",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execExport(o, *path, *out)
		},
	}
}

func execExport(o *IO, path, out string) error {
	if out == "" {
		return fmt.Errorf("export requires --out")
	}

	q, err := mmqf.Open(path)
	if err != nil {
		return err
	}
	defer q.Close()

	n := q.Size()
	elements := make([]string, 0, n)

	for range n {
		slot, err := q.Dequeue()
		if err != nil {
			return fmt.Errorf("draining for export: %w", err)
		}

		elements = append(elements, hex.EncodeToString(slot))
	}

	for _, elem := range elements {
		slot, err := hex.DecodeString(elem)
		if err != nil {
			return err
		}

		if err := q.Enqueue(slot); err != nil {
			return fmt.Errorf("restoring after export: %w", err)
		}
	}

	snap := exportSnapshot{
		Path:     path,
		SchemaID: q.SchemaID(),
		Capacity: q.Capacity(),
		SlotSize: q.SlotSize(),
		Elements: elements,
	}

	enc, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	if err := atomic.WriteFile(out, bytes.NewReader(enc)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	o.Printf("exported %d elements to %s\n", len(elements), out)

	return nil
}
