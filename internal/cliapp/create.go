package cliapp

import (
	"context"

	"github.com/mmqf/mmqf"

	flag "github.com/spf13/pflag"
)

// CreateCmd returns the create command.
func CreateCmd(cfg Config) *Command {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)

	path := fs.String("path", cfg.Path, "queue file `path`")
	schemaID := fs.Uint64("schema", cfg.SchemaID, "opaque schema id")
	capacity := fs.Uint32("capacity", cfg.Capacity, "number of slots")
	slotSize := fs.Uint32("slot-size", cfg.SlotSize, "bytes per slot")
	overwrite := fs.Bool("overwrite", false, "truncate and recreate if the file already exists")

	return &Command{
		Flags: fs,
		Usage: "create [flags]",
		Short: "Create (or attach to) a queue file",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execCreate(o, *path, *schemaID, *capacity, *slotSize, *overwrite)
		},
	}
}

func execCreate(o *IO, path string, schemaID uint64, capacity, slotSize uint32, overwrite bool) error {
	q, err := mmqf.Create(mmqf.Options{
		Path:      path,
		SchemaID:  schemaID,
		Capacity:  capacity,
		SlotSize:  slotSize,
		Overwrite: overwrite,
	})
	if err != nil {
		return err
	}
	defer q.Close()

	o.Printf("created %s (capacity=%d slot_size=%d schema=%d)\n", path, q.Capacity(), q.SlotSize(), q.SchemaID())

	return nil
}
