package cliapp

import (
	"context"
	"encoding/json"

	"github.com/mmqf/mmqf"

	flag "github.com/spf13/pflag"
)

type statOutput struct {
	Path           string `json:"path"`
	SchemaID       uint64 `json:"schema_id"`
	Capacity       uint32 `json:"capacity"`
	SlotSize       uint32 `json:"slot_size"`
	Size           uint32 `json:"size"`
	IsEmpty        bool   `json:"is_empty"`
	IsFull         bool   `json:"is_full"`
	BusyIterations uint64 `json:"busy_iterations"`
}

// StatCmd returns the stat command.
func StatCmd(cfg Config) *Command {
	fs := flag.NewFlagSet("stat", flag.ContinueOnError)
	path := fs.String("path", cfg.Path, "queue file `path`")

	return &Command{
		Flags: fs,
		Usage: "stat [flags]",
		Short: "Print queue geometry and size as JSON",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execStat(o, *path)
		},
	}
}

func execStat(o *IO, path string) error {
	q, err := mmqf.Open(path)
	if err != nil {
		return err
	}
	defer q.Close()

	out := statOutput{
		Path:           path,
		SchemaID:       q.SchemaID(),
		Capacity:       q.Capacity(),
		SlotSize:       q.SlotSize(),
		Size:           q.Size(),
		IsEmpty:        q.IsEmpty(),
		IsFull:         q.IsFull(),
		BusyIterations: q.BusyIterations(),
	}

	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	o.Println(string(enc))

	return nil
}
