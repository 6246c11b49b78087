package cliapp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func Test_Run_Export_WritesSnapshotAndPreservesQueueContents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "q.mmqf")
	snapshotPath := filepath.Join(dir, "snapshot.json")

	if _, stderr, exit := runCLI(t, "create", "--path", path, "--capacity", "4", "--slot-size", "2"); exit != 0 {
		t.Fatalf("create failed: %s", stderr)
	}

	if _, stderr, exit := runCLI(t, "push", "--path", path, "0001"); exit != 0 {
		t.Fatalf("push failed: %s", stderr)
	}

	if _, stderr, exit := runCLI(t, "push", "--path", path, "0002"); exit != 0 {
		t.Fatalf("push failed: %s", stderr)
	}

	if _, stderr, exit := runCLI(t, "export", "--path", path, "--out", snapshotPath); exit != 0 {
		t.Fatalf("export failed: %s", stderr)
	}

	raw, err := os.ReadFile(snapshotPath)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}

	var snap exportSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	if len(snap.Elements) != 2 {
		t.Fatalf("snapshot has %d elements, want 2", len(snap.Elements))
	}

	if snap.Elements[0] != "0001" || snap.Elements[1] != "0002" {
		t.Fatalf("snapshot elements=%v, want [0001 0002] in order", snap.Elements)
	}

	stdout, stderr, exit := runCLI(t, "pop", "--path", path)
	if exit != 0 {
		t.Fatalf("pop after export failed: %s", stderr)
	}

	if stdout != "0001\n" {
		t.Fatalf("pop after export=%q, want queue contents untouched by export", stdout)
	}
}
