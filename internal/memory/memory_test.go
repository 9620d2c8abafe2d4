// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/cite-gate/pkg/types"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	mem, err := Load(filepath.Join(t.TempDir(), "memory.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mem.Facts) != 0 || len(mem.Sessions) != 0 {
		t.Errorf("expected empty memory, got %+v", mem)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "memory.yaml")

	mem := &types.ProjectMemory{}
	Merge(mem, []string{"The backend truncates note fields at 500 characters."}, "2026-02-10")
	AddSession(mem, "2026-02-10", "Retrieved evidence for chapter 3.")

	if err := Save(path, mem); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Facts) != 1 || got.Facts[0].Added != "2026-02-10" {
		t.Errorf("facts = %+v", got.Facts)
	}
	if len(got.Sessions) != 1 || got.Sessions[0].Summary != "Retrieved evidence for chapter 3." {
		t.Errorf("sessions = %+v", got.Sessions)
	}
}

func TestMergeDeduplicatesByNormalizedText(t *testing.T) {
	mem := &types.ProjectMemory{Facts: []types.MemoryFact{
		{Text: "Grain exports collapsed in 1921.", Added: "2026-01-05"},
	}}

	added := Merge(mem, []string{
		"grain   exports collapsed in 1921.", // same fact, different case and spacing
		"Relief shipments arrived too late.",
		"  ",
		"Relief shipments arrived too late.", // duplicate within the batch
	}, "2026-02-10")

	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if len(mem.Facts) != 2 {
		t.Fatalf("facts = %d, want 2", len(mem.Facts))
	}
	if mem.Facts[0].Added != "2026-01-05" {
		t.Errorf("existing fact date changed: %q", mem.Facts[0].Added)
	}
	if mem.Facts[1].Text != "Relief shipments arrived too late." || mem.Facts[1].Added != "2026-02-10" {
		t.Errorf("new fact = %+v", mem.Facts[1])
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.yaml")
	if err := os.WriteFile(path, []byte("facts: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestFormatShow(t *testing.T) {
	mem := &types.ProjectMemory{}
	var b strings.Builder
	FormatShow(mem, &b)
	if !strings.Contains(b.String(), "empty") {
		t.Errorf("empty memory output = %q", b.String())
	}

	Merge(mem, []string{"Grain exports collapsed in 1921."}, "2026-02-10")
	AddSession(mem, "2026-02-11", "Verified chapter 3 quotes.")
	b.Reset()
	FormatShow(mem, &b)
	out := b.String()
	if !strings.Contains(out, "Facts (1):") || !strings.Contains(out, "Sessions (1):") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "added 2026-02-10") {
		t.Errorf("fact date missing from output: %q", out)
	}
}
