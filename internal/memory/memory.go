// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory maintains the rolling project memory file. It is plain
// merge/append bookkeeping: facts deduplicate by normalized text, sessions
// only append.
package memory

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cite-gate/internal/textnorm"
	"github.com/pdiddy/cite-gate/pkg/types"
)

// Load reads the memory file at path. A missing file is an empty memory, not
// an error.
func Load(path string) (*types.ProjectMemory, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &types.ProjectMemory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading memory file: %w", err)
	}

	var mem types.ProjectMemory
	if err := yaml.Unmarshal(data, &mem); err != nil {
		return nil, fmt.Errorf("parsing memory file %s: %w", path, err)
	}
	return &mem, nil
}

// Save writes the memory file, creating parent directories as needed.
func Save(path string, mem *types.ProjectMemory) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating memory directory: %w", err)
		}
	}

	data, err := yaml.Marshal(mem)
	if err != nil {
		return fmt.Errorf("encoding memory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing memory file: %w", err)
	}
	return nil
}

// Merge appends the facts not already present, comparing by normalized text.
// It returns how many facts were actually added.
func Merge(mem *types.ProjectMemory, facts []string, date string) int {
	seen := make(map[string]bool, len(mem.Facts))
	for _, f := range mem.Facts {
		seen[factKey(f.Text)] = true
	}

	added := 0
	for _, text := range facts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		key := factKey(text)
		if seen[key] {
			continue
		}
		seen[key] = true
		mem.Facts = append(mem.Facts, types.MemoryFact{Text: text, Added: date})
		added++
	}
	return added
}

// AddSession appends one session entry.
func AddSession(mem *types.ProjectMemory, date, summary string) {
	mem.Sessions = append(mem.Sessions, types.MemorySession{Date: date, Summary: summary})
}

// FormatShow writes a readable dump of the memory to w.
func FormatShow(mem *types.ProjectMemory, w io.Writer) {
	if len(mem.Facts) == 0 && len(mem.Sessions) == 0 {
		fmt.Fprintln(w, "Project memory is empty.")
		return
	}

	fmt.Fprintf(w, "Facts (%d):\n", len(mem.Facts))
	for _, f := range mem.Facts {
		fmt.Fprintf(w, "  - %s (added %s)\n", f.Text, f.Added)
	}
	fmt.Fprintf(w, "\nSessions (%d):\n", len(mem.Sessions))
	for _, s := range mem.Sessions {
		fmt.Fprintf(w, "  - %s: %s\n", s.Date, s.Summary)
	}
}

func factKey(text string) string {
	return strings.ToLower(textnorm.CollapseWhitespace(text))
}
