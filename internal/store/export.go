// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cite-gate/pkg/types"
)

// ExportEntry is one run with its full packet, as written by ExportYAML.
type ExportEntry struct {
	ID       int64                 `json:"id" yaml:"id"`
	Created  string                `json:"created" yaml:"created"`
	Question string                `json:"question" yaml:"question"`
	Packet   *types.EvidencePacket `json:"packet" yaml:"packet"`
}

// ExportYAML writes every stored run with its packet to w as YAML,
// oldest first.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created, question, packet FROM runs ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	defer rows.Close()

	var entries []ExportEntry
	for rows.Next() {
		var (
			e          ExportEntry
			packetJSON string
		)
		if err := rows.Scan(&e.ID, &e.Created, &e.Question, &packetJSON); err != nil {
			return fmt.Errorf("scanning run: %w", err)
		}
		packet, err := decodePacket(packetJSON, e.ID)
		if err != nil {
			return err
		}
		e.Packet = packet
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
