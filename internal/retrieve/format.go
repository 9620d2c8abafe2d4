// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/cite-gate/pkg/types"
)

// usageFooter states the packet's citation rules. Rendered under every table.
const usageFooter = `Usage rules:
  - Quote only the highlightedText of ranked evidence, verbatim.
  - semantic_chunk items require manual quote confirmation before citation.
  - Run 'cite-gate verify' before submitting a draft that quotes this packet.`

// FormatTable writes the packet as a human-readable table to w.
func FormatTable(packet *types.EvidencePacket, w io.Writer) {
	fmt.Fprintf(w, "Question: %s\n", packet.Question)
	fmt.Fprintf(w, "Queries:  %s\n\n", strings.Join(packet.Queries, " | "))

	if len(packet.Evidence) == 0 {
		fmt.Fprintln(w, "No evidence found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-12s  %-48s  %-20s  %s\n",
		"Rank", "Score", "Category", "Quote", "Source", "Annotation")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for _, e := range packet.Evidence {
		category := e.Category
		if e.SourceType == types.SourceSemanticChunk {
			category = "semantic"
		}
		fmt.Fprintf(w, "%-4d  %-6.3f  %-12s  %-48s  %-20s  %s\n",
			e.Rank, e.ReRankScore, truncate(category, 12),
			truncate(e.QuoteText(), 48), truncate(e.DocumentFilename, 20), e.AnnotationID)
	}

	fmt.Fprintf(w, "\n%d items (%d annotations, %d semantic chunks; %d duplicates removed)\n",
		packet.Counts.Total, packet.Counts.Annotations, packet.Counts.SemanticChunks,
		packet.SearchStats.DuplicatesRemoved)
	fmt.Fprintf(w, "\n%s\n", usageFooter)
}

// FormatJSON writes the packet as indented JSON to w.
func FormatJSON(packet *types.EvidencePacket, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(packet)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
