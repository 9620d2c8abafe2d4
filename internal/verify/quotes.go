// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/cite-gate/pkg/types"
)

// annTagRe matches an annotation tag following a quotation: [@ann:ID].
var annTagRe = regexp.MustCompile(`^\s*\[@ann:([A-Za-z0-9_-]+)\]`)

// quotedSpanRe matches a double-quoted span, straight or curly.
var quotedSpanRe = regexp.MustCompile(`"([^"]+)"|\x{201c}([^\x{201d}]+)\x{201d}`)

// minQuoteLen filters out scare quotes and quoted single terms; shorter
// spans are not candidate quotations.
const minQuoteLen = 12

// quotesFile is the on-disk schema for a pre-extracted quotes file.
type quotesFile struct {
	Quotes []types.DraftQuote `json:"quotes"`
}

// LoadQuotesFile reads draft quotes from a JSON file: either a bare array
// of quotes or an object with a "quotes" array. Shape problems are fatal
// before any other work happens.
func LoadQuotesFile(path string) ([]types.DraftQuote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading quotes file: %w", err)
	}

	var quotes []types.DraftQuote
	if err := json.Unmarshal(data, &quotes); err != nil {
		var f quotesFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing quotes file %s: %w", path, err)
		}
		if f.Quotes == nil {
			return nil, fmt.Errorf("quotes file %s: missing quotes array", path)
		}
		quotes = f.Quotes
	}

	for i, q := range quotes {
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("quotes file %s: quote %d has empty text", path, i)
		}
	}
	return quotes, nil
}

// ExtractQuotes pulls candidate quotations from a Markdown draft: quoted
// spans and blockquotes, each optionally followed by an [@ann:ID] tag that
// pins the quote to a specific annotation. Fenced code blocks are skipped.
func ExtractQuotes(draft string) []types.DraftQuote {
	var quotes []types.DraftQuote

	var blockquote []string
	inFence := false

	flushBlockquote := func(tag string) {
		if len(blockquote) == 0 {
			return
		}
		text := strings.Join(blockquote, " ")
		blockquote = nil
		if len(text) >= minQuoteLen {
			quotes = append(quotes, types.DraftQuote{Text: text, SourceAnnotationID: tag})
		}
	}

	for _, line := range strings.Split(draft, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			flushBlockquote("")
			continue
		}
		if inFence {
			continue
		}

		if strings.HasPrefix(trimmed, ">") {
			body := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
			if m := annTagRe.FindStringSubmatch(body); m != nil && len(blockquote) > 0 {
				flushBlockquote(m[1])
				continue
			}
			if body != "" {
				blockquote = append(blockquote, body)
			}
			continue
		}

		// A tag line directly under a blockquote pins it.
		if m := annTagRe.FindStringSubmatch(trimmed); m != nil && len(blockquote) > 0 {
			flushBlockquote(m[1])
			continue
		}
		flushBlockquote("")

		quotes = append(quotes, inlineQuotes(line)...)
	}
	flushBlockquote("")

	return quotes
}

// inlineQuotes extracts quoted spans from one line of prose.
func inlineQuotes(line string) []types.DraftQuote {
	var quotes []types.DraftQuote
	for _, loc := range quotedSpanRe.FindAllStringSubmatchIndex(line, -1) {
		text := submatch(line, loc, 1)
		if text == "" {
			text = submatch(line, loc, 2)
		}
		if len(text) < minQuoteLen {
			continue
		}
		q := types.DraftQuote{Text: text}
		if m := annTagRe.FindStringSubmatch(line[loc[1]:]); m != nil {
			q.SourceAnnotationID = m[1]
		}
		quotes = append(quotes, q)
	}
	return quotes
}

func submatch(s string, loc []int, group int) string {
	start, end := loc[2*group], loc[2*group+1]
	if start < 0 {
		return ""
	}
	return s[start:end]
}
