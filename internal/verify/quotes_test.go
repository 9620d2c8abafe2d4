// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractQuotesInline(t *testing.T) {
	draft := `The archive shows "the war began in 1914 and ended in defeat" [@ann:ann-1] clearly.

Another line quotes "grain shipments collapsed after the blockade" without a tag.`

	quotes := ExtractQuotes(draft)
	if len(quotes) != 2 {
		t.Fatalf("quotes = %d, want 2: %+v", len(quotes), quotes)
	}
	if quotes[0].Text != "the war began in 1914 and ended in defeat" {
		t.Errorf("text = %q", quotes[0].Text)
	}
	if quotes[0].SourceAnnotationID != "ann-1" {
		t.Errorf("tag = %q, want ann-1", quotes[0].SourceAnnotationID)
	}
	if quotes[1].SourceAnnotationID != "" {
		t.Errorf("untagged quote carries tag %q", quotes[1].SourceAnnotationID)
	}
}

func TestExtractQuotesCurly(t *testing.T) {
	draft := "She wrote “the empire could not feed its own cities” in the margin."
	quotes := ExtractQuotes(draft)
	if len(quotes) != 1 || quotes[0].Text != "the empire could not feed its own cities" {
		t.Fatalf("quotes = %+v", quotes)
	}
}

func TestExtractQuotesSkipsShortSpans(t *testing.T) {
	draft := `The so-called "war economy" was a later label.`
	if quotes := ExtractQuotes(draft); len(quotes) != 0 {
		t.Errorf("scare quote extracted: %+v", quotes)
	}
}

func TestExtractQuotesBlockquote(t *testing.T) {
	draft := `Intro paragraph.

> The war began in 1914
> and ended in defeat for the empire.
[@ann:ann-9]

Closing prose.`

	quotes := ExtractQuotes(draft)
	if len(quotes) != 1 {
		t.Fatalf("quotes = %d, want 1: %+v", len(quotes), quotes)
	}
	want := "The war began in 1914 and ended in defeat for the empire."
	if quotes[0].Text != want {
		t.Errorf("text = %q, want %q", quotes[0].Text, want)
	}
	if quotes[0].SourceAnnotationID != "ann-9" {
		t.Errorf("tag = %q, want ann-9", quotes[0].SourceAnnotationID)
	}
}

func TestExtractQuotesSkipsFencedBlocks(t *testing.T) {
	draft := "Before.\n\n```\n\"this quoted string lives in code\"\n```\n\nAfter."
	if quotes := ExtractQuotes(draft); len(quotes) != 0 {
		t.Errorf("fenced content extracted: %+v", quotes)
	}
}

func TestLoadQuotesFileArray(t *testing.T) {
	path := writeFile(t, `[{"text": "the war began in 1914", "sourceAnnotationId": "ann-2"}]`)
	quotes, err := LoadQuotesFile(path)
	if err != nil {
		t.Fatalf("LoadQuotesFile: %v", err)
	}
	if len(quotes) != 1 || quotes[0].SourceAnnotationID != "ann-2" {
		t.Fatalf("quotes = %+v", quotes)
	}
}

func TestLoadQuotesFileObject(t *testing.T) {
	path := writeFile(t, `{"quotes": [{"text": "the war began in 1914"}]}`)
	quotes, err := LoadQuotesFile(path)
	if err != nil {
		t.Fatalf("LoadQuotesFile: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("quotes = %+v", quotes)
	}
}

func TestLoadQuotesFileShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing quotes field", `{"items": []}`},
		{"malformed json", `{"quotes": [`},
		{"empty text", `[{"text": "  "}]`},
		{"wrong type", `"just a string"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadQuotesFile(writeFile(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quotes.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
