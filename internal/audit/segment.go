// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"regexp"
	"strings"

	"github.com/pdiddy/cite-gate/internal/textnorm"
)

// minSentenceChars drops fragments too short to be checkable claims,
// measured after whitespace normalization.
const minSentenceChars = 25

// Paragraph is one blank-line-delimited block of prose with its sentences.
type Paragraph struct {
	Index     int
	Text      string
	Sentences []string
}

// sentenceEndRe finds terminal punctuation followed by whitespace.
var sentenceEndRe = regexp.MustCompile(`([.!?]+)\s+`)

// Paragraphs segments a Markdown draft into prose paragraphs. Heading lines
// and fenced code blocks are skipped; paragraph indexes count the kept
// paragraphs in order.
func Paragraphs(draft string) []Paragraph {
	var paragraphs []Paragraph
	var lines []string
	inFence := false

	flush := func() {
		if len(lines) == 0 {
			return
		}
		text := textnorm.CollapseWhitespace(strings.Join(lines, " "))
		lines = nil
		if text == "" {
			return
		}
		paragraphs = append(paragraphs, Paragraph{
			Index:     len(paragraphs),
			Text:      text,
			Sentences: splitSentences(text),
		})
	}

	for _, line := range strings.Split(draft, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			flush()
			continue
		}
		if inFence {
			continue
		}
		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, trimmed)
	}
	flush()

	return paragraphs
}

// splitSentences splits on terminal punctuation followed by whitespace and
// drops fragments under 25 normalized characters.
func splitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")

	var sentences []string
	for _, part := range strings.Split(marked, "\x00") {
		s := textnorm.CollapseWhitespace(part)
		if len(s) >= minSentenceChars {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
