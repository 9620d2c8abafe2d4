// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr flags text spans likely corrupted by scanning or OCR. The
// heuristics target the damage PaddleOCR-style extraction leaves behind:
// replacement characters, mid-word line-break hyphenation, letter-spaced
// headings read as capital runs, and stray non-ASCII glyphs.
package ocr

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Artifact reason labels, in detection order.
const (
	ReasonReplacementChars = "replacement_characters"
	ReasonBrokenHyphen     = "broken_hyphenation"
	ReasonSpacedCapitals   = "spaced_capital_run"
	ReasonNonASCIIGlyphs   = "non_ascii_glyphs"
)

// brokenHyphenRe matches a word broken across an OCR line join:
// a lowercase letter, a hyphen, whitespace, then a lowercase continuation.
var brokenHyphenRe = regexp.MustCompile(`[a-z]-\s+[a-z]`)

// spacedCapsRe matches runs of six or more single capitals separated by
// whitespace ("C H A P T E R"), which OCR produces from letter-spaced
// headings. Shorter runs are left alone so spelled-out initialisms like
// "U S A" do not trip the detector.
var spacedCapsRe = regexp.MustCompile(`\b[A-Z](?:\s+[A-Z]){5,}\b`)

// nonASCIIThreshold is the fraction of non-ASCII runes above which a span is
// flagged. Curly quotes, dashes, and ellipses are exempt as ordinary
// typography.
const nonASCIIThreshold = 0.05

var typographicRunes = map[rune]bool{
	'‘': true, '’': true, // single curly quotes
	'“': true, '”': true, // double curly quotes
	'–': true, '—': true, // en/em dash
	'…': true, // ellipsis
}

// Detect reports whether text shows likely OCR damage, with the reasons in
// detection order. Short spans are never flagged for glyph density alone.
func Detect(text string) (bool, []string) {
	var reasons []string

	if strings.ContainsRune(text, utf8.RuneError) {
		reasons = append(reasons, ReasonReplacementChars)
	}
	if brokenHyphenRe.MatchString(text) {
		reasons = append(reasons, ReasonBrokenHyphen)
	}
	if spacedCapsRe.MatchString(text) {
		reasons = append(reasons, ReasonSpacedCapitals)
	}
	if nonASCIIDensity(text) > nonASCIIThreshold {
		reasons = append(reasons, ReasonNonASCIIGlyphs)
	}

	return len(reasons) > 0, reasons
}

// nonASCIIDensity returns the fraction of runes outside printable ASCII,
// ignoring whitespace and common typographic punctuation. Spans under 20
// runes return 0.
func nonASCIIDensity(text string) float64 {
	total := 0
	nonASCII := 0
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		total++
		if r > 126 && !typographicRunes[r] {
			nonASCII++
		}
	}
	if total < 20 {
		return 0
	}
	return float64(nonASCII) / float64(total)
}
