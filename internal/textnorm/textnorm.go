// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm normalizes and tokenizes text for overlap scoring. Every
// relevance, support, and contradiction score in the pipeline is built on
// the token set this package produces.
package textnorm

import (
	"strings"
	"unicode"
)

const minTokenLen = 3

// CollapseWhitespace trims s and collapses internal whitespace runs to
// single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tokens returns the significant tokens of s: lowercased, non-alphanumerics
// stripped, tokens shorter than 3 characters discarded.
func Tokens(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) >= minTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// TokenSet returns the significant tokens of s as a set.
func TokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokens(s) {
		set[tok] = true
	}
	return set
}

// Overlap returns the share of a's significant tokens that also appear in
// b: |A∩B| / |A|, in [0,1]. Normalizing by the first argument keeps the
// score insensitive to how long the second text is; callers put the
// sentence or question first and the evidence blob second. Returns 0 when
// either side has no significant tokens.
func Overlap(a, b string) float64 {
	setA := TokenSet(a)
	setB := TokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for tok := range setA {
		if setB[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(setA))
}
