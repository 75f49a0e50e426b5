package synthesis

import (
	"strings"
	"unicode"
)

// asciiStopwords are never promoted into tags or counted as topic terms.
var asciiStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "were": true,
	"have": true, "has": true, "not": true, "but": true, "its": true,
	"into": true, "over": true, "after": true, "when": true, "then": true,
}

// tokenize lowercases and splits a span into tokens: ASCII runs become
// word tokens, while each CJK rune stands alone so Chinese prose
// overlaps at character granularity without segmentation.
func tokenize(span string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		t := strings.ToLower(word.String())
		word.Reset()
		if len(t) < 2 || asciiStopwords[t] {
			return
		}
		tokens = append(tokens, t)
	}

	for _, r := range span {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			word.WriteRune(r)
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// tokenSet collapses a token list into a membership set.
func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// jaccard computes set overlap in [0, 1]. Two empty sets do not overlap.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	shared := 0
	for t := range a {
		if b[t] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// slugify reduces a string to a lowercase ascii-alphanumeric slug.
func slugify(input string) string {
	var slug strings.Builder
	for _, r := range input {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			slug.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			if s := slug.String(); s != "" && !strings.HasSuffix(s, "-") {
				slug.WriteRune('-')
			}
		}
	}
	return strings.Trim(slug.String(), "-")
}

// capitalize upper-cases the first letter of a span, leaving the rest
// untouched. CJK leading runes pass through unchanged.
func capitalize(input string) string {
	for i, r := range input {
		return string(unicode.ToUpper(r)) + input[i+len(string(r)):]
	}
	return input
}
