package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cklxx/knowflow/internal/domain"
)

// Fragment is one contiguous span of a material body, carrying a
// heuristic salience weight used for title derivation downstream.
type Fragment struct {
	// Text is the fragment body, whitespace-trimmed.
	Text string

	// Index is the fragment's position within the material, starting at 0.
	Index int

	// Salience weighs position, length, and declared-tag echo into a
	// single score in (0, 1]. Higher means a better title candidate.
	Salience float64
}

// Ingester normalizes one raw material into an ordered fragment list.
// Implementations must be pure: identical input yields identical output,
// and concurrent calls for independent materials are safe.
type Ingester interface {
	// Ingest splits the material into fragments. Empty material yields an
	// empty result, not an error. URL materials without a fetched body
	// degrade to the URL string as a single fragment.
	Ingest(material domain.Material) ([]Fragment, error)
}

type ruleIngester struct {
	params *Params
}

// NewIngester creates an Ingester with the given params.
// If params is nil, defaults are used.
func NewIngester(params *Params) Ingester {
	if params == nil {
		params = NewDefaultParams()
	}
	return &ruleIngester{params: params}
}

// Ensure ruleIngester implements Ingester interface
var _ Ingester = (*ruleIngester)(nil)

// Ingest implements Ingester.Ingest
func (i *ruleIngester) Ingest(material domain.Material) ([]Fragment, error) {
	if !domain.IsValidMaterialKind(material.Kind) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMaterialKind, material.Kind)
	}

	body := strings.TrimSpace(material.Body)

	if body == "" {
		if material.Kind == domain.MaterialKindURL {
			url := strings.TrimSpace(material.URL)
			if url == "" {
				return []Fragment{}, nil
			}
			return []Fragment{{Text: url, Index: 0, Salience: 1.0}}, nil
		}
		return []Fragment{}, nil
	}

	var spans []string
	for _, b := range splitBlocks(body) {
		if material.Kind == domain.MaterialKindCode || b.fenced {
			spans = append(spans, b.text)
			continue
		}
		spans = append(spans, splitSentences(b.text)...)
	}

	spans = mergeShort(spans, i.params.MinFragmentRunes)
	spans = capCount(spans, i.params.MaxFragments)

	fragments := make([]Fragment, 0, len(spans))
	for idx, span := range spans {
		fragments = append(fragments, Fragment{
			Text:     span,
			Index:    idx,
			Salience: salience(span, idx, material.Tags),
		})
	}
	return fragments, nil
}

type block struct {
	text   string
	fenced bool
}

// splitBlocks splits on blank lines while keeping fenced code blocks
// intact; a fence opened with ``` swallows everything up to its close.
func splitBlocks(body string) []block {
	var blocks []block
	var current []string
	inFence := false

	flush := func(fenced bool) {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			blocks = append(blocks, block{text: text, fenced: fenced})
		}
		current = current[:0]
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inFence {
				current = append(current, line)
				inFence = false
				flush(true)
				continue
			}
			flush(false)
			inFence = true
			current = append(current, line)
			continue
		}

		if !inFence && strings.TrimSpace(line) == "" {
			flush(false)
			continue
		}
		current = append(current, line)
	}
	flush(inFence)

	return blocks
}

// sentenceEnders close a sentence or clause. Full-width commas and
// semicolons count so that CJK prose splits at clause granularity.
var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true, ';': true,
	'。': true, '！': true, '？': true, '；': true, '，': true,
}

func splitSentences(block string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range block {
		current.WriteRune(r)
		if sentenceEnders[r] {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// mergeShort folds spans below the minimum rune count into the previous
// span, or the next one when there is no previous yet.
func mergeShort(spans []string, minRunes int) []string {
	var merged []string
	var pending string

	for _, span := range spans {
		if pending != "" {
			span = pending + " " + span
			pending = ""
		}
		if utf8.RuneCountInString(span) < minRunes {
			if len(merged) > 0 {
				merged[len(merged)-1] = merged[len(merged)-1] + " " + span
			} else {
				pending = span
			}
			continue
		}
		merged = append(merged, span)
	}
	if pending != "" {
		if len(merged) > 0 {
			merged[len(merged)-1] = merged[len(merged)-1] + " " + pending
		} else if utf8.RuneCountInString(pending) > 0 {
			// Everything was below the minimum; keep the combined span
			// rather than dropping the material outright.
			merged = append(merged, pending)
		}
	}

	return merged
}

// capCount merges the shortest span into its shorter adjacent neighbor
// until the count fits the cap.
func capCount(spans []string, maxFragments int) []string {
	for len(spans) > maxFragments {
		shortest := 0
		for i := 1; i < len(spans); i++ {
			if utf8.RuneCountInString(spans[i]) < utf8.RuneCountInString(spans[shortest]) {
				shortest = i
			}
		}

		target := shortest - 1
		if shortest == 0 {
			target = 1
		} else if shortest < len(spans)-1 {
			next := shortest + 1
			if utf8.RuneCountInString(spans[next]) < utf8.RuneCountInString(spans[target]) {
				target = next
			}
		}

		lo, hi := target, shortest
		if lo > hi {
			lo, hi = hi, lo
		}
		spans[lo] = spans[lo] + " " + spans[hi]
		spans = append(spans[:hi], spans[hi+1:]...)
	}
	return spans
}

func salience(span string, index int, declaredTags []string) float64 {
	length := float64(utf8.RuneCountInString(span)) / 64.0
	if length > 1 {
		length = 1
	}

	position := 1.0 / float64(index+1)

	echo := 0.0
	lower := strings.ToLower(span)
	for _, tag := range declaredTags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && strings.Contains(lower, tag) {
			echo = 1.0
			break
		}
	}

	return 0.5*length + 0.3*position + 0.2*echo
}
