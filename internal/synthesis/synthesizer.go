package synthesis

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/ingest"
)

// DirectionContext carries the direction-side inputs to synthesis: the
// direction's name, language, and existing tag vocabulary.
type DirectionContext struct {
	Name       string
	Language   string
	Vocabulary []string
}

// Synthesizer groups one material's fragments into clusters and emits
// draft cards. Implementations must be deterministic: identical input
// yields identical drafts, and confidence is monotonic in the number of
// fragments supporting a cluster.
type Synthesizer interface {
	// Synthesize clusters the fragments and derives one draft per
	// cluster. Zero fragments yield zero drafts, not an error. Draft IDs
	// are left empty; the owning import session assigns them.
	Synthesize(material domain.Material, fragments []ingest.Fragment, direction DirectionContext) []domain.ImportDraft
}

type ruleSynthesizer struct {
	params *Params
}

// NewSynthesizer creates a Synthesizer with the given params.
// If params is nil, defaults are used.
func NewSynthesizer(params *Params) Synthesizer {
	if params == nil {
		params = NewDefaultParams()
	}
	return &ruleSynthesizer{params: params}
}

// Ensure ruleSynthesizer implements Synthesizer interface
var _ Synthesizer = (*ruleSynthesizer)(nil)

type cluster struct {
	fragments []ingest.Fragment
	tokens    map[string]bool
}

// Synthesize implements Synthesizer.Synthesize
func (s *ruleSynthesizer) Synthesize(
	material domain.Material,
	fragments []ingest.Fragment,
	direction DirectionContext,
) []domain.ImportDraft {
	clusters := s.cluster(fragments)

	drafts := make([]domain.ImportDraft, 0, len(clusters))
	for i, c := range clusters {
		title := deriveTitle(c.fragments)
		// A declared material title names the lead cluster outright.
		if i == 0 && strings.TrimSpace(material.Title) != "" {
			title = strings.TrimSpace(material.Title)
		}
		body := deriveBody(c.fragments)

		drafts = append(drafts, domain.ImportDraft{
			ClusterID:       clusterID(i, title),
			Title:           title,
			Tags:            s.deriveTags(material, c, direction),
			Body:            body,
			ConfidenceScore: s.confidence(c, body, direction),
			Source: domain.SourceRef{
				MaterialTitle: material.Title,
				URL:           material.URL,
				Excerpts:      excerpts(c.fragments),
			},
			Selected: true,
		})
	}
	return drafts
}

// cluster greedily assigns each fragment to the most similar existing
// cluster, seeding a new one below the similarity threshold. Iteration
// order makes ties land in the earlier-formed cluster.
func (s *ruleSynthesizer) cluster(fragments []ingest.Fragment) []cluster {
	var clusters []cluster

	for _, fragment := range fragments {
		tokens := tokenSet(tokenize(fragment.Text))

		best := -1
		bestScore := 0.0
		for i := range clusters {
			score := jaccard(tokens, clusters[i].tokens)
			if score > bestScore {
				best = i
				bestScore = score
			}
		}

		if best >= 0 && bestScore >= s.params.SimilarityThreshold {
			clusters[best].fragments = append(clusters[best].fragments, fragment)
			for t := range tokens {
				clusters[best].tokens[t] = true
			}
			continue
		}

		clusters = append(clusters, cluster{
			fragments: []ingest.Fragment{fragment},
			tokens:    tokens,
		})
	}

	return clusters
}

// diagnosticCues mark a fragment that states a monitoring or
// investigation need; such fragments title their cluster as a
// troubleshooting topic ("<topic>排查").
var diagnosticCues = []string{"需要监测", "需要排查", "监测"}

func deriveTitle(fragments []ingest.Fragment) string {
	seed := fragments[0]
	for _, fragment := range fragments[1:] {
		if fragment.Salience > seed.Salience {
			seed = fragment
		}
	}

	sentence := firstSentence(seed.Text)
	trimmed := strings.Trim(sentence, " \t。．.!！?？，,;；:：")

	for _, cue := range diagnosticCues {
		if rest, ok := strings.CutPrefix(trimmed, cue); ok {
			topic := strings.TrimSpace(rest)
			if topic != "" {
				return truncateRunes(capitalize(topic), 80) + "排查"
			}
		}
	}

	return truncateRunes(capitalize(trimmed), 80)
}

func firstSentence(span string) string {
	for i, r := range span {
		switch r {
		case '.', '!', '?', '。', '！', '？':
			return span[:i+len(string(r))]
		}
	}
	return span
}

// deriveTags combines declared material tags, direction-vocabulary terms
// echoed by the cluster, and a bounded set of newly observed terms.
// Ordering is deterministic: declared order, vocabulary order, then new
// terms by descending frequency with an alphabetical tie-break.
func (s *ruleSynthesizer) deriveTags(
	material domain.Material,
	c cluster,
	direction DirectionContext,
) []string {
	var tags []string
	seen := make(map[string]bool)

	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			return
		}
		seen[key] = true
		tags = append(tags, tag)
	}

	for _, tag := range material.Tags {
		add(tag)
	}
	for _, term := range direction.Vocabulary {
		if c.tokens[strings.ToLower(strings.TrimSpace(term))] {
			add(term)
		}
	}

	counts := make(map[string]int)
	for _, fragment := range c.fragments {
		for _, token := range tokenize(fragment.Text) {
			if utf8.RuneCountInString(token) >= 4 {
				counts[token]++
			}
		}
	}
	candidates := make([]string, 0, len(counts))
	for token := range counts {
		candidates = append(candidates, token)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if counts[candidates[i]] != counts[candidates[j]] {
			return counts[candidates[i]] > counts[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})

	added := 0
	for _, token := range candidates {
		if added >= s.params.MaxNewTags {
			break
		}
		if !seen[token] {
			add(token)
			added++
		}
	}

	return tags
}

// deriveBody concatenates member fragments in order, dropping exact
// duplicates so repeated material never pads the body.
func deriveBody(fragments []ingest.Fragment) string {
	var parts []string
	seen := make(map[string]bool)
	for _, fragment := range fragments {
		if seen[fragment.Text] {
			continue
		}
		seen[fragment.Text] = true
		parts = append(parts, fragment.Text)
	}
	return strings.Join(parts, "\n")
}

// confidence blends a saturating fragment-count term, direction
// vocabulary overlap, and a body-length band into [0, 1].
func (s *ruleSynthesizer) confidence(c cluster, body string, direction DirectionContext) float64 {
	count := len(c.fragments)
	if count > s.params.FragmentSaturationCount {
		count = s.params.FragmentSaturationCount
	}
	countTerm := float64(count) / float64(s.params.FragmentSaturationCount)

	vocabTerm := 0.0
	if len(direction.Vocabulary) > 0 {
		matched := 0
		for _, term := range direction.Vocabulary {
			if c.tokens[strings.ToLower(strings.TrimSpace(term))] {
				matched++
			}
		}
		vocabTerm = float64(matched) / float64(len(direction.Vocabulary))
	}

	runes := utf8.RuneCountInString(body)
	var lengthTerm float64
	switch {
	case runes >= s.params.TargetBodyMinRunes && runes <= s.params.TargetBodyMaxRunes:
		lengthTerm = 1
	case runes < s.params.TargetBodyMinRunes:
		lengthTerm = float64(runes) / float64(s.params.TargetBodyMinRunes)
	default:
		lengthTerm = float64(s.params.TargetBodyMaxRunes) / float64(runes)
	}

	score := 0.5*countTerm + 0.3*vocabTerm + 0.2*lengthTerm
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func clusterID(index int, title string) string {
	slug := slugify(title)
	if slug == "" {
		return fmt.Sprintf("cluster-%02d", index+1)
	}
	return fmt.Sprintf("cluster-%02d-%s", index+1, truncateRunes(slug, 40))
}

func excerpts(fragments []ingest.Fragment) []string {
	var out []string
	seen := make(map[string]bool)
	for _, fragment := range fragments {
		excerpt := truncateRunes(fragment.Text, 200)
		if seen[excerpt] {
			continue
		}
		seen[excerpt] = true
		out = append(out, excerpt)
	}
	return out
}

func truncateRunes(value string, maxRunes int) string {
	if utf8.RuneCountInString(value) <= maxRunes {
		return value
	}
	runes := []rune(value)
	return string(runes[:maxRunes]) + "…"
}
