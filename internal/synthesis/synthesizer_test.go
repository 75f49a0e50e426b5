package synthesis

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/ingest"
)

func ingestFragments(t *testing.T, material domain.Material) []ingest.Fragment {
	t.Helper()

	fragments, err := ingest.NewIngester(nil).Ingest(material)
	if err != nil {
		t.Fatalf("Expected no ingest error, got %v", err)
	}
	return fragments
}

func TestSynthesizeDriftMaterial(t *testing.T) {
	t.Parallel() // Enable parallel execution

	synthesizer := NewSynthesizer(nil)

	material := domain.Material{
		Kind: domain.MaterialKindText,
		Body: "离线评估覆盖率下滑 12%，上线后 query 长尾错配，需要监测 embedding 漂移。",
		URL:  "https://example.com/drift",
		Tags: []string{"retrieval", "drift"},
	}
	direction := DirectionContext{Name: "Agentic Retrieval Diagnostics", Language: "zh"}

	drafts := synthesizer.Synthesize(material, ingestFragments(t, material), direction)

	if len(drafts) < 2 {
		t.Fatalf("Expected at least 2 drafts, got %d", len(drafts))
	}

	var drift *domain.ImportDraft
	for i := range drafts {
		if strings.Contains(drafts[i].Title, "Embedding 漂移排查") {
			drift = &drafts[i]
			break
		}
	}
	if drift == nil {
		t.Fatalf("Expected a draft titled with Embedding 漂移排查, got %+v", drafts)
	}

	hasTag := func(tags []string, want string) bool {
		for _, tag := range tags {
			if tag == want {
				return true
			}
		}
		return false
	}
	if !hasTag(drift.Tags, "retrieval") || !hasTag(drift.Tags, "drift") {
		t.Errorf("Expected retrieval and drift tags, got %v", drift.Tags)
	}

	for _, draft := range drafts {
		if draft.ConfidenceScore < 0 || draft.ConfidenceScore > 1 {
			t.Errorf("Confidence %f outside [0, 1]", draft.ConfidenceScore)
		}
		if draft.Source.URL != material.URL {
			t.Errorf("Expected source URL carried onto draft, got %q", draft.Source.URL)
		}
		if len(draft.Source.Excerpts) == 0 {
			t.Errorf("Expected excerpts on draft %q", draft.Title)
		}
	}
}

func TestSynthesizeDeclaredTitleNamesLeadCluster(t *testing.T) {
	t.Parallel() // Enable parallel execution

	synthesizer := NewSynthesizer(nil)

	material := domain.Material{
		Kind:  domain.MaterialKindText,
		Title: "Embedding Drift RCA",
		Body:  "离线评估覆盖率下滑 12%，上线后 query 长尾错配，需要监测 embedding 漂移。",
		Tags:  []string{"retrieval", "drift"},
	}

	drafts := synthesizer.Synthesize(material, ingestFragments(t, material), DirectionContext{Language: "zh"})
	if len(drafts) < 2 {
		t.Fatalf("Expected at least 2 drafts, got %d", len(drafts))
	}
	if drafts[0].Title != "Embedding Drift RCA" {
		t.Errorf("Expected declared title on the lead draft, got %q", drafts[0].Title)
	}
}

func TestSynthesizeIdempotent(t *testing.T) {
	t.Parallel() // Enable parallel execution

	synthesizer := NewSynthesizer(nil)

	material := domain.Material{
		Kind: domain.MaterialKindText,
		Body: "Vector search recall dropped after the index rebuild. Recall metrics need a drift dashboard.\n\nOn-call rotation owns the rollback playbook for bad index pushes.",
		Tags: []string{"search"},
	}
	direction := DirectionContext{Name: "Search Ops", Language: "en", Vocabulary: []string{"recall", "rollback"}}
	fragments := ingestFragments(t, material)

	first := synthesizer.Synthesize(material, fragments, direction)
	second := synthesizer.Synthesize(material, fragments, direction)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical draft lists across runs, got %+v and %+v", first, second)
	}
}

func TestSynthesizeEmptyInput(t *testing.T) {
	t.Parallel() // Enable parallel execution

	synthesizer := NewSynthesizer(nil)

	drafts := synthesizer.Synthesize(domain.Material{Kind: domain.MaterialKindText}, nil, DirectionContext{})
	if len(drafts) != 0 {
		t.Errorf("Expected zero drafts for empty input, got %d", len(drafts))
	}
}

func TestSynthesizeConfidenceMonotonicInFragmentCount(t *testing.T) {
	t.Parallel() // Enable parallel execution

	synthesizer := NewSynthesizer(nil)

	base := domain.Material{
		Kind: domain.MaterialKindText,
		Body: "Embedding drift erodes retrieval precision over weeks of index churn.",
	}
	duplicated := domain.Material{
		Kind: domain.MaterialKindText,
		Body: base.Body + "\n\n" + base.Body,
	}
	direction := DirectionContext{Vocabulary: []string{"drift"}}

	baseline := synthesizer.Synthesize(base, ingestFragments(t, base), direction)
	boosted := synthesizer.Synthesize(duplicated, ingestFragments(t, duplicated), direction)

	if len(baseline) != 1 || len(boosted) != 1 {
		t.Fatalf("Expected one cluster per run, got %d and %d", len(baseline), len(boosted))
	}
	if boosted[0].ConfidenceScore < baseline[0].ConfidenceScore {
		t.Errorf("Expected confidence to not decrease with a duplicate fragment: %f -> %f",
			baseline[0].ConfidenceScore, boosted[0].ConfidenceScore)
	}
	if boosted[0].Body != baseline[0].Body {
		t.Errorf("Expected duplicate fragment deduplicated out of the body, got %q", boosted[0].Body)
	}
}

func TestSynthesizeVocabularyOverlapRaisesConfidence(t *testing.T) {
	t.Parallel() // Enable parallel execution

	synthesizer := NewSynthesizer(nil)

	material := domain.Material{
		Kind: domain.MaterialKindText,
		Body: "Recall regressions trace back to stale centroid snapshots.",
	}
	fragments := ingestFragments(t, material)

	without := synthesizer.Synthesize(material, fragments, DirectionContext{Vocabulary: []string{"latency"}})
	with := synthesizer.Synthesize(material, fragments, DirectionContext{Vocabulary: []string{"recall"}})

	if len(without) != 1 || len(with) != 1 {
		t.Fatalf("Expected one draft per run, got %d and %d", len(without), len(with))
	}
	if with[0].ConfidenceScore <= without[0].ConfidenceScore {
		t.Errorf("Expected vocabulary overlap to raise confidence: %f vs %f",
			with[0].ConfidenceScore, without[0].ConfidenceScore)
	}
}

func TestSynthesizeClusterIDsAreStable(t *testing.T) {
	t.Parallel() // Enable parallel execution

	synthesizer := NewSynthesizer(nil)

	material := domain.Material{
		Kind: domain.MaterialKindText,
		Body: "Alpha topic covers ranking freshness budgets.\n\nBeta topic covers shard rebalance cadence.",
	}
	fragments := ingestFragments(t, material)

	drafts := synthesizer.Synthesize(material, fragments, DirectionContext{})
	if len(drafts) != 2 {
		t.Fatalf("Expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].ClusterID == drafts[1].ClusterID {
		t.Errorf("Expected distinct cluster ids, got %q twice", drafts[0].ClusterID)
	}
	for _, draft := range drafts {
		if !strings.HasPrefix(draft.ClusterID, "cluster-") {
			t.Errorf("Expected cluster id prefix, got %q", draft.ClusterID)
		}
		if draft.ID != "" {
			t.Errorf("Expected draft id left for the session to assign, got %q", draft.ID)
		}
	}
}
