package synthesis

// Params defines all configurable parameters for clustering and
// confidence scoring. The exact values are tunable; only ordering and
// monotonicity are load-bearing.
type Params struct {
	// SimilarityThreshold is the minimum token overlap (Jaccard) for a
	// fragment to join an existing cluster instead of seeding a new one.
	SimilarityThreshold float64

	// FragmentSaturationCount is where the fragment-count confidence
	// term stops growing.
	FragmentSaturationCount int

	// TargetBodyMinRunes and TargetBodyMaxRunes bound the confidence
	// length band; bodies outside the band score lower.
	TargetBodyMinRunes int
	TargetBodyMaxRunes int

	// MaxNewTags caps how many newly observed terms are promoted into a
	// draft's tag set beyond declared and vocabulary matches.
	MaxNewTags int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	SimilarityThreshold     float64
	FragmentSaturationCount int
	TargetBodyMinRunes      int
	TargetBodyMaxRunes      int
	MaxNewTags              int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		SimilarityThreshold:     0.25,
		FragmentSaturationCount: 5,
		TargetBodyMinRunes:      80,
		TargetBodyMaxRunes:      600,
		MaxNewTags:              3,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.SimilarityThreshold > 0 {
		params.SimilarityThreshold = config.SimilarityThreshold
	}
	if config.FragmentSaturationCount > 0 {
		params.FragmentSaturationCount = config.FragmentSaturationCount
	}
	if config.TargetBodyMinRunes > 0 {
		params.TargetBodyMinRunes = config.TargetBodyMinRunes
	}
	if config.TargetBodyMaxRunes > 0 {
		params.TargetBodyMaxRunes = config.TargetBodyMaxRunes
	}
	if config.MaxNewTags > 0 {
		params.MaxNewTags = config.MaxNewTags
	}

	return params
}
