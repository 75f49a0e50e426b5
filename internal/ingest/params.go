package ingest

// Params defines the configurable bounds of the fragmenter.
type Params struct {
	// MinFragmentRunes filters out degenerate single-word fragments;
	// shorter spans are merged into a neighbor instead of standing alone.
	MinFragmentRunes int

	// MaxFragments caps the fragment count to bound downstream
	// clustering cost. Overflow merges into the positionally nearest
	// neighbor.
	MaxFragments int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinFragmentRunes int
	MaxFragments     int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinFragmentRunes: 8,
		MaxFragments:     64,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinFragmentRunes > 0 {
		params.MinFragmentRunes = config.MinFragmentRunes
	}
	if config.MaxFragments > 0 {
		params.MaxFragments = config.MaxFragments
	}

	return params
}
