package stage

// Params defines the tunable thresholds for direction stage derivation.
// Only their ordering is evidenced by observed behavior; the numeric
// defaults are starting points, overridable through configuration.
type Params struct {
	// ShapeThreshold is the fraction of skill points at level >= 1 that
	// must be strictly exceeded before a direction leaves explore.
	ShapeThreshold float64

	// AttackFraction is the fraction of skill points at level >= 2
	// required (inclusive) for the attack stage.
	AttackFraction float64

	// StabilizeFraction is the fraction of skill points at level 3
	// required (inclusive) for the stabilize stage.
	StabilizeFraction float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	ShapeThreshold    float64
	AttackFraction    float64
	StabilizeFraction float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		ShapeThreshold:    0.25,
		AttackFraction:    0.5,
		StabilizeFraction: 0.5,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.ShapeThreshold > 0 {
		params.ShapeThreshold = config.ShapeThreshold
	}
	if config.AttackFraction > 0 {
		params.AttackFraction = config.AttackFraction
	}
	if config.StabilizeFraction > 0 {
		params.StabilizeFraction = config.StabilizeFraction
	}

	return params
}
