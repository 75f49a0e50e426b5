package skill

import (
	"github.com/cklxx/knowflow/internal/domain"
)

// Params defines the configurable advancement thresholds. Only ordering
// matters: higher levels demand longer proven intervals.
type Params struct {
	// GoodIntervalThresholdDays maps a level to the review interval a
	// card must exceed before a good outcome advances a point past that
	// level. Easy outcomes advance regardless.
	GoodIntervalThresholdDays map[domain.SkillLevel]int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	GoodThresholdFromUnknown  int
	GoodThresholdFromEmerging int
	GoodThresholdFromWorking  int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		GoodIntervalThresholdDays: map[domain.SkillLevel]int{
			domain.SkillLevelUnknown:  0,
			domain.SkillLevelEmerging: 3,
			domain.SkillLevelWorking:  7,
		},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.GoodThresholdFromUnknown > 0 {
		params.GoodIntervalThresholdDays[domain.SkillLevelUnknown] = config.GoodThresholdFromUnknown
	}
	if config.GoodThresholdFromEmerging > 0 {
		params.GoodIntervalThresholdDays[domain.SkillLevelEmerging] = config.GoodThresholdFromEmerging
	}
	if config.GoodThresholdFromWorking > 0 {
		params.GoodIntervalThresholdDays[domain.SkillLevelWorking] = config.GoodThresholdFromWorking
	}

	return params
}
