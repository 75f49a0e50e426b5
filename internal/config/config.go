package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
// The algorithm groups exist because the exact numeric thresholds are
// tunable constants, not verified truths; every multiplier and fraction
// used by the scheduling and stage derivation code is exposed here.
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Review    ReviewConfig    `mapstructure:"review" validate:"required"`
	Skill     SkillConfig     `mapstructure:"skill" validate:"required"`
	Stage     StageConfig     `mapstructure:"stage" validate:"required"`
	Synthesis SynthesisConfig `mapstructure:"synthesis" validate:"required"`
	Reminder  ReminderConfig  `mapstructure:"reminder" validate:"required"`
}

// AppConfig contains process-wide settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// ReviewConfig contains the tunable constants of the review interval
// rule and the scheduler. The factor ordering is the only load-bearing
// part: hard below 1, good above 1, easy above good.
type ReviewConfig struct {
	MinIntervalDays         int     `mapstructure:"min_interval_days" validate:"required,gte=1"`
	HardIntervalFactor      float64 `mapstructure:"hard_interval_factor" validate:"required,gt=0,lt=1"`
	GoodIntervalFactor      float64 `mapstructure:"good_interval_factor" validate:"required,gt=1"`
	EasyIntervalFactor      float64 `mapstructure:"easy_interval_factor" validate:"required,gt=1"`
	FirstReviewHardInterval int     `mapstructure:"first_review_hard_interval" validate:"required,gte=1"`
	FirstReviewGoodInterval int     `mapstructure:"first_review_good_interval" validate:"required,gte=1"`
	FirstReviewEasyInterval int     `mapstructure:"first_review_easy_interval" validate:"required,gte=1"`

	// SkillStalenessDays is how old a skill point's last review may be
	// before it becomes eligible for self-review again.
	SkillStalenessDays int `mapstructure:"skill_staleness_days" validate:"required,gte=1"`
}

// SkillConfig contains the skill advancement thresholds: the review
// interval, in days, a card must exceed before a good outcome advances
// a point past each level. Easy outcomes advance regardless.
type SkillConfig struct {
	GoodThresholdFromUnknown  int `mapstructure:"good_threshold_from_unknown" validate:"gte=0"`
	GoodThresholdFromEmerging int `mapstructure:"good_threshold_from_emerging" validate:"required,gte=1"`
	GoodThresholdFromWorking  int `mapstructure:"good_threshold_from_working" validate:"required,gte=1"`
}

// StageConfig contains the direction stage derivation thresholds.
type StageConfig struct {
	ShapeThreshold    float64 `mapstructure:"shape_threshold" validate:"required,gt=0,lt=1"`
	AttackFraction    float64 `mapstructure:"attack_fraction" validate:"required,gt=0,lte=1"`
	StabilizeFraction float64 `mapstructure:"stabilize_fraction" validate:"required,gt=0,lte=1"`
}

// SynthesisConfig contains the ingestion and clustering limits.
type SynthesisConfig struct {
	// MinFragmentRunes filters out degenerate single-word fragments.
	MinFragmentRunes int `mapstructure:"min_fragment_runes" validate:"required,gte=1"`

	// MaxFragments bounds downstream clustering cost; excess fragments
	// are merged into their nearest neighbor by position.
	MaxFragments int `mapstructure:"max_fragments" validate:"required,gte=1"`

	// TargetBodyMinRunes and TargetBodyMaxRunes bound the confidence
	// length band: bodies outside the band score lower.
	TargetBodyMinRunes int `mapstructure:"target_body_min_runes" validate:"required,gte=1"`
	TargetBodyMaxRunes int `mapstructure:"target_body_max_runes" validate:"required,gtefield=TargetBodyMinRunes"`

	// FragmentSaturationCount is where the fragment-count confidence
	// term stops growing.
	FragmentSaturationCount int `mapstructure:"fragment_saturation_count" validate:"required,gte=1"`

	// SimilarityThreshold is the minimum token overlap for a fragment
	// to join an existing cluster instead of seeding a new one.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"required,gt=0,lt=1"`

	// MaxNewTags caps how many newly observed terms are promoted into a
	// draft's tag set.
	MaxNewTags int `mapstructure:"max_new_tags" validate:"required,gte=1"`
}

// ReminderConfig contains the reminder preference defaults used until
// the user saves their own.
type ReminderConfig struct {
	DailyTime         string `mapstructure:"daily_time" validate:"required"`
	DueTime           string `mapstructure:"due_time" validate:"required"`
	RemindLeadMinutes int    `mapstructure:"remind_lead_minutes" validate:"gte=0"`
}
