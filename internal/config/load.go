package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml in the working
// directory and from environment variables with the KNOWFLOW_ prefix.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("KNOWFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus environment
		// variables form a complete configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every key so a bare
// environment still yields a valid configuration (the database URL is
// the lone exception and must be provided).
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")

	// Registered empty so AutomaticEnv can populate it; validation
	// rejects the empty value if nothing provides one.
	v.SetDefault("database.url", "")

	v.SetDefault("review.min_interval_days", 1)
	v.SetDefault("review.hard_interval_factor", 0.8)
	v.SetDefault("review.good_interval_factor", 1.6)
	v.SetDefault("review.easy_interval_factor", 2.2)
	v.SetDefault("review.first_review_hard_interval", 1)
	v.SetDefault("review.first_review_good_interval", 1)
	v.SetDefault("review.first_review_easy_interval", 2)
	v.SetDefault("review.skill_staleness_days", 14)

	// The unknown threshold is zero: any proven interval advances a
	// point past unknown on a good outcome.
	v.SetDefault("skill.good_threshold_from_unknown", 0)
	v.SetDefault("skill.good_threshold_from_emerging", 3)
	v.SetDefault("skill.good_threshold_from_working", 7)

	v.SetDefault("stage.shape_threshold", 0.25)
	v.SetDefault("stage.attack_fraction", 0.5)
	v.SetDefault("stage.stabilize_fraction", 0.5)

	v.SetDefault("synthesis.min_fragment_runes", 12)
	v.SetDefault("synthesis.max_fragments", 64)
	v.SetDefault("synthesis.target_body_min_runes", 80)
	v.SetDefault("synthesis.target_body_max_runes", 600)
	v.SetDefault("synthesis.fragment_saturation_count", 5)
	v.SetDefault("synthesis.similarity_threshold", 0.25)
	v.SetDefault("synthesis.max_new_tags", 3)

	v.SetDefault("reminder.daily_time", "20:30")
	v.SetDefault("reminder.due_time", "18:45")
	v.SetDefault("reminder.remind_lead_minutes", 45)
}
