package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Not parallel: environment mutation.
	t.Setenv("KNOWFLOW_DATABASE_URL", "postgres://localhost:5432/knowflow")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "postgres://localhost:5432/knowflow", cfg.Database.URL)

	// Interval factor ordering is the load-bearing invariant.
	assert.Less(t, cfg.Review.HardIntervalFactor, 1.0)
	assert.Greater(t, cfg.Review.GoodIntervalFactor, 1.0)
	assert.Greater(t, cfg.Review.EasyIntervalFactor, cfg.Review.GoodIntervalFactor)
	assert.GreaterOrEqual(t, cfg.Review.MinIntervalDays, 1)

	assert.Equal(t, 64, cfg.Synthesis.MaxFragments)
	assert.LessOrEqual(t, cfg.Synthesis.TargetBodyMinRunes, cfg.Synthesis.TargetBodyMaxRunes)
	assert.Greater(t, cfg.Synthesis.SimilarityThreshold, 0.0)

	// Advancement thresholds grow with the level.
	assert.Less(t, cfg.Skill.GoodThresholdFromUnknown, cfg.Skill.GoodThresholdFromEmerging)
	assert.Less(t, cfg.Skill.GoodThresholdFromEmerging, cfg.Skill.GoodThresholdFromWorking)

	assert.Equal(t, "20:30", cfg.Reminder.DailyTime)
	assert.Equal(t, "18:45", cfg.Reminder.DueTime)
	assert.Equal(t, 45, cfg.Reminder.RemindLeadMinutes)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KNOWFLOW_DATABASE_URL", "postgres://localhost:5432/knowflow")
	t.Setenv("KNOWFLOW_APP_LOG_LEVEL", "debug")
	t.Setenv("KNOWFLOW_REVIEW_GOOD_INTERVAL_FACTOR", "2.0")
	t.Setenv("KNOWFLOW_REMINDER_DAILY_TIME", "21:15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 2.0, cfg.Review.GoodIntervalFactor)
	assert.Equal(t, "21:15", cfg.Reminder.DailyTime)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("KNOWFLOW_DATABASE_URL", "postgres://localhost:5432/knowflow")
	t.Setenv("KNOWFLOW_APP_LOG_LEVEL", "shout")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("KNOWFLOW_DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}
