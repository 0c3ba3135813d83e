package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/spendsentry/spendsentry/pkg/model"
)

func TestMonthKey(t *testing.T) {
	ts := time.Date(2026, time.September, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-09", model.MonthKey(ts))
}

func TestMonthBounds(t *testing.T) {
	ts := time.Date(2026, time.January, 20, 23, 59, 0, 0, time.UTC)
	start, end := model.MonthBounds(ts)

	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestMonthBounds_DecemberRollover(t *testing.T) {
	ts := time.Date(2025, time.December, 31, 12, 0, 0, 0, time.UTC)
	start, end := model.MonthBounds(ts)

	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestParseMonthKey(t *testing.T) {
	ts, err := model.ParseMonthKey("2026-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), ts)

	_, err = model.ParseMonthKey("march-2026")
	assert.Error(t, err)
}

func TestAchievementID(t *testing.T) {
	assert.Equal(t, "u1_spending_500", model.AchievementID("u1", 500))
}

func TestBudget_FlagSet(t *testing.T) {
	b := &model.Budget{NinetyPctSent: true}

	assert.False(t, b.FlagSet(model.FlagSeventyFivePct))
	assert.True(t, b.FlagSet(model.FlagNinetyPct))
	assert.False(t, b.FlagSet(model.FlagOverage))
	assert.False(t, b.FlagSet("no_such_flag"))
}
