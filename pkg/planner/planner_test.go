package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateDailyPlans(t *testing.T) {
	t.Run("should produce one entry per day, dates contiguous and ascending", func(t *testing.T) {
		// given
		start := date(2025, 3, 1)
		due := date(2025, 3, 10)

		// when
		plans, err := GenerateDailyPlans(start, due, 600)

		// then
		require.NoError(t, err)
		require.Len(t, plans.TaskPlans, 10)
		require.Len(t, plans.TimePlans, 10)
		for i, entry := range plans.TaskPlans {
			assert.Equal(t, start.AddDate(0, 0, i), entry.Date)
			assert.Equal(t, plans.TimePlans[i].Date, entry.Date)
		}
	})

	t.Run("should split 100 and the target time evenly", func(t *testing.T) {
		plans, err := GenerateDailyPlans(date(2025, 3, 1), date(2025, 3, 4), 480)

		require.NoError(t, err)
		for _, entry := range plans.TaskPlans {
			assert.Equal(t, 25.0, entry.Value)
		}
		for _, entry := range plans.TimePlans {
			assert.Equal(t, 120.0, entry.Value)
		}
	})

	t.Run("should sum task plans to exactly 100 for various day counts", func(t *testing.T) {
		for _, days := range []int{1, 2, 3, 7, 30, 365} {
			plans, err := GenerateDailyPlans(date(2025, 1, 1), date(2025, 1, 1).AddDate(0, 0, days-1), 100)
			require.NoError(t, err)
			require.Len(t, plans.TaskPlans, days)

			var total float64
			for _, entry := range plans.TaskPlans {
				total += entry.Value
			}
			assert.InDelta(t, 100.0, total, 1e-9, "day count %d", days)
		}
	})

	t.Run("should produce a single full-valued day when start equals due", func(t *testing.T) {
		plans, err := GenerateDailyPlans(date(2025, 6, 15), date(2025, 6, 15), 90)

		require.NoError(t, err)
		require.Len(t, plans.TaskPlans, 1)
		assert.Equal(t, 100.0, plans.TaskPlans[0].Value)
		assert.Equal(t, 90.0, plans.TimePlans[0].Value)
	})

	t.Run("should ignore time-of-day components", func(t *testing.T) {
		start := time.Date(2025, 3, 1, 23, 45, 0, 0, time.UTC)
		due := time.Date(2025, 3, 2, 0, 15, 0, 0, time.UTC)

		plans, err := GenerateDailyPlans(start, due, 60)

		require.NoError(t, err)
		assert.Len(t, plans.TaskPlans, 2)
	})

	t.Run("should fail when due is before start", func(t *testing.T) {
		_, err := GenerateDailyPlans(date(2025, 3, 2), date(2025, 3, 1), 60)

		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("should fail when target time is negative", func(t *testing.T) {
		_, err := GenerateDailyPlans(date(2025, 3, 1), date(2025, 3, 2), -1)

		assert.ErrorIs(t, err, ErrNegativeTargetTime)
	})

	t.Run("generated plans always pass the submission gate unmodified", func(t *testing.T) {
		for _, days := range []int{1, 3, 7, 31, 90} {
			plans, err := GenerateDailyPlans(date(2025, 1, 1), date(2025, 1, 1).AddDate(0, 0, days-1), 123.4)
			require.NoError(t, err)

			assert.True(t, SumsToTarget(PlanValues(plans.TaskPlans), 100), "task plans, %d days", days)
			assert.True(t, SumsToTarget(PlanValues(plans.TimePlans), 123.4), "time plans, %d days", days)
		}
	})
}

func TestSumsToTarget(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		target float64
		expect bool
	}{
		{"deviation below epsilon passes", []float64{25, 25, 25, 25.05}, 100, true},
		{"deviation at or above epsilon fails", []float64{25, 25, 25, 24.8}, 100, false},
		{"exact sum passes", []float64{50, 50}, 100, true},
		{"empty values against zero target passes", nil, 0, true},
		{"empty values against 100 fails", nil, 100, false},
		{"time plans against target time", []float64{120, 120, 120, 120.04}, 480, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, SumsToTarget(tt.values, tt.target))
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{33.333333, 33.33},
		{33.335, 33.34},
		{100.0 / 3, 33.33},
		{0, 0},
		{99.999, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in))
	}
}

func TestNormalizeSubtaskID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty string means create new", "", 0},
		{"literal null means create new", "null", 0},
		{"literal undefined means create new", "undefined", 0},
		{"garbage means create new", "abc", 0},
		{"negative ids are not valid identifiers", "-3", 0},
		{"numeric id is kept", "42", 42},
		{"surrounding whitespace is ignored", " 7 ", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSubtaskID(tt.raw))
		})
	}
}
