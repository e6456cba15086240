package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWith(contributions ...float64) *Session {
	s := NewSession()
	for i, c := range contributions {
		s.AddSubtask(&SubtaskContribution{Name: string(rune('a' + i)), Contribution: c})
	}
	return s
}

func TestSession_AddSubtask(t *testing.T) {
	t.Run("first blank row gets the full 100", func(t *testing.T) {
		s := NewSession()

		s.AddSubtask(nil)

		require.Len(t, s.Subtasks(), 1)
		assert.Equal(t, 100.0, s.Subtasks()[0].Contribution)
	})

	t.Run("blank row triggers equal redistribution over all rows", func(t *testing.T) {
		s := sessionWith(60, 40)

		s.AddSubtask(nil)

		require.Len(t, s.Subtasks(), 3)
		for _, sub := range s.Subtasks() {
			assert.InDelta(t, 100.0/3, sub.Contribution, 1e-9)
		}
	})

	t.Run("hydrated row keeps its value and does not renormalize the rest", func(t *testing.T) {
		s := sessionWith(70, 30)

		s.AddSubtask(&SubtaskContribution{Id: 9, Name: "persisted", Contribution: 12.5})

		subs := s.Subtasks()
		require.Len(t, subs, 3)
		assert.Equal(t, 70.0, subs[0].Contribution)
		assert.Equal(t, 30.0, subs[1].Contribution)
		assert.Equal(t, 12.5, subs[2].Contribution)
		assert.Equal(t, 9, subs[2].Id)
	})
}

func TestSession_RemoveSubtask(t *testing.T) {
	t.Run("remaining rows are redistributed equally", func(t *testing.T) {
		s := sessionWith(50, 30, 20)

		err := s.RemoveSubtask(1)

		require.NoError(t, err)
		require.Len(t, s.Subtasks(), 2)
		for _, sub := range s.Subtasks() {
			assert.Equal(t, 50.0, sub.Contribution)
		}
	})

	t.Run("removing the last row leaves an empty collection", func(t *testing.T) {
		s := sessionWith(100)

		err := s.RemoveSubtask(0)

		require.NoError(t, err)
		assert.Empty(t, s.Subtasks())
	})

	t.Run("out of range index is rejected", func(t *testing.T) {
		s := sessionWith(100)

		assert.ErrorIs(t, s.RemoveSubtask(1), ErrIndexOutOfRange)
		assert.ErrorIs(t, s.RemoveSubtask(-1), ErrIndexOutOfRange)
	})
}

func TestSession_RedistributeEqual(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		s := NewSession()
		for i := 0; i < n; i++ {
			s.AddSubtask(&SubtaskContribution{Contribution: float64(i)})
		}

		s.RedistributeEqual()

		require.Len(t, s.Subtasks(), n)
		for _, sub := range s.Subtasks() {
			assert.Equal(t, 100.0/float64(n), sub.Contribution, "n=%d", n)
		}
	}
}

func TestSession_RedistributeOnEdit(t *testing.T) {
	t.Run("excess is absorbed proportionally by the other rows", func(t *testing.T) {
		// given [a:50, b:50], editing a to 70
		s := sessionWith(50, 50)

		// when
		valid, err := s.RedistributeOnEdit(0, 70)

		// then b absorbs the full excess of 20
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, 70.0, s.Subtasks()[0].Contribution)
		assert.InDelta(t, 30.0, s.Subtasks()[1].Contribution, 1e-9)
	})

	t.Run("excess is split in proportion to current shares", func(t *testing.T) {
		// given [a:20, b:60, c:20], editing a to 40: excess 20 over otherTotal 80
		s := sessionWith(20, 60, 20)

		valid, err := s.RedistributeOnEdit(0, 40)

		require.NoError(t, err)
		assert.True(t, valid)
		assert.InDelta(t, 45.0, s.Subtasks()[1].Contribution, 1e-9) // 60 - 20*60/80
		assert.InDelta(t, 15.0, s.Subtasks()[2].Contribution, 1e-9) // 20 - 20*20/80
	})

	t.Run("shortfall with all other rows zero is split equally", func(t *testing.T) {
		// given [a:60, b:0, c:0], editing a down to 30
		s := sessionWith(60, 0, 0)

		valid, err := s.RedistributeOnEdit(0, 30)

		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, 30.0, s.Subtasks()[0].Contribution)
		assert.InDelta(t, 15.0, s.Subtasks()[1].Contribution, 1e-9)
		assert.InDelta(t, 15.0, s.Subtasks()[2].Contribution, 1e-9)
	})

	t.Run("shortfall is given back in proportion to current shares", func(t *testing.T) {
		// given [a:40, b:45, c:15], editing a to 20: shortfall 20 over otherTotal 60
		s := sessionWith(40, 45, 15)

		valid, err := s.RedistributeOnEdit(0, 20)

		require.NoError(t, err)
		assert.True(t, valid)
		assert.InDelta(t, 60.0, s.Subtasks()[1].Contribution, 1e-9) // 45 + 20*45/60
		assert.InDelta(t, 20.0, s.Subtasks()[2].Contribution, 1e-9) // 15 + 20*15/60
	})

	t.Run("a single row is forced to 100", func(t *testing.T) {
		s := sessionWith(100)

		valid, err := s.RedistributeOnEdit(0, 40)

		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, 100.0, s.Subtasks()[0].Contribution)
	})

	t.Run("value is clamped to the 0..100 range", func(t *testing.T) {
		s := sessionWith(50, 50)

		valid, err := s.RedistributeOnEdit(0, 250)

		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, 100.0, s.Subtasks()[0].Contribution)
		assert.InDelta(t, 0.0, s.Subtasks()[1].Contribution, 1e-9)
	})

	t.Run("negative value is clamped to zero", func(t *testing.T) {
		s := sessionWith(40, 60)

		valid, err := s.RedistributeOnEdit(0, -5)

		require.NoError(t, err)
		assert.True(t, valid)
		assert.Equal(t, 0.0, s.Subtasks()[0].Contribution)
		assert.InDelta(t, 100.0, s.Subtasks()[1].Contribution, 1e-9)
	})

	t.Run("out of range index is rejected", func(t *testing.T) {
		s := sessionWith(100)

		_, err := s.RedistributeOnEdit(3, 10)

		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestSession_Collect(t *testing.T) {
	t.Run("rounded drift within tolerance is not adjusted", func(t *testing.T) {
		// 3 rows at 33.33 sum to 99.99; deviation 0.01 < epsilon
		s := sessionWith(33.33, 33.33, 33.33)

		collected := s.Collect()

		require.Len(t, collected, 3)
		for _, sub := range collected {
			assert.Equal(t, 33.33, sub.Contribution)
		}
	})

	t.Run("drift beyond tolerance gets one equal adjustment pass", func(t *testing.T) {
		s := sessionWith(33, 33, 33)

		collected := s.Collect()

		var total float64
		for _, sub := range collected {
			total += sub.Contribution
		}
		assert.True(t, SumsToTarget([]float64{total}, 100))
	})

	t.Run("values are rounded to 2 decimals", func(t *testing.T) {
		s := NewSession()
		s.AddSubtask(nil)
		s.AddSubtask(nil)
		s.AddSubtask(nil)

		collected := s.Collect()

		for _, sub := range collected {
			assert.Equal(t, 33.33, sub.Contribution)
		}
	})

	t.Run("empty collection collects to nothing", func(t *testing.T) {
		assert.Nil(t, NewSession().Collect())
	})

	t.Run("collect does not mutate the live collection", func(t *testing.T) {
		s := sessionWith(33.333333, 33.333333, 33.333334)

		_ = s.Collect()

		assert.Equal(t, 33.333333, s.Subtasks()[0].Contribution)
	})
}

func TestSession_CanSubmit(t *testing.T) {
	t.Run("fresh generated session passes the gate", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.Regenerate(date(2025, 3, 1), date(2025, 3, 7), 420))
		s.AddSubtask(nil)
		s.AddSubtask(nil)

		assert.True(t, s.CanSubmit())
	})

	t.Run("an off-target contribution edit blocks submission", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.Regenerate(date(2025, 3, 1), date(2025, 3, 7), 420))
		s.AddSubtask(&SubtaskContribution{Name: "only", Contribution: 55})

		assert.False(t, s.CanSubmit())
	})

	t.Run("an off-target plan edit blocks submission", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.Regenerate(date(2025, 3, 1), date(2025, 3, 2), 60))
		s.AddSubtask(nil)
		require.NoError(t, s.SetTaskPlanValue(0, 10))

		assert.False(t, s.CanSubmit())
	})

	t.Run("hydrated session passes when stored values are in tolerance", func(t *testing.T) {
		plans := DailyPlans{
			TaskPlans: []DailyPlanEntry{{date(2025, 1, 1), 50}, {date(2025, 1, 2), 50}},
			TimePlans: []DailyPlanEntry{{date(2025, 1, 1), 30}, {date(2025, 1, 2), 30}},
		}
		s := NewSession()
		s.Hydrate(plans, 60, []SubtaskContribution{{Id: 1, Name: "x", Contribution: 100}})

		assert.True(t, s.CanSubmit())
	})
}

func TestSession_Regenerate(t *testing.T) {
	t.Run("regeneration replaces previous edits wholesale", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.Regenerate(date(2025, 3, 1), date(2025, 3, 2), 60))
		require.NoError(t, s.SetTaskPlanValue(0, 99))

		require.NoError(t, s.Regenerate(date(2025, 3, 1), date(2025, 3, 4), 120))

		require.Len(t, s.TaskPlans(), 4)
		assert.Equal(t, 25.0, s.TaskPlans()[0].Value)
		assert.Equal(t, 120.0, s.TargetTime())
	})

	t.Run("invalid range leaves the session untouched", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.Regenerate(date(2025, 3, 1), date(2025, 3, 2), 60))

		err := s.Regenerate(date(2025, 3, 2), date(2025, 3, 1), 60)

		assert.ErrorIs(t, err, ErrInvalidDateRange)
		assert.Len(t, s.TaskPlans(), 2)
	})
}
