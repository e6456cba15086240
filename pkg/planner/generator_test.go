package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGenerator(t *testing.T) {
	g := NewLocalGenerator()

	t.Run("splits contribution across subtasks", func(t *testing.T) {
		values, err := g.GenerateInitialValues(context.Background(), date(2025, 3, 1), date(2025, 3, 2), 60, 4)

		require.NoError(t, err)
		assert.Equal(t, 25.0, values.SubtaskContribution)
		assert.Len(t, values.Plans.TaskPlans, 2)
	})

	t.Run("zero subtasks yield zero contribution", func(t *testing.T) {
		values, err := g.GenerateInitialValues(context.Background(), date(2025, 3, 1), date(2025, 3, 2), 60, 0)

		require.NoError(t, err)
		assert.Equal(t, 0.0, values.SubtaskContribution)
	})
}

func TestRemoteGenerator(t *testing.T) {
	t.Run("decodes the calculator response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req remoteRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "2025-03-01", req.StartDate)
			assert.Equal(t, 2, req.SubtaskCount)

			json.NewEncoder(w).Encode(map[string]any{
				"daily_task_plans": []map[string]any{
					{"date": "2025-03-01", "task_plan_value": 50.0},
					{"date": "2025-03-02", "task_plan_value": 50.0},
				},
				"daily_time_plans": []map[string]any{
					{"date": "2025-03-01", "time_plan_value": 30.0},
					{"date": "2025-03-02", "time_plan_value": 30.0},
				},
				"subtask_contribution_value": 50.0,
			})
		}))
		defer server.Close()

		g := NewRemoteGenerator(server.URL)
		values, err := g.GenerateInitialValues(context.Background(), date(2025, 3, 1), date(2025, 3, 2), 60, 2)

		require.NoError(t, err)
		require.Len(t, values.Plans.TaskPlans, 2)
		assert.Equal(t, 50.0, values.Plans.TaskPlans[0].Value)
		assert.Equal(t, 30.0, values.Plans.TimePlans[1].Value)
		assert.Equal(t, 50.0, values.SubtaskContribution)
	})

	t.Run("rejects invalid ranges before calling the calculator", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		g := NewRemoteGenerator(server.URL)
		_, err := g.GenerateInitialValues(context.Background(), date(2025, 3, 2), date(2025, 3, 1), 60, 1)

		assert.ErrorIs(t, err, ErrInvalidDateRange)
		assert.False(t, called)
	})

	t.Run("surfaces non-200 responses as errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		g := NewRemoteGenerator(server.URL)
		_, err := g.GenerateInitialValues(context.Background(), date(2025, 3, 1), date(2025, 3, 2), 60, 1)

		assert.Error(t, err)
	})
}
