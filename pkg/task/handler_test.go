package task

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyho99/task-management-app/internal/event_bus"
	"github.com/heyho99/task-management-app/pkg/planner"
)

func testRouter() (*mux.Router, *RepositoryStub) {
	repo := NewRepositoryStub()
	service := NewTaskService(repo, &workProgressStub{}, event_bus.NewEventBus())
	handler := NewHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/api/task", handler.ListTasks).Methods("GET")
	r.HandleFunc("/api/task", handler.CreateTask).Methods("POST")
	r.HandleFunc("/api/task/{taskId}", handler.GetTask).Methods("GET")
	r.HandleFunc("/api/task/{taskId}", handler.UpdateTask).Methods("PUT")
	r.HandleFunc("/api/task/{taskId}", handler.DeleteTask).Methods("DELETE")
	return r, repo
}

func doJSON(t *testing.T, router *mux.Router, method string, path string, userId int, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if userId != 0 {
		req = req.WithContext(userContext(userId))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validTaskDTO() TaskDTO {
	return TaskDTO{
		TaskName:   "Write thesis chapter",
		StartDate:  "2026-03-01",
		DueDate:    "2026-03-04",
		TargetTime: 120,
		Subtasks: []planner.SubtaskContributionDTO{
			{SubtaskName: "Draft", ContributionValue: 60},
			{SubtaskName: "Revise", ContributionValue: 40},
		},
		DailyTaskPlans: []planner.DailyTaskPlanDTO{
			{Date: "2026-03-01", TaskPlanValue: 25}, {Date: "2026-03-02", TaskPlanValue: 25},
			{Date: "2026-03-03", TaskPlanValue: 25}, {Date: "2026-03-04", TaskPlanValue: 25},
		},
		DailyTimePlans: []planner.DailyTimePlanDTO{
			{Date: "2026-03-01", TimePlanValue: 30}, {Date: "2026-03-02", TimePlanValue: 30},
			{Date: "2026-03-03", TimePlanValue: 30}, {Date: "2026-03-04", TimePlanValue: 30},
		},
	}
}

func TestHandler_CreateTask(t *testing.T) {
	t.Run("creates a task and returns ids", func(t *testing.T) {
		router, _ := testRouter()

		w := doJSON(t, router, http.MethodPost, "/api/task", 1, validTaskDTO())

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp TaskDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.NotZero(t, resp.TaskId)
		require.Len(t, resp.Subtasks, 2)
		assert.NotEmpty(t, resp.Subtasks[0].SubtaskId)
	})

	t.Run("rejects contributions out of tolerance", func(t *testing.T) {
		router, _ := testRouter()
		dto := validTaskDTO()
		dto.Subtasks[1].ContributionValue = 20

		w := doJSON(t, router, http.MethodPost, "/api/task", 1, dto)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an unparseable date", func(t *testing.T) {
		router, _ := testRouter()
		dto := validTaskDTO()
		dto.StartDate = "03/01/2026"

		w := doJSON(t, router, http.MethodPost, "/api/task", 1, dto)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects request without a user", func(t *testing.T) {
		router, _ := testRouter()

		w := doJSON(t, router, http.MethodPost, "/api/task", 0, validTaskDTO())

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestHandler_GetTask(t *testing.T) {
	t.Run("returns 404 for an unknown task", func(t *testing.T) {
		router, _ := testRouter()

		w := doJSON(t, router, http.MethodGet, "/api/task/42", 1, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns the stored task", func(t *testing.T) {
		router, _ := testRouter()
		created := doJSON(t, router, http.MethodPost, "/api/task", 1, validTaskDTO())
		var dto TaskDTO
		require.NoError(t, json.NewDecoder(created.Body).Decode(&dto))

		w := doJSON(t, router, http.MethodGet, "/api/task/1", 1, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp TaskDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Write thesis chapter", resp.TaskName)
		assert.Equal(t, "2026-03-01", resp.StartDate)
	})
}

func TestHandler_DeleteTask(t *testing.T) {
	t.Run("deletes and then reports not found", func(t *testing.T) {
		router, _ := testRouter()
		doJSON(t, router, http.MethodPost, "/api/task", 1, validTaskDTO())

		w := doJSON(t, router, http.MethodDelete, "/api/task/1", 1, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, http.MethodDelete, "/api/task/1", 1, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
