package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	rest "github.com/heyho99/task-management-app/internal/rest"
	"github.com/heyho99/task-management-app/pkg/planner"
	"github.com/heyho99/task-management-app/pkg/user"
)

type TaskDTO struct {
	TaskId         int                              `json:"task_id,omitempty"`
	TaskName       string                           `json:"task_name"`
	TaskContent    string                           `json:"task_content"`
	Category       string                           `json:"category"`
	Comment        string                           `json:"comment"`
	StartDate      string                           `json:"start_date"`
	DueDate        string                           `json:"due_date"`
	TargetTime     int                              `json:"target_time"`
	Progress       float64                          `json:"progress"`
	Subtasks       []planner.SubtaskContributionDTO `json:"subtasks"`
	DailyTaskPlans []planner.DailyTaskPlanDTO       `json:"daily_task_plans"`
	DailyTimePlans []planner.DailyTimePlanDTO       `json:"daily_time_plans"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// CreateTask godoc
// @Summary Create a task
// @Description Create a task with its subtasks and daily plans; allocations must sum up within tolerance
// @Tags Task
// @Accept json
// @Produce json
// @Param task body TaskDTO true "Task details"
// @Success 201 {object} TaskDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 403 {string} string "User not found"
// @Router /api/task [post]
// @Security XUserId
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	dto, ok := decodeTask(w, r)
	if !ok {
		return
	}
	task, err := dtoToTask(dto)
	if err != nil {
		writeBadRequest(w, "Invalid date format", "Dates must be in YYYY-MM-DD format")
		return
	}

	created, err := h.service.CreateTask(r.Context(), task)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(taskToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetTask godoc
// @Summary Get a task
// @Description Retrieve a single task with subtasks, daily plans, and derived progress
// @Tags Task
// @Produce json
// @Param taskId path int true "Task ID"
// @Success 200 {object} TaskDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid taskId"
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Task not found"
// @Router /api/task/{taskId} [get]
// @Security XUserId
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	taskId, ok := pathTaskId(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTask(r.Context(), taskId)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := json.NewEncoder(w).Encode(taskToDTO(task)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// ListTasks godoc
// @Summary List tasks
// @Description Retrieve all tasks of the current user, ordered by due date
// @Tags Task
// @Produce json
// @Success 200 {array} TaskDTO
// @Failure 403 {string} string "User not found"
// @Router /api/task [get]
// @Security XUserId
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		dtos = append(dtos, taskToDTO(task))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// UpdateTask godoc
// @Summary Update a task
// @Description Replace a task's fields, subtasks, and daily plans; allocations must sum up within tolerance
// @Tags Task
// @Accept json
// @Produce json
// @Param taskId path int true "Task ID"
// @Param task body TaskDTO true "Task details"
// @Success 200 {object} TaskDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Task not found"
// @Router /api/task/{taskId} [put]
// @Security XUserId
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	taskId, ok := pathTaskId(w, r)
	if !ok {
		return
	}
	dto, ok := decodeTask(w, r)
	if !ok {
		return
	}
	task, err := dtoToTask(dto)
	if err != nil {
		writeBadRequest(w, "Invalid date format", "Dates must be in YYYY-MM-DD format")
		return
	}
	task.Id = taskId

	updated, err := h.service.UpdateTask(r.Context(), task)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := json.NewEncoder(w).Encode(taskToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Delete a task together with its subtasks, daily plans, and work records
// @Tags Task
// @Param taskId path int true "Task ID"
// @Success 204 {string} string "No Content"
// @Failure 400 {object} rest.ErrorResponse "Invalid taskId"
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Task not found"
// @Router /api/task/{taskId} [delete]
// @Security XUserId
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskId, ok := pathTaskId(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteTask(r.Context(), taskId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathTaskId(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	taskId, err := strconv.ParseInt(vars["taskId"], 10, 64)
	if err != nil {
		writeBadRequest(w, "Invalid taskId format", "Parameter taskId must be a number")
		return 0, false
	}
	return int(taskId), true
}

func decodeTask(w http.ResponseWriter, r *http.Request) (TaskDTO, bool) {
	var dto TaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return TaskDTO{}, false
	}
	return dto, true
}

func writeBadRequest(w http.ResponseWriter, message string, details string) {
	w.WriteHeader(http.StatusBadRequest)
	encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
		Error:   message,
		Details: details,
	})
	if encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrSubtaskNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrPlanOutOfTolerance),
		errors.Is(err, planner.ErrInvalidDateRange),
		errors.Is(err, planner.ErrNegativeTargetTime):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func taskToDTO(task Task) TaskDTO {
	return TaskDTO{
		TaskId:         task.Id,
		TaskName:       task.Name,
		TaskContent:    task.Content,
		Category:       task.Category,
		Comment:        task.Comment,
		StartDate:      task.StartDate.Format(time.DateOnly),
		DueDate:        task.DueDate.Format(time.DateOnly),
		TargetTime:     task.TargetTime,
		Progress:       task.Progress,
		Subtasks:       subtasksToDTO(task.Subtasks),
		DailyTaskPlans: planner.TaskPlansToDTO(task.TaskPlans),
		DailyTimePlans: planner.TimePlansToDTO(task.TimePlans),
	}
}

func dtoToTask(dto TaskDTO) (Task, error) {
	startDate, err := time.Parse(time.DateOnly, dto.StartDate)
	if err != nil {
		return Task{}, err
	}
	dueDate, err := time.Parse(time.DateOnly, dto.DueDate)
	if err != nil {
		return Task{}, err
	}

	task := Task{
		Id:         dto.TaskId,
		Name:       dto.TaskName,
		Content:    dto.TaskContent,
		Category:   dto.Category,
		Comment:    dto.Comment,
		StartDate:  startDate,
		DueDate:    dueDate,
		TargetTime: dto.TargetTime,
	}

	for _, sub := range dto.Subtasks {
		contribution := planner.DTOToContribution(sub)
		task.Subtasks = append(task.Subtasks, Subtask{
			Id:           contribution.Id,
			Name:         contribution.Name,
			Contribution: contribution.Contribution,
		})
	}
	task.TaskPlans, err = plansFromDTO(dtoDates(dto.DailyTaskPlans))
	if err != nil {
		return Task{}, err
	}
	task.TimePlans, err = plansFromDTO(timeDtoDates(dto.DailyTimePlans))
	if err != nil {
		return Task{}, err
	}
	return task, nil
}

type planEntryDTO struct {
	date  string
	value float64
}

func dtoDates(plans []planner.DailyTaskPlanDTO) []planEntryDTO {
	entries := make([]planEntryDTO, 0, len(plans))
	for _, p := range plans {
		entries = append(entries, planEntryDTO{p.Date, p.TaskPlanValue})
	}
	return entries
}

func timeDtoDates(plans []planner.DailyTimePlanDTO) []planEntryDTO {
	entries := make([]planEntryDTO, 0, len(plans))
	for _, p := range plans {
		entries = append(entries, planEntryDTO{p.Date, p.TimePlanValue})
	}
	return entries
}

func plansFromDTO(entries []planEntryDTO) ([]planner.DailyPlanEntry, error) {
	result := make([]planner.DailyPlanEntry, 0, len(entries))
	for _, e := range entries {
		date, err := time.Parse(time.DateOnly, e.date)
		if err != nil {
			return nil, err
		}
		result = append(result, planner.DailyPlanEntry{Date: date, Value: e.value})
	}
	return result, nil
}

func subtasksToDTO(subtasks []Subtask) []planner.SubtaskContributionDTO {
	contributions := make([]planner.SubtaskContribution, 0, len(subtasks))
	for _, sub := range subtasks {
		contributions = append(contributions, planner.SubtaskContribution{
			Id:           sub.Id,
			Name:         sub.Name,
			Contribution: sub.Contribution,
		})
	}
	return planner.ContributionsToDTO(contributions)
}
