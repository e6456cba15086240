package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	rest "github.com/heyho99/task-management-app/internal/rest"
	"github.com/heyho99/task-management-app/pkg/task"
	"github.com/heyho99/task-management-app/pkg/user"
)

type DayReportDTO struct {
	Date              string  `json:"date"`
	PlannedTask       float64 `json:"planned_task"`
	PlannedTime       float64 `json:"planned_time"`
	ActualWork        int     `json:"actual_work"`
	ActualTime        int     `json:"actual_time"`
	CumulativePlanned float64 `json:"cumulative_planned"`
	CumulativeActual  int     `json:"cumulative_actual"`
}

type TaskReportDTO struct {
	TaskId        int            `json:"task_id"`
	TaskName      string         `json:"task_name"`
	StartDate     string         `json:"start_date"`
	DueDate       string         `json:"due_date"`
	TargetTime    int            `json:"target_time"`
	Progress      float64        `json:"progress"`
	TotalWorkTime int            `json:"total_work_time"`
	Days          []DayReportDTO `json:"days"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// GetTaskReport godoc
// @Summary Get a task report
// @Description Compare planned daily values with recorded work, day by day
// @Tags Report
// @Produce json
// @Param taskId path int true "Task ID"
// @Success 200 {object} TaskReportDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid taskId"
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Task not found"
// @Router /api/report/task/{taskId} [get]
// @Security XUserId
func (h *Handler) GetTaskReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	vars := mux.Vars(r)
	taskId, err := strconv.ParseInt(vars["taskId"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid taskId format",
			Details: "Parameter taskId must be a number",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	report, err := h.service.TaskReport(r.Context(), int(taskId))
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNoUser):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, task.ErrTaskNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if err := json.NewEncoder(w).Encode(reportToDTO(report)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func reportToDTO(report TaskReport) TaskReportDTO {
	dto := TaskReportDTO{
		TaskId:        report.TaskId,
		TaskName:      report.TaskName,
		StartDate:     report.StartDate.Format(time.DateOnly),
		DueDate:       report.DueDate.Format(time.DateOnly),
		TargetTime:    report.TargetTime,
		Progress:      report.Progress,
		TotalWorkTime: report.TotalWorkTime,
		Days:          make([]DayReportDTO, 0, len(report.Days)),
	}
	for _, day := range report.Days {
		dto.Days = append(dto.Days, DayReportDTO{
			Date:              day.Date.Format(time.DateOnly),
			PlannedTask:       day.PlannedTask,
			PlannedTime:       day.PlannedTime,
			ActualWork:        day.ActualWork,
			ActualTime:        day.ActualTime,
			CumulativePlanned: day.CumulativePlanned,
			CumulativeActual:  day.CumulativeActual,
		})
	}
	return dto
}
