package worklog

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

type WorkRecordDTO struct {
	RecordId  int    `json:"record_id,omitempty"`
	SubtaskId int    `json:"subtask_id"`
	Date      string `json:"date"`
	Work      int    `json:"work"`
	WorkTime  int    `json:"work_time"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RecordWork godoc
// @Summary Record work on a subtask
// @Description Record one day of work; a subtask can have only one record per date
// @Tags Worklog
// @Accept json
// @Produce json
// @Param record body WorkRecordDTO true "Work record details"
// @Success 201 {object} WorkRecordDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Subtask not found"
// @Failure 409 {string} string "Record already exists"
// @Router /api/worklog [post]
// @Security XUserId
func (h *Handler) RecordWork(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	record, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	created, err := h.service.RecordWork(r.Context(), record)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(recordToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetRecords godoc
// @Summary List work records
// @Description Retrieve work records for a subtask or for a whole task
// @Tags Worklog
// @Produce json
// @Param subtaskId query int false "Subtask ID"
// @Param taskId query int false "Task ID"
// @Success 200 {array} WorkRecordDTO
// @Failure 400 {object} rest.ErrorResponse "Missing or invalid query parameter"
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Task or subtask not found"
// @Router /api/worklog [get]
// @Security XUserId
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var records []WorkRecord
	var err error
	switch {
	case r.URL.Query().Get("subtaskId") != "":
		var subtaskId int
		subtaskId, err = strconv.Atoi(r.URL.Query().Get("subtaskId"))
		if err != nil {
			writeBadRequest(w, "Invalid subtaskId format", "Parameter subtaskId must be a number")
			return
		}
		records, err = h.service.RecordsForSubtask(r.Context(), subtaskId)
	case r.URL.Query().Get("taskId") != "":
		var taskId int
		taskId, err = strconv.Atoi(r.URL.Query().Get("taskId"))
		if err != nil {
			writeBadRequest(w, "Invalid taskId format", "Parameter taskId must be a number")
			return
		}
		records, err = h.service.RecordsForTask(r.Context(), taskId)
	default:
		writeBadRequest(w, "Missing query parameter", "Either subtaskId or taskId must be provided")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]WorkRecordDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, recordToDTO(record))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// UpdateRecord godoc
// @Summary Update a work record
// @Description Change the work, work time or date of an existing record
// @Tags Worklog
// @Accept json
// @Produce json
// @Param recordId path int true "Record ID"
// @Param record body WorkRecordDTO true "New work values"
// @Success 200 {object} WorkRecordDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Record not found"
// @Failure 409 {string} string "Another record already exists on the new date"
// @Router /api/worklog/{recordId} [put]
// @Security XUserId
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	recordId, ok := pathRecordId(w, r)
	if !ok {
		return
	}
	var dto WorkRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return
	}
	var date time.Time
	if dto.Date != "" {
		var err error
		date, err = time.Parse(time.DateOnly, dto.Date)
		if err != nil {
			writeBadRequest(w, "Invalid date format", "Date must be in YYYY-MM-DD format")
			return
		}
	}

	updated, err := h.service.UpdateRecord(r.Context(), WorkRecord{
		Id:       recordId,
		Date:     date,
		Work:     dto.Work,
		WorkTime: dto.WorkTime,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := json.NewEncoder(w).Encode(recordToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// DeleteRecord godoc
// @Summary Delete a work record
// @Tags Worklog
// @Param recordId path int true "Record ID"
// @Success 204 {string} string "No Content"
// @Failure 400 {object} rest.ErrorResponse "Invalid recordId"
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Record not found"
// @Router /api/worklog/{recordId} [delete]
// @Security XUserId
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordId, ok := pathRecordId(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteRecord(r.Context(), recordId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathRecordId(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	recordId, err := strconv.ParseInt(vars["recordId"], 10, 64)
	if err != nil {
		writeBadRequest(w, "Invalid recordId format", "Parameter recordId must be a number")
		return 0, false
	}
	return int(recordId), true
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (WorkRecord, bool) {
	var dto WorkRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return WorkRecord{}, false
	}
	record, err := dtoToRecord(dto)
	if err != nil {
		writeBadRequest(w, "Invalid date format", "Date must be in YYYY-MM-DD format")
		return WorkRecord{}, false
	}
	return record, true
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
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, task.ErrSubtaskNotFound),
		errors.Is(err, ErrRecordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrRecordAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrFutureDate), errors.Is(err, ErrInvalidWork):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func recordToDTO(record WorkRecord) WorkRecordDTO {
	return WorkRecordDTO{
		RecordId:  record.Id,
		SubtaskId: record.SubtaskId,
		Date:      record.Date.Format(time.DateOnly),
		Work:      record.Work,
		WorkTime:  record.WorkTime,
	}
}

func dtoToRecord(dto WorkRecordDTO) (WorkRecord, error) {
	date, err := time.Parse(time.DateOnly, dto.Date)
	if err != nil {
		return WorkRecord{}, err
	}
	return WorkRecord{
		Id:        dto.RecordId,
		SubtaskId: dto.SubtaskId,
		Date:      date,
		Work:      dto.Work,
		WorkTime:  dto.WorkTime,
	}, nil
}
