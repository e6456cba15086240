package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// DailyTaskPlanDTO and DailyTimePlanDTO are the wire shapes the task storage
// service consumes: parallel arrays of ISO dates with one value each.
type DailyTaskPlanDTO struct {
	Date          string  `json:"date"`
	TaskPlanValue float64 `json:"task_plan_value"`
}

type DailyTimePlanDTO struct {
	Date          string  `json:"date"`
	TimePlanValue float64 `json:"time_plan_value"`
}

type SubtaskContributionDTO struct {
	// SubtaskId is a string on the wire: browser clients send "", "null",
	// or "undefined" for rows that have not been persisted.
	SubtaskId         string  `json:"subtask_id,omitempty"`
	SubtaskName       string  `json:"subtask_name"`
	ContributionValue float64 `json:"contribution_value"`
}

type initialValuesRequest struct {
	StartDate    string  `json:"start_date"`
	DueDate      string  `json:"due_date"`
	TargetTime   float64 `json:"target_time"`
	SubtaskCount int     `json:"subtask_count"`
}

type initialValuesResponse struct {
	DailyTaskPlans           []DailyTaskPlanDTO `json:"daily_task_plans"`
	DailyTimePlans           []DailyTimePlanDTO `json:"daily_time_plans"`
	SubtaskContributionValue float64            `json:"subtask_contribution_value"`
}

type redistributeRequest struct {
	Subtasks []SubtaskContributionDTO `json:"subtasks"`
}

type editRequest struct {
	Subtasks    []SubtaskContributionDTO `json:"subtasks"`
	EditedIndex int                      `json:"edited_index"`
	NewValue    float64                  `json:"new_value"`
}

type contributionsResponse struct {
	Subtasks []SubtaskContributionDTO `json:"subtasks"`
	Valid    bool                     `json:"valid"`
}

type validateRequest struct {
	TargetTime     float64                  `json:"target_time"`
	DailyTaskPlans []DailyTaskPlanDTO       `json:"daily_task_plans"`
	DailyTimePlans []DailyTimePlanDTO       `json:"daily_time_plans"`
	Subtasks       []SubtaskContributionDTO `json:"subtasks"`
}

type checkResultDTO struct {
	Valid  bool    `json:"valid"`
	Total  float64 `json:"total"`
	Target float64 `json:"target"`
}

type validateResponse struct {
	Valid         bool           `json:"valid"`
	TaskPlans     checkResultDTO `json:"task_plans"`
	TimePlans     checkResultDTO `json:"time_plans"`
	Contributions checkResultDTO `json:"contributions"`
}

// Handler exposes the allocation engine as stateless endpoints. Every request
// carries the full session state; the engine itself keeps none.
type Handler struct {
	generator Generator
}

func NewHandler(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// InitialValues godoc
// @Summary Calculate initial daily plan values
// @Description Distribute 100 progress points and the target time evenly across the date range, and 100 contribution points across the subtasks
// @Tags Planner
// @Accept json
// @Produce json
// @Param request body initialValuesRequest true "Date range, target time, and subtask count"
// @Success 200 {object} initialValuesResponse
// @Failure 400 {string} string "Bad Request"
// @Router /api/planner/initial-values [post]
func (h *Handler) InitialValues(w http.ResponseWriter, r *http.Request) {
	log.Debug("Calculating initial plan values")
	w.Header().Set("Content-Type", "application/json")

	var req initialValuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date", http.StatusBadRequest)
		return
	}
	due, err := time.Parse(time.DateOnly, req.DueDate)
	if err != nil {
		http.Error(w, "invalid due_date", http.StatusBadRequest)
		return
	}

	values, err := h.generator.GenerateInitialValues(r.Context(), start, due, req.TargetTime, req.SubtaskCount)
	if err != nil {
		if errors.Is(err, ErrInvalidDateRange) || errors.Is(err, ErrNegativeTargetTime) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := initialValuesResponse{
		DailyTaskPlans:           TaskPlansToDTO(values.Plans.TaskPlans),
		DailyTimePlans:           TimePlansToDTO(values.Plans.TimePlans),
		SubtaskContributionValue: Round2(values.SubtaskContribution),
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// RedistributeContributions godoc
// @Summary Redistribute contributions equally
// @Description Set every subtask contribution to an exact equal share of 100
// @Tags Planner
// @Accept json
// @Produce json
// @Param request body redistributeRequest true "Current subtask rows"
// @Success 200 {object} contributionsResponse
// @Failure 400 {string} string "Bad Request"
// @Router /api/planner/contributions/redistribute [post]
func (h *Handler) RedistributeContributions(w http.ResponseWriter, r *http.Request) {
	log.Debug("Redistributing subtask contributions equally")
	w.Header().Set("Content-Type", "application/json")

	var req redistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session := sessionFromDTO(req.Subtasks)
	session.RedistributeEqual()

	writeContributions(w, session)
}

// EditContribution godoc
// @Summary Apply a single contribution edit
// @Description Apply one proportional rebalancing pass after a user edits a single contribution value
// @Tags Planner
// @Accept json
// @Produce json
// @Param request body editRequest true "Current rows plus the edited index and value"
// @Success 200 {object} contributionsResponse
// @Failure 400 {string} string "Bad Request"
// @Router /api/planner/contributions/edit [post]
func (h *Handler) EditContribution(w http.ResponseWriter, r *http.Request) {
	log.Debug("Applying subtask contribution edit")
	w.Header().Set("Content-Type", "application/json")

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session := sessionFromDTO(req.Subtasks)
	valid, err := session.RedistributeOnEdit(req.EditedIndex, req.NewValue)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := contributionsResponse{
		Subtasks: ContributionsToDTO(session.Collect()),
		Valid:    valid,
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Validate godoc
// @Summary Validate a task plan before submission
// @Description Check task plans against 100, time plans against the target time, and contributions against 100, each within tolerance
// @Tags Planner
// @Accept json
// @Produce json
// @Param request body validateRequest true "Full session state"
// @Success 200 {object} validateResponse
// @Failure 400 {string} string "Bad Request"
// @Router /api/planner/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	log.Debug("Validating plan sums")
	w.Header().Set("Content-Type", "application/json")

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	taskValues := make([]float64, 0, len(req.DailyTaskPlans))
	for _, p := range req.DailyTaskPlans {
		taskValues = append(taskValues, p.TaskPlanValue)
	}
	timeValues := make([]float64, 0, len(req.DailyTimePlans))
	for _, p := range req.DailyTimePlans {
		timeValues = append(timeValues, p.TimePlanValue)
	}
	contributionTotals := make([]float64, 0, len(req.Subtasks))
	for _, s := range req.Subtasks {
		contributionTotals = append(contributionTotals, s.ContributionValue)
	}

	resp := validateResponse{
		TaskPlans:     checkResult(taskValues, 100),
		TimePlans:     checkResult(timeValues, req.TargetTime),
		Contributions: checkResult(contributionTotals, 100),
	}
	resp.Valid = resp.TaskPlans.Valid && resp.TimePlans.Valid && resp.Contributions.Valid

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func checkResult(values []float64, target float64) checkResultDTO {
	var total float64
	for _, v := range values {
		total += v
	}
	return checkResultDTO{
		Valid:  SumsToTarget(values, target),
		Total:  Round2(total),
		Target: target,
	}
}

func writeContributions(w http.ResponseWriter, session *Session) {
	resp := contributionsResponse{
		Subtasks: ContributionsToDTO(session.Collect()),
		Valid:    SumsToTarget(session.ContributionValues(), 100),
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func sessionFromDTO(subtasks []SubtaskContributionDTO) *Session {
	session := NewSession()
	for _, dto := range subtasks {
		sub := DTOToContribution(dto)
		session.AddSubtask(&sub)
	}
	return session
}

func TaskPlansToDTO(entries []DailyPlanEntry) []DailyTaskPlanDTO {
	dtos := make([]DailyTaskPlanDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, DailyTaskPlanDTO{
			Date:          e.Date.Format(time.DateOnly),
			TaskPlanValue: Round2(e.Value),
		})
	}
	return dtos
}

func TimePlansToDTO(entries []DailyPlanEntry) []DailyTimePlanDTO {
	dtos := make([]DailyTimePlanDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, DailyTimePlanDTO{
			Date:          e.Date.Format(time.DateOnly),
			TimePlanValue: Round2(e.Value),
		})
	}
	return dtos
}

func ContributionsToDTO(subs []SubtaskContribution) []SubtaskContributionDTO {
	dtos := make([]SubtaskContributionDTO, 0, len(subs))
	for _, sub := range subs {
		dto := SubtaskContributionDTO{
			SubtaskName:       sub.Name,
			ContributionValue: sub.Contribution,
		}
		if sub.Id != 0 {
			dto.SubtaskId = fmt.Sprintf("%d", sub.Id)
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

func DTOToContribution(dto SubtaskContributionDTO) SubtaskContribution {
	return SubtaskContribution{
		Id:           NormalizeSubtaskID(dto.SubtaskId),
		Name:         dto.SubtaskName,
		Contribution: dto.ContributionValue,
	}
}
