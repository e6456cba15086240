package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// InitialValues is everything a task-editing session needs to start from
// scratch: the two daily plan sequences plus the per-subtask equal share.
type InitialValues struct {
	Plans               DailyPlans
	SubtaskContribution float64
}

// Generator computes the initial plan values for a date range. LocalGenerator
// is the canonical implementation; RemoteGenerator delegates to an external
// calculator honouring the same contract. Which one is used is decided by
// configuration, never by a separate code path.
type Generator interface {
	GenerateInitialValues(ctx context.Context, start, due time.Time, targetTime float64, subtaskCount int) (InitialValues, error)
}

type LocalGenerator struct{}

func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{}
}

func (g *LocalGenerator) GenerateInitialValues(_ context.Context, start, due time.Time, targetTime float64, subtaskCount int) (InitialValues, error) {
	plans, err := GenerateDailyPlans(start, due, targetTime)
	if err != nil {
		return InitialValues{}, err
	}
	contribution := 0.0
	if subtaskCount > 0 {
		contribution = 100.0 / float64(subtaskCount)
	}
	return InitialValues{Plans: plans, SubtaskContribution: contribution}, nil
}

// RemoteGenerator asks an external calculator service for the initial values.
// The wire shape mirrors the local computation exactly.
type RemoteGenerator struct {
	url    string
	client *http.Client
}

func NewRemoteGenerator(url string) *RemoteGenerator {
	return &RemoteGenerator{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type remoteRequest struct {
	StartDate    string  `json:"start_date"`
	DueDate      string  `json:"due_date"`
	TargetTime   float64 `json:"target_time"`
	SubtaskCount int     `json:"subtask_count"`
}

type remoteResponse struct {
	DailyTaskPlans []struct {
		Date          string  `json:"date"`
		TaskPlanValue float64 `json:"task_plan_value"`
	} `json:"daily_task_plans"`
	DailyTimePlans []struct {
		Date          string  `json:"date"`
		TimePlanValue float64 `json:"time_plan_value"`
	} `json:"daily_time_plans"`
	SubtaskContributionValue float64 `json:"subtask_contribution_value"`
}

func (g *RemoteGenerator) GenerateInitialValues(ctx context.Context, start, due time.Time, targetTime float64, subtaskCount int) (InitialValues, error) {
	// The remote calculator does not report range errors distinguishably,
	// so reject invalid input before going to the network.
	if DateOnly(due).Before(DateOnly(start)) {
		return InitialValues{}, ErrInvalidDateRange
	}
	if targetTime < 0 {
		return InitialValues{}, ErrNegativeTargetTime
	}

	body, err := json.Marshal(remoteRequest{
		StartDate:    DateOnly(start).Format(time.DateOnly),
		DueDate:      DateOnly(due).Format(time.DateOnly),
		TargetTime:   targetTime,
		SubtaskCount: subtaskCount,
	})
	if err != nil {
		return InitialValues{}, fmt.Errorf("failed to encode calculator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return InitialValues{}, fmt.Errorf("failed to build calculator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return InitialValues{}, fmt.Errorf("calculator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("calculator returned status %d", resp.StatusCode)
		return InitialValues{}, fmt.Errorf("calculator returned status %d", resp.StatusCode)
	}

	var decoded remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return InitialValues{}, fmt.Errorf("failed to decode calculator response: %w", err)
	}

	values := InitialValues{SubtaskContribution: decoded.SubtaskContributionValue}
	for _, p := range decoded.DailyTaskPlans {
		date, err := time.Parse(time.DateOnly, p.Date)
		if err != nil {
			return InitialValues{}, fmt.Errorf("calculator returned invalid date %q: %w", p.Date, err)
		}
		values.Plans.TaskPlans = append(values.Plans.TaskPlans, DailyPlanEntry{Date: date, Value: p.TaskPlanValue})
	}
	for _, p := range decoded.DailyTimePlans {
		date, err := time.Parse(time.DateOnly, p.Date)
		if err != nil {
			return InitialValues{}, fmt.Errorf("calculator returned invalid date %q: %w", p.Date, err)
		}
		values.Plans.TimePlans = append(values.Plans.TimePlans, DailyPlanEntry{Date: date, Value: p.TimePlanValue})
	}
	return values, nil
}
