package planner

import (
	"errors"
	"time"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// Session owns the mutable state of a single task-editing session: the two
// daily plan sequences, the current target time, and the ordered subtask
// contribution collection. It is created fresh for task creation, or hydrated
// from a stored task for editing, and discarded when the session ends.
// Persistence belongs to the caller.
//
// A Session is not safe for concurrent use: the proportional adjustment math
// assumes it observes a consistent prior state, so callers crossing
// asynchronous boundaries must serialize edits.
type Session struct {
	taskPlans  []DailyPlanEntry
	timePlans  []DailyPlanEntry
	targetTime float64
	subtasks   []SubtaskContribution
}

func NewSession() *Session {
	return &Session{}
}

// Regenerate replaces both plan sequences with a fresh equal split over the
// given range. Subtask contributions are left untouched. Any previous edits
// to the plan sequences are discarded, never patched incrementally.
func (s *Session) Regenerate(start, due time.Time, targetTime float64) error {
	plans, err := GenerateDailyPlans(start, due, targetTime)
	if err != nil {
		return err
	}
	s.taskPlans = plans.TaskPlans
	s.timePlans = plans.TimePlans
	s.targetTime = targetTime
	return nil
}

// Hydrate loads already-persisted plans and subtasks into the session,
// bypassing generation and redistribution.
func (s *Session) Hydrate(plans DailyPlans, targetTime float64, subtasks []SubtaskContribution) {
	s.taskPlans = plans.TaskPlans
	s.timePlans = plans.TimePlans
	s.targetTime = targetTime
	s.subtasks = append([]SubtaskContribution(nil), subtasks...)
}

func (s *Session) TaskPlans() []DailyPlanEntry     { return s.taskPlans }
func (s *Session) TimePlans() []DailyPlanEntry     { return s.timePlans }
func (s *Session) TargetTime() float64             { return s.targetTime }
func (s *Session) Subtasks() []SubtaskContribution { return s.subtasks }

// SetTaskPlanValue records a user edit of one task-plan day.
func (s *Session) SetTaskPlanValue(index int, value float64) error {
	if index < 0 || index >= len(s.taskPlans) {
		return ErrIndexOutOfRange
	}
	s.taskPlans[index].Value = value
	return nil
}

// SetTimePlanValue records a user edit of one time-plan day.
func (s *Session) SetTimePlanValue(index int, value float64) error {
	if index < 0 || index >= len(s.timePlans) {
		return ErrIndexOutOfRange
	}
	s.timePlans[index].Value = value
	return nil
}

// AddSubtask appends a row to the contribution collection. When existing is
// provided (hydration of a stored subtask) it is used verbatim and the other
// rows keep their values. When it is nil (the "add row" button) a zero row is
// appended and the whole collection is redistributed equally.
func (s *Session) AddSubtask(existing *SubtaskContribution) {
	if existing != nil {
		s.subtasks = append(s.subtasks, *existing)
		return
	}
	s.subtasks = append(s.subtasks, SubtaskContribution{})
	s.RedistributeEqual()
}

// RemoveSubtask removes the row at index and redistributes the remainder
// equally. Removing the last row leaves an empty collection.
func (s *Session) RemoveSubtask(index int) error {
	if index < 0 || index >= len(s.subtasks) {
		return ErrIndexOutOfRange
	}
	s.subtasks = append(s.subtasks[:index], s.subtasks[index+1:]...)
	if len(s.subtasks) > 0 {
		s.RedistributeEqual()
	}
	return nil
}

// RedistributeEqual sets every row to exactly 100/count. No remainder
// correction is applied; the rounded representation may drift slightly from
// 100, within the validator's tolerance.
func (s *Session) RedistributeEqual() {
	count := len(s.subtasks)
	if count == 0 {
		return
	}
	equal := 100.0 / float64(count)
	for i := range s.subtasks {
		s.subtasks[i].Contribution = equal
	}
}

// RedistributeOnEdit applies a user edit of one row and rebalances the other
// rows proportionally to their current share, in a single pass. The returned
// bool is the tolerance check against 100 after the pass; residual drift is
// not retried.
func (s *Session) RedistributeOnEdit(index int, value float64) (bool, error) {
	if index < 0 || index >= len(s.subtasks) {
		return false, ErrIndexOutOfRange
	}

	if value < 0 {
		value = 0
	} else if value > 100 {
		value = 100
	}

	var otherTotal float64
	for i, sub := range s.subtasks {
		if i != index {
			otherTotal += sub.Contribution
		}
	}

	s.subtasks[index].Contribution = value
	otherCount := len(s.subtasks) - 1

	switch total := value + otherTotal; {
	case otherCount == 0:
		// A single row always carries the full contribution.
		s.subtasks[index].Contribution = 100

	case total > 100:
		if otherTotal == 0 {
			s.subtasks[index].Contribution = 100
			break
		}
		excess := total - 100
		for i := range s.subtasks {
			if i == index {
				continue
			}
			old := s.subtasks[i].Contribution
			s.subtasks[i].Contribution = max(0, old-excess*old/otherTotal)
		}

	case total < 100:
		shortfall := 100 - total
		if otherTotal == 0 {
			share := shortfall / float64(otherCount)
			for i := range s.subtasks {
				if i != index {
					s.subtasks[i].Contribution += share
				}
			}
			break
		}
		for i := range s.subtasks {
			if i == index {
				continue
			}
			old := s.subtasks[i].Contribution
			s.subtasks[i].Contribution = old + shortfall*old/otherTotal
		}
	}

	return SumsToTarget(s.ContributionValues(), 100), nil
}

// ContributionValues extracts the contribution column, for validation.
func (s *Session) ContributionValues() []float64 {
	values := make([]float64, 0, len(s.subtasks))
	for _, sub := range s.subtasks {
		values = append(values, sub.Contribution)
	}
	return values
}

// Collect returns the collection ready for transport: every contribution
// rounded to 2 decimals, with one equal adjustment pass when the rounded sum
// has drifted out of tolerance. Rows with Id 0 signal "create new" to the
// storage layer.
func (s *Session) Collect() []SubtaskContribution {
	if len(s.subtasks) == 0 {
		return nil
	}

	out := make([]SubtaskContribution, len(s.subtasks))
	var total float64
	for i, sub := range s.subtasks {
		sub.Contribution = Round2(sub.Contribution)
		out[i] = sub
		total += sub.Contribution
	}

	if !SumsToTarget(contributionValues(out), 100) {
		adjustment := (100 - total) / float64(len(out))
		for i := range out {
			out[i].Contribution = Round2(out[i].Contribution + adjustment)
		}
	}
	return out
}

// CanSubmit is the submission gate: task plans must sum to 100, time plans to
// the target time, and contributions to 100, all within tolerance. It never
// mutates session state; surfacing which check failed is the caller's job.
func (s *Session) CanSubmit() bool {
	return SumsToTarget(PlanValues(s.taskPlans), 100) &&
		SumsToTarget(PlanValues(s.timePlans), s.targetTime) &&
		SumsToTarget(s.ContributionValues(), 100)
}

func contributionValues(subs []SubtaskContribution) []float64 {
	values := make([]float64, 0, len(subs))
	for _, sub := range subs {
		values = append(values, sub.Contribution)
	}
	return values
}
