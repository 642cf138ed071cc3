package predictor

import (
	"context"
	"math"
	"time"

	"github.com/teamboard/teamboard/internal/domain"
)

// LocalConfidence is the confidence attached to heuristic predictions.
const LocalConfidence = 7

// baselineScore is the productivity score at which estimates are not scaled.
const baselineScore = 7.0

var typeFactor = map[domain.TaskType]float64{
	domain.TaskTypeBug:           2,
	domain.TaskTypeFeature:       4,
	domain.TaskTypeImprovement:   3,
	domain.TaskTypeDocumentation: 1,
	domain.TaskTypeTesting:       2,
	domain.TaskTypeResearch:      3,
	domain.TaskTypeDesign:        3,
	domain.TaskTypeMaintenance:   2,
	domain.TaskTypeProject:       7,
}

var priorityFactor = map[domain.TaskPriority]float64{
	domain.TaskPriorityHigh:   0.7,
	domain.TaskPriorityMedium: 1.0,
	domain.TaskPriorityLow:    1.2,
	domain.TaskPriorityLowest: 1.5,
}

func factorFor(t domain.TaskType) float64 {
	if f, ok := typeFactor[t]; ok {
		return f
	}
	return 3
}

func priorityFor(p domain.TaskPriority) float64 {
	if f, ok := priorityFactor[p]; ok {
		return f
	}
	return 1
}

// LocalDays estimates working days for task at the given productivity score.
// Rounding is half away from zero and the result is never below one day.
func LocalDays(task domain.Task, score float64) int {
	scale := math.Max(1, score) / baselineScore
	days := int(math.Round(factorFor(task.Type) * priorityFor(task.Priority) / scale))
	if days < 1 {
		return 1
	}
	return days
}

// productivityImpact rewards predictions that land on or before the deadline.
func productivityImpact(task domain.Task, completion time.Time) float64 {
	if task.EndDate == nil {
		return 0.1
	}
	if !startOfDay(completion).After(startOfDay(*task.EndDate)) {
		return 0.2
	}
	return -0.3
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func buildPrediction(task domain.Task, days, confidence int, strategy string, now time.Time) domain.Prediction {
	start := now
	if task.StartDate != nil {
		start = *task.StartDate
	}
	completion := start.AddDate(0, 0, days)
	return domain.Prediction{
		TaskID:                  task.ID,
		Title:                   task.Title,
		PredictedCompletionDate: completion,
		PredictedDurationDays:   days,
		ConfidenceScore:         confidence,
		ProductivityImpact:      productivityImpact(task, completion),
		Strategy:                strategy,
	}
}

// LocalStrategy is the always-available heuristic estimator.
type LocalStrategy struct{}

// Name implements Strategy.
func (LocalStrategy) Name() string { return "local-heuristic" }

// Limit implements Strategy; the heuristic takes every task.
func (LocalStrategy) Limit() int { return 0 }

// Predict implements Strategy.
func (s LocalStrategy) Predict(_ context.Context, req Request) (map[string]domain.Prediction, error) {
	out := make(map[string]domain.Prediction, len(req.Tasks))
	for _, task := range req.Tasks {
		out[task.ID] = buildPrediction(task, LocalDays(task, req.Score), LocalConfidence, s.Name(), req.Now)
	}
	return out, nil
}
