// Package series turns tasks and predictions into a weekly productivity timeline.
package series

import (
	"math"
	"time"

	"github.com/teamboard/teamboard/internal/domain"
)

// Period places a week relative to today.
type Period string

const (
	PeriodPast   Period = "past"
	PeriodToday  Period = "today"
	PeriodFuture Period = "future"
)

const (
	monthsBack    = 3
	monthsAhead   = 2
	pastGrowth    = 0.05
	futureDrift   = 0.02
	minScore      = 1.0
	maxScore      = 10.0
	labelLayout   = "Jan 2"
	daysInOneWeek = 7
)

// Point is one week of the timeline.
type Point struct {
	WeekStart            time.Time `json:"weekStart"`
	Label                string    `json:"label"`
	Period               Period    `json:"period"`
	CompletedTasks       int       `json:"completedTasks"`
	InProgressTasks      int       `json:"inProgressTasks"`
	PredictedCompletions int       `json:"predictedCompletions"`
	Productivity         float64   `json:"productivity"`
	Titles               []string  `json:"titles"`
}

// Input holds everything Build reads. Today fixes the window and makes the output reproducible.
type Input struct {
	Tasks       []domain.Task
	Predictions []domain.Prediction
	Score       float64
	Today       time.Time
}

// Build returns Monday-aligned weeks from three months before Today to two months after it.
func Build(in Input) []Point {
	today := startOfDay(in.Today)
	first := weekStart(today.AddDate(0, -monthsBack, 0))
	last := today.AddDate(0, monthsAhead, 0)
	current := weekStart(today)
	score := clamp(in.Score)

	var points []Point
	impact := 0.0
	predicted := make([]bool, len(in.Predictions))

	for start := first; !start.After(last); start = start.AddDate(0, 0, daysInOneWeek) {
		end := start.AddDate(0, 0, daysInOneWeek)
		p := Point{
			WeekStart: start,
			Label:     start.Format(labelLayout),
			Titles:    []string{},
		}
		weeks := weeksBetween(current, start)

		switch {
		case start.Before(current):
			p.Period = PeriodPast
		case start.Equal(current):
			p.Period = PeriodToday
		default:
			p.Period = PeriodFuture
		}

		for _, t := range in.Tasks {
			if t.Completed() {
				done := t.CompletionDate()
				if p.Period != PeriodFuture && done.Before(end) {
					p.CompletedTasks++
				}
				if inWeek(done, start, end) {
					p.Titles = append(p.Titles, t.Title)
				}
				continue
			}
			if inProgressDuring(t, start, end) {
				p.InProgressTasks++
			}
		}

		for _, pred := range in.Predictions {
			if !inWeek(pred.PredictedCompletionDate, start, end) {
				continue
			}
			p.Titles = append(p.Titles, pred.Title)
			if p.Period == PeriodFuture {
				p.PredictedCompletions++
			}
		}
		if p.Period == PeriodFuture {
			for i, pred := range in.Predictions {
				if !predicted[i] && pred.PredictedCompletionDate.Before(end) {
					predicted[i] = true
					impact += pred.ProductivityImpact
				}
			}
		}

		switch p.Period {
		case PeriodPast:
			p.Productivity = round1(clamp(score - pastGrowth*float64(-weeks)))
		case PeriodToday:
			p.Productivity = round1(score)
		default:
			p.Productivity = round1(clamp(score + futureDrift*float64(weeks) + impact))
		}
		points = append(points, p)
	}
	return points
}

func inProgressDuring(t domain.Task, start, end time.Time) bool {
	if t.Status != domain.TaskStatusInProgress && t.Status != domain.TaskStatusReview {
		return false
	}
	if t.StartDate != nil && !t.StartDate.Before(end) {
		return false
	}
	if t.EndDate != nil && t.EndDate.Before(start) {
		return false
	}
	return true
}

func inWeek(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

// weeksBetween counts whole weeks from a to b; both must be week starts.
func weeksBetween(a, b time.Time) int {
	days := b.Sub(a).Hours() / 24
	return int(math.Round(days / daysInOneWeek))
}

func weekStart(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func clamp(v float64) float64 {
	return math.Min(maxScore, math.Max(minScore, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
