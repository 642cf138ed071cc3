package predictor

import (
	"math"
	"sort"

	"github.com/teamboard/teamboard/internal/domain"
)

const (
	// NeutralScore is reported for users without assigned tasks.
	NeutralScore = 5.0

	completionThreshold = 0.6
	onTimeThreshold     = 0.7
	fillerImprovement   = "Take on more complex tasks"
)

// ScoreProductivity rates user's effectiveness over the tasks assigned to them.
func ScoreProductivity(user domain.User, tasks []domain.Task) domain.ProductivityProfile {
	profile := domain.ProductivityProfile{
		UserID:              user.ID,
		FullName:            user.FullName,
		ProductivityScore:   NeutralScore,
		Strengths:           []string{},
		AreasForImprovement: []string{},
	}

	var assigned, completed []domain.Task
	for _, t := range tasks {
		if !t.AssignedTo(user.ID) {
			continue
		}
		assigned = append(assigned, t)
		if t.Completed() {
			completed = append(completed, t)
		}
	}
	if len(assigned) == 0 {
		return profile
	}

	onTime := 0
	for _, t := range completed {
		if finishedOnTime(t) {
			onTime++
		}
	}

	completionRatio := float64(len(completed)) / float64(len(assigned))
	onTimeRatio := 0.0
	if len(completed) > 0 {
		onTimeRatio = float64(onTime) / float64(len(completed))
	}

	score := math.Round((completionRatio*6+onTimeRatio*4)*10) / 10
	profile.ProductivityScore = math.Min(10, math.Max(1, score))
	profile.CompletionRatio = completionRatio
	profile.OnTimeRatio = onTimeRatio
	profile.Strengths = strengths(user, completed, completionRatio, onTimeRatio)
	profile.AreasForImprovement = improvements(completionRatio, onTimeRatio)
	return profile
}

// finishedOnTime compares the completion day with the deadline day. Tasks without a
// deadline never count as on time.
func finishedOnTime(t domain.Task) bool {
	if t.EndDate == nil {
		return false
	}
	return !startOfDay(t.UpdatedAt).After(startOfDay(*t.EndDate))
}

func strengths(user domain.User, completed []domain.Task, completionRatio, onTimeRatio float64) []string {
	out := []string{}
	for _, typ := range topTypes(completed, 2) {
		out = append(out, "Strong track record on "+typ.String()+" tasks")
	}
	for i, skill := range user.Skills {
		if i == 2 {
			break
		}
		out = append(out, "Skilled in "+skill)
	}
	if len(out) < 2 {
		if completionRatio > completionThreshold {
			out = append(out, "Consistently completes assigned tasks")
		}
		if onTimeRatio > onTimeThreshold {
			out = append(out, "Reliably meets deadlines")
		}
	}
	return out
}

func improvements(completionRatio, onTimeRatio float64) []string {
	out := []string{}
	if completionRatio <= completionThreshold {
		out = append(out, "Improve task completion rate")
	}
	if onTimeRatio <= onTimeThreshold {
		out = append(out, "Deliver more tasks before their deadline")
	}
	if len(out) == 0 {
		out = append(out, fillerImprovement)
	}
	return out
}

// topTypes ranks task types by frequency; ties keep the lower type first.
func topTypes(tasks []domain.Task, n int) []domain.TaskType {
	counts := map[domain.TaskType]int{}
	for _, t := range tasks {
		counts[t.Type]++
	}
	types := make([]domain.TaskType, 0, len(counts))
	for typ := range counts {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})
	if len(types) > n {
		types = types[:n]
	}
	return types
}
