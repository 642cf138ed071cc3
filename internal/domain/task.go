package domain

import "time"

// TaskStatus enumerates task lifecycle states.
type TaskStatus int

const (
	TaskStatusPending    TaskStatus = 1
	TaskStatusInProgress TaskStatus = 2
	TaskStatusReview     TaskStatus = 3
	TaskStatusCompleted  TaskStatus = 4
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s >= TaskStatusPending && s <= TaskStatusCompleted
}

// TaskType classifies the kind of work a task represents.
type TaskType int

const (
	TaskTypeBug           TaskType = 1
	TaskTypeFeature       TaskType = 2
	TaskTypeImprovement   TaskType = 3
	TaskTypeDocumentation TaskType = 4
	TaskTypeTesting       TaskType = 5
	TaskTypeResearch      TaskType = 6
	TaskTypeDesign        TaskType = 7
	TaskTypeMaintenance   TaskType = 8
	TaskTypeProject       TaskType = 9
)

var taskTypeNames = map[TaskType]string{
	TaskTypeBug:           "Bug",
	TaskTypeFeature:       "Feature",
	TaskTypeImprovement:   "Improvement",
	TaskTypeDocumentation: "Documentation",
	TaskTypeTesting:       "Testing",
	TaskTypeResearch:      "Research",
	TaskTypeDesign:        "Design",
	TaskTypeMaintenance:   "Maintenance",
	TaskTypeProject:       "Project",
}

// Valid reports whether t is a known type.
func (t TaskType) Valid() bool {
	return t >= TaskTypeBug && t <= TaskTypeProject
}

func (t TaskType) String() string {
	if name, ok := taskTypeNames[t]; ok {
		return name
	}
	return "Other"
}

// TaskPriority ranks urgency; lower values are more urgent.
type TaskPriority int

const (
	TaskPriorityHigh   TaskPriority = 1
	TaskPriorityMedium TaskPriority = 2
	TaskPriorityLow    TaskPriority = 3
	TaskPriorityLowest TaskPriority = 4
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	return p >= TaskPriorityHigh && p <= TaskPriorityLowest
}

func (p TaskPriority) String() string {
	switch p {
	case TaskPriorityHigh:
		return "High"
	case TaskPriorityMedium:
		return "Medium"
	case TaskPriorityLow:
		return "Low"
	case TaskPriorityLowest:
		return "Lowest"
	default:
		return "Unknown"
	}
}

// Task is a unit of tracked work assigned to one or more users.
type Task struct {
	ID        string       `json:"id"`
	TeamID    string       `json:"teamId,omitempty"`
	Title     string       `json:"title"`
	Type      TaskType     `json:"type"`
	Priority  TaskPriority `json:"priority"`
	Status    TaskStatus   `json:"status"`
	Assigns   []string     `json:"assigns"`
	StartDate *time.Time   `json:"start_date,omitempty"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Completed reports whether the task reached its final state.
func (t Task) Completed() bool {
	return t.Status == TaskStatusCompleted
}

// AssignedTo reports whether userID is among the assignees.
func (t Task) AssignedTo(userID string) bool {
	for _, id := range t.Assigns {
		if id == userID {
			return true
		}
	}
	return false
}

// CompletionDate places a completed task on the weekly chart: its end date when
// set, otherwise the last update. On-time scoring compares UpdatedAt with EndDate
// instead.
func (t Task) CompletionDate() time.Time {
	if t.EndDate != nil {
		return *t.EndDate
	}
	return t.UpdatedAt
}
