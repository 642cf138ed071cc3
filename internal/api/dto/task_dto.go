package dto

import "time"

// CreateTaskRequest payload. Type, priority and status use the numeric codes of the domain.
type CreateTaskRequest struct {
	TeamID    string     `json:"teamId"`
	Title     string     `json:"title" validate:"required,max=200"`
	Type      int        `json:"type" validate:"required,min=1,max=9"`
	Priority  int        `json:"priority" validate:"required,min=1,max=4"`
	Status    int        `json:"status" validate:"omitempty,min=1,max=4"`
	Assigns   []string   `json:"assigns" validate:"omitempty,max=50,dive,required"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// StatusRequest moves a task.
type StatusRequest struct {
	Status int `json:"status" validate:"required,min=1,max=4"`
}
