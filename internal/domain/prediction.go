package domain

import "time"

// Prediction estimates when an incomplete task will finish.
type Prediction struct {
	TaskID                  string    `json:"taskId"`
	Title                   string    `json:"title"`
	PredictedCompletionDate time.Time `json:"predictedCompletionDate"`
	PredictedDurationDays   int       `json:"predictedDurationDays"`
	ConfidenceScore         int       `json:"confidenceScore"`
	ProductivityImpact      float64   `json:"productivityImpact"`
	Strategy                string    `json:"strategy"`
}

// ProductivityProfile is a derived 1-10 rating with qualitative notes.
type ProductivityProfile struct {
	UserID              string   `json:"userId"`
	FullName            string   `json:"fullName"`
	ProductivityScore   float64  `json:"productivityScore"`
	CompletionRatio     float64  `json:"completionRatio"`
	OnTimeRatio         float64  `json:"onTimeRatio"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
}
