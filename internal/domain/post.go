package domain

import "time"

// Post is a message in a team's chat feed.
type Post struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
