package domain

import "time"

// User is the identity record referenced by team members and task assignees.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Roles        []string  `json:"roles,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	Picture      string    `json:"picture,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary projects the user into the shape embedded in members.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Picture: u.Picture}
}
