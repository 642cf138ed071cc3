package dto

import (
	"time"

	"github.com/teamboard/teamboard/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	FullName string   `json:"fullName" validate:"required,max=120"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone" validate:"omitempty,max=32"`
	Password string   `json:"password" validate:"required,min=8,max=72"`
	Skills   []string `json:"skills" validate:"omitempty,max=50,dive,max=60"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SkillsRequest replaces a user's skills.
type SkillsRequest struct {
	Skills []string `json:"skills" validate:"max=50,dive,max=60"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Skills    []string  `json:"skills"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// NewUserResponse projects a user.
func NewUserResponse(u *domain.User) UserResponse {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Skills:    skills,
		Picture:   u.Picture,
		CreatedAt: u.CreatedAt,
	}
}
