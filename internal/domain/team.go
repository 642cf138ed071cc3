package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role enumerates membership roles inside a team.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEngineer Role = "ENGINEER"
	RoleGuest    Role = "GUEST"
)

// ParseRole validates a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager, RoleEngineer, RoleGuest:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// UserSummary is the resolved view of a member's user.
type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// Member pairs a weak user reference with a role.
type Member struct {
	UserID string       `json:"userId"`
	Role   Role         `json:"role"`
	User   *UserSummary `json:"user,omitempty"`
}

// Team is a named group of collaborating users.
type Team struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	PictureProfile string    `json:"pictureProfile,omitempty"`
	CreatedBy      string    `json:"createdBy"`
	Members        []Member  `json:"members"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the team.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Members = make([]Member, len(t.Members))
	for i, m := range t.Members {
		if m.User != nil {
			u := *m.User
			m.User = &u
		}
		cp.Members[i] = m
	}
	return &cp
}

// TeamPatch carries a shallow field update. Nil fields are left untouched.
type TeamPatch struct {
	Name           *string
	Description    *string
	PictureProfile *string
	Members        []Member
	UpdatedAt      *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p TeamPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.PictureProfile == nil && p.Members == nil && p.UpdatedAt == nil
}

// Fields names the fields the patch sets, in declaration order.
func (p TeamPatch) Fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, "name")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.PictureProfile != nil {
		fields = append(fields, "pictureProfile")
	}
	if p.Members != nil {
		fields = append(fields, "members")
	}
	return fields
}

// Apply merges the patch onto t in place.
func (p TeamPatch) Apply(t *Team) {
	if t == nil {
		return
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.PictureProfile != nil {
		t.PictureProfile = *p.PictureProfile
	}
	if p.Members != nil {
		t.Members = append([]Member(nil), p.Members...)
	}
	if p.UpdatedAt != nil {
		t.UpdatedAt = *p.UpdatedAt
	}
}
