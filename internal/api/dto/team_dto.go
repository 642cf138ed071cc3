package dto

// MemberRequest names a user and the role to give them. An empty role means GUEST.
type MemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=ADMIN MANAGER ENGINEER GUEST admin manager engineer guest"`
}

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name           string          `json:"name" validate:"required,max=120"`
	Description    string          `json:"description" validate:"max=2000"`
	PictureProfile string          `json:"pictureProfile" validate:"omitempty,max=500"`
	Members        []MemberRequest `json:"members" validate:"omitempty,max=200,dive"`
}

// UpdateTeamRequest carries optional field changes.
type UpdateTeamRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	PictureProfile *string `json:"pictureProfile" validate:"omitempty,max=500"`
}

// RoleRequest changes a member's role.
type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN MANAGER ENGINEER GUEST admin manager engineer guest"`
}

// PostRequest adds a message to the team feed.
type PostRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}
