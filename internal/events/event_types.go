package events

import (
	"time"

	"github.com/teamboard/teamboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTeamCreated       EventType = "team_created"
	EventTeamUpdated       EventType = "team_updated"
	EventTeamDeleted       EventType = "team_deleted"
	EventMemberAdded       EventType = "member_added"
	EventMemberRemoved     EventType = "member_removed"
	EventMemberRoleChanged EventType = "member_role_changed"
	EventPostCreated       EventType = "post_created"
)

// Event represents a domain event emitted by services. Recipients are the users who should
// hear about it.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TeamID     string      `json:"team_id"`
	TeamName   string      `json:"team_name"`
	ActorID    string      `json:"actor_id"`
	Recipients []string    `json:"recipients"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// MemberPayload describes membership changes.
type MemberPayload struct {
	UserID  string      `json:"user_id"`
	Role    domain.Role `json:"role,omitempty"`
	OldRole domain.Role `json:"old_role,omitempty"`
}

// TeamUpdatedPayload lists the fields that changed.
type TeamUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// PostCreatedPayload payload.
type PostCreatedPayload struct {
	PostID      string `json:"post_id"`
	BodyPreview string `json:"body_preview"`
}
