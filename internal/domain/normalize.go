package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Loosely-typed payloads identify records with either "_id" or "id", encode ids as strings,
// numbers or {"$oid": "..."}, and store a member's user either as a bare id or as an embedded
// user document. The decoders below accept all of those and produce only the canonical shape.

// flexID decodes any accepted id encoding into its string form.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	case '{':
		var oid struct {
			OID string `json:"$oid"`
			ID  string `json:"_id"`
		}
		if err := json.Unmarshal(data, &oid); err != nil {
			return err
		}
		if oid.OID != "" {
			*f = flexID(oid.OID)
		} else {
			*f = flexID(oid.ID)
		}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported id encoding %s", data)
		}
		*f = flexID(n.String())
		return nil
	}
}

func pickID(primary, fallback flexID) string {
	if primary != "" {
		return string(primary)
	}
	return string(fallback)
}

type wireUser struct {
	MongoID  flexID    `json:"_id"`
	ID       flexID    `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Roles    []string  `json:"roles"`
	Skills   []string  `json:"skills"`
	Picture  string    `json:"picture"`
	Created  time.Time `json:"createdAt"`
	Updated  time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts "_id" or "id".
func (u *User) UnmarshalJSON(data []byte) error {
	var w wireUser
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*u = User{
		ID:        pickID(w.ID, w.MongoID),
		FullName:  w.FullName,
		Email:     w.Email,
		Phone:     w.Phone,
		Roles:     w.Roles,
		Skills:    w.Skills,
		Picture:   w.Picture,
		CreatedAt: w.Created,
		UpdatedAt: w.Updated,
	}
	return nil
}

// UnmarshalJSON accepts a member whose "user" is an id or an embedded user document.
func (m *Member) UnmarshalJSON(data []byte) error {
	var w struct {
		UserID flexID          `json:"userId"`
		Role   string          `json:"role"`
		User   json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Member{UserID: string(w.UserID), Role: RoleGuest}
	if w.Role != "" {
		role, err := ParseRole(w.Role)
		if err != nil {
			return err
		}
		out.Role = role
	}

	raw := bytes.TrimSpace(w.User)
	if len(raw) > 0 && raw[0] == '{' {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return fmt.Errorf("member user: %w", err)
		}
		if out.UserID == "" {
			out.UserID = u.ID
		}
		out.User = u.Summary()
	} else if len(raw) > 0 {
		var id flexID
		if err := json.Unmarshal(raw, &id); err != nil {
			return fmt.Errorf("member user: %w", err)
		}
		if out.UserID == "" {
			out.UserID = string(id)
		}
	}

	*m = out
	return nil
}

// UnmarshalJSON accepts "_id" or "id" and normalizes every member.
func (t *Team) UnmarshalJSON(data []byte) error {
	var w struct {
		MongoID        flexID    `json:"_id"`
		ID             flexID    `json:"id"`
		Name           string    `json:"name"`
		Description    string    `json:"description"`
		PictureProfile string    `json:"pictureProfile"`
		CreatedBy      flexID    `json:"createdBy"`
		Members        []Member  `json:"members"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Team{
		ID:             pickID(w.ID, w.MongoID),
		Name:           w.Name,
		Description:    w.Description,
		PictureProfile: w.PictureProfile,
		CreatedBy:      string(w.CreatedBy),
		Members:        w.Members,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
	if t.Members == nil {
		t.Members = []Member{}
	}
	return nil
}
