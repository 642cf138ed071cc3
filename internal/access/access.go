// Package access derives membership and role facts from a team and a user.
// Every helper tolerates nil inputs so it can be called while data is still loading.
package access

import "github.com/teamboard/teamboard/internal/domain"

// NoMember is returned by CurrentMemberID when the user is not in the team.
const NoMember = ""

func findMember(team *domain.Team, userID string) (domain.Member, bool) {
	if team == nil || userID == "" {
		return domain.Member{}, false
	}
	for _, m := range team.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return domain.Member{}, false
}

func userID(user *domain.User) string {
	if user == nil {
		return ""
	}
	return user.ID
}

// IsAdmin reports whether user is an ADMIN member of team.
func IsAdmin(team *domain.Team, user *domain.User) bool {
	m, ok := findMember(team, userID(user))
	return ok && m.Role == domain.RoleAdmin
}

// IsMember reports whether user belongs to team with any role.
func IsMember(team *domain.Team, user *domain.User) bool {
	_, ok := findMember(team, userID(user))
	return ok
}

// CurrentMemberID returns the matching member's user id or NoMember.
func CurrentMemberID(team *domain.Team, user *domain.User) string {
	m, ok := findMember(team, userID(user))
	if !ok {
		return NoMember
	}
	return m.UserID
}

// RoleOf returns the user's role within team.
func RoleOf(team *domain.Team, id string) (domain.Role, bool) {
	m, ok := findMember(team, id)
	return m.Role, ok
}

// HasRole reports whether the member identified by id holds one of roles.
func HasRole(team *domain.Team, id string, roles ...domain.Role) bool {
	role, ok := RoleOf(team, id)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// AdminCount counts ADMIN members.
func AdminCount(team *domain.Team) int {
	if team == nil {
		return 0
	}
	n := 0
	for _, m := range team.Members {
		if m.Role == domain.RoleAdmin {
			n++
		}
	}
	return n
}

// IsLastAdmin reports whether id is the team's only ADMIN.
func IsLastAdmin(team *domain.Team, id string) bool {
	return HasRole(team, id, domain.RoleAdmin) && AdminCount(team) == 1
}
