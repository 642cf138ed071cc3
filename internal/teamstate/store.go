// Package teamstate keeps every known team in one table keyed by id and derives the
// relationship views (all, created, joined, per-user, open detail) on read, so a mutation
// is visible in every view at once.
package teamstate

import (
	"sync"

	"github.com/teamboard/teamboard/internal/domain"
)

// UnknownUserName labels members whose user could not be resolved.
const UnknownUserName = "Unknown User"

// MemberView is the display projection of a member of the open team.
type MemberView struct {
	UserID   string      `json:"userId"`
	FullName string      `json:"fullName"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role"`
}

// Store is safe for concurrent use. Teams handed out are copies.
type Store struct {
	mu      sync.RWMutex
	teams   map[string]*domain.Team
	order   []string
	users   map[string]domain.UserSummary
	current map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		teams:   make(map[string]*domain.Team),
		users:   make(map[string]domain.UserSummary),
		current: make(map[string]string),
	}
}

// Replace discards all teams and loads the given list in order.
func (s *Store) Replace(teams []domain.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = make(map[string]*domain.Team, len(teams))
	s.order = s.order[:0]
	for i := range teams {
		s.putLocked(teams[i].Clone())
	}
	for user, id := range s.current {
		if _, ok := s.teams[id]; !ok {
			delete(s.current, user)
		}
	}
}

// SetUsers registers user summaries used to resolve member names.
func (s *Store) SetUsers(users []domain.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
}

// AddTeam appends team to the table. Callers guarantee the team is new; an existing id is
// overwritten in place.
func (s *Store) AddTeam(team domain.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(team.Clone())
}

func (s *Store) putLocked(team *domain.Team) {
	if _, exists := s.teams[team.ID]; !exists {
		s.order = append(s.order, team.ID)
	}
	s.teams[team.ID] = team
}

// UpdateTeam shallow-merges patch onto the stored team. Unknown ids are ignored.
func (s *Store) UpdateTeam(id string, patch domain.TeamPatch) {
	if patch.IsEmpty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if team, ok := s.teams[id]; ok {
		patch.Apply(team)
	}
}

// DeleteTeam removes the team and closes it for anyone viewing it.
func (s *Store) DeleteTeam(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return
	}
	delete(s.teams, id)
	for i, tid := range s.order {
		if tid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for user, tid := range s.current {
		if tid == id {
			delete(s.current, user)
		}
	}
}

// SetOneTeam opens team as userID's detail view; nil closes it.
func (s *Store) SetOneTeam(userID string, team *domain.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if team == nil || team.ID == "" {
		delete(s.current, userID)
		return
	}
	s.putLocked(team.Clone())
	s.current[userID] = team.ID
}

// AddMember appends member to the team's member list. Absent teams are ignored.
func (s *Store) AddMember(teamID string, member domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if team, ok := s.teams[teamID]; ok {
		if member.User != nil {
			u := *member.User
			member.User = &u
		}
		team.Members = append(team.Members, member)
	}
}

// RemoveMember drops every member whose user id equals userID.
func (s *Store) RemoveMember(teamID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return
	}
	kept := team.Members[:0]
	for _, m := range team.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	team.Members = kept
}

// UpdateMemberRole sets the role of the member matching userID.
func (s *Store) UpdateMemberRole(teamID, userID string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return
	}
	for i := range team.Members {
		if team.Members[i].UserID == userID {
			team.Members[i].Role = role
		}
	}
}

// Get returns a copy of the team with id.
func (s *Store) Get(id string) (*domain.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[id]
	if !ok {
		return nil, false
	}
	return team.Clone(), true
}

// All lists every team in insertion order.
func (s *Store) All() []domain.Team {
	return s.filter(func(*domain.Team) bool { return true })
}

// Created lists teams created by userID.
func (s *Store) Created(userID string) []domain.Team {
	return s.filter(func(t *domain.Team) bool { return t.CreatedBy == userID })
}

// Joined lists teams userID belongs to without having created them.
func (s *Store) Joined(userID string) []domain.Team {
	return s.filter(func(t *domain.Team) bool { return t.CreatedBy != userID && hasMember(t, userID) })
}

// ForUser lists teams userID created or joined.
func (s *Store) ForUser(userID string) []domain.Team {
	return s.filter(func(t *domain.Team) bool { return t.CreatedBy == userID || hasMember(t, userID) })
}

// Current returns userID's open team, if any.
func (s *Store) Current(userID string) (*domain.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.current[userID]
	if !ok {
		return nil, false
	}
	team, ok := s.teams[id]
	if !ok {
		return nil, false
	}
	return team.Clone(), true
}

// CurrentMembers resolves the members of userID's open team for display.
func (s *Store) CurrentMembers(userID string) []MemberView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[s.current[userID]]
	if !ok {
		return nil
	}
	views := make([]MemberView, 0, len(team.Members))
	for _, m := range team.Members {
		view := MemberView{UserID: m.UserID, Role: m.Role, FullName: UnknownUserName}
		switch {
		case m.User != nil && m.User.FullName != "":
			view.FullName = m.User.FullName
			view.Email = m.User.Email
		default:
			if u, ok := s.users[m.UserID]; ok && u.FullName != "" {
				view.FullName = u.FullName
				view.Email = u.Email
			}
		}
		views = append(views, view)
	}
	return views
}

func (s *Store) filter(keep func(*domain.Team) bool) []domain.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Team, 0, len(s.order))
	for _, id := range s.order {
		if team := s.teams[id]; keep(team) {
			out = append(out, *team.Clone())
		}
	}
	return out
}

func hasMember(team *domain.Team, userID string) bool {
	for _, m := range team.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
