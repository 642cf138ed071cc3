package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/repository"
)

var testNow = time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC)

type memUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newMemUsers(users ...domain.User) *memUsers {
	m := &memUsers{users: map[string]*domain.User{}}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	user.CreatedAt, user.UpdatedAt = testNow, testNow
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) UpdateSkills(_ context.Context, id string, skills []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Skills = skills
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) List(context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memTeams struct {
	mu    sync.Mutex
	seq   int
	teams map[string]*domain.Team
	fail  error
}

func newMemTeams() *memTeams {
	return &memTeams{teams: map[string]*domain.Team{}}
}

func (m *memTeams) Create(_ context.Context, team *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.seq++
	team.ID = fmt.Sprintf("team-%d", m.seq)
	team.CreatedAt, team.UpdatedAt = testNow, testNow
	m.teams[team.ID] = team.Clone()
	return nil
}

func (m *memTeams) Update(_ context.Context, team *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	stored, ok := m.teams[team.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	team.UpdatedAt = testNow.Add(time.Hour)
	stored.Name, stored.Description, stored.PictureProfile, stored.UpdatedAt = team.Name, team.Description, team.PictureProfile, team.UpdatedAt
	return nil
}

func (m *memTeams) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.teams[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.teams, id)
	return nil
}

func (m *memTeams) GetByID(_ context.Context, id string) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t.Clone(), nil
}

func (m *memTeams) List(context.Context) ([]domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, *t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTeams) AddMember(_ context.Context, teamID string, member domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	t, ok := m.teams[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Members = append(t.Members, member)
	return nil
}

func (m *memTeams) RemoveMember(_ context.Context, teamID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	t, ok := m.teams[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	kept := t.Members[:0]
	for _, mem := range t.Members {
		if mem.UserID != userID {
			kept = append(kept, mem)
		}
	}
	t.Members = kept
	return nil
}

func (m *memTeams) UpdateMemberRole(_ context.Context, teamID, userID string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	t, ok := m.teams[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			t.Members[i].Role = role
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memTasks struct {
	mu    sync.Mutex
	seq   int
	tasks []*domain.Task
}

func (m *memTasks) Create(_ context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	task.ID = fmt.Sprintf("task-%d", m.seq)
	task.CreatedAt, task.UpdatedAt = testNow, testNow
	cp := *task
	m.tasks = append(m.tasks, &cp)
	return nil
}

func (m *memTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memTasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Task
	for _, t := range m.tasks {
		if filter.AssigneeID != "" && !t.AssignedTo(filter.AssigneeID) {
			continue
		}
		if filter.TeamID != "" && t.TeamID != filter.TeamID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memTasks) UpdateStatus(_ context.Context, id string, status domain.TaskStatus) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			t.Status = status
			t.UpdatedAt = testNow
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memPosts struct {
	mu    sync.Mutex
	seq   int
	posts []domain.Post
}

func (m *memPosts) Create(_ context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	post.ID = fmt.Sprintf("post-%d", m.seq)
	post.CreatedAt = testNow.Add(time.Duration(m.seq) * time.Minute)
	m.posts = append(m.posts, *post)
	return nil
}

func (m *memPosts) ListByTeam(_ context.Context, teamID string, limit int) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Post{}
	for i := len(m.posts) - 1; i >= 0 && len(out) < limit; i-- {
		if m.posts[i].TeamID == teamID {
			out = append(out, m.posts[i])
		}
	}
	return out, nil
}
