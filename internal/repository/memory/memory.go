// Package memory implements the repositories in process memory. It backs local runs without
// a database and the transport tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/repository"
)

// Store holds every table behind one lock.
type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	users map[string]*domain.User
	teams map[string]*domain.Team
	order []string
	tasks []*domain.Task
	posts []domain.Post
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:   time.Now,
		users: map[string]*domain.User{},
		teams: map[string]*domain.Team{},
	}
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Teams returns the team repository view.
func (s *Store) Teams() repository.TeamRepository { return teamRepo{s} }

// Tasks returns the task repository view.
func (s *Store) Tasks() repository.TaskRepository { return taskRepo{s} }

// Posts returns the post repository view.
func (s *Store) Posts() repository.PostRepository { return postRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = r.s.now()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) UpdateSkills(_ context.Context, id string, skills []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Skills = append([]string(nil), skills...)
	u.UpdatedAt = r.s.now()
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) List(context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type teamRepo struct{ s *Store }

func (r teamRepo) Create(_ context.Context, team *domain.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team.ID = uuid.NewString()
	team.CreatedAt = r.s.now()
	team.UpdatedAt = team.CreatedAt
	r.s.teams[team.ID] = team.Clone()
	r.s.order = append(r.s.order, team.ID)
	return nil
}

func (r teamRepo) Update(_ context.Context, team *domain.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.teams[team.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	team.UpdatedAt = r.s.now()
	stored.Name = team.Name
	stored.Description = team.Description
	stored.PictureProfile = team.PictureProfile
	stored.UpdatedAt = team.UpdatedAt
	return nil
}

func (r teamRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.teams, id)
	for i, tid := range r.s.order {
		if tid == id {
			r.s.order = append(r.s.order[:i], r.s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r teamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t.Clone(), nil
}

func (r teamRepo) List(context.Context) ([]domain.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Team, 0, len(r.s.order))
	for _, id := range r.s.order {
		out = append(out, *r.s.teams[id].Clone())
	}
	return out, nil
}

func (r teamRepo) AddMember(_ context.Context, teamID string, member domain.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	for _, m := range t.Members {
		if m.UserID == member.UserID {
			return repository.ErrDuplicate
		}
	}
	t.Members = append(t.Members, member)
	return nil
}

func (r teamRepo) RemoveMember(_ context.Context, teamID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[teamID]
	if !ok {
		return pgx.ErrNoRows
	}
	for i, m := range t.Members {
		if m.UserID == userID {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r teamRepo) UpdateMemberRole(_ context.Context, teamID, userID string, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[teamID]
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

type taskRepo struct{ s *Store }

func (r taskRepo) Create(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task.ID = uuid.NewString()
	task.CreatedAt = r.s.now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	cp.Assigns = append([]string(nil), task.Assigns...)
	r.s.tasks = append(r.s.tasks, &cp)
	return nil
}

func (r taskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tasks {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r taskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Task{}
	for _, t := range r.s.tasks {
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

func (r taskRepo) UpdateStatus(_ context.Context, id string, status domain.TaskStatus) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tasks {
		if t.ID == id {
			t.Status = status
			t.UpdatedAt = r.s.now()
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type postRepo struct{ s *Store }

func (r postRepo) Create(_ context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post.ID = uuid.NewString()
	post.CreatedAt = r.s.now()
	r.s.posts = append(r.s.posts, *post)
	return nil
}

// ListByTeam returns newest first.
func (r postRepo) ListByTeam(_ context.Context, teamID string, limit int) ([]domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Post{}
	for i := len(r.s.posts) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if r.s.posts[i].TeamID == teamID {
			out = append(out, r.s.posts[i])
		}
	}
	return out, nil
}
