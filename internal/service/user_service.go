package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/repository"
	apperrors "github.com/teamboard/teamboard/pkg/util/errorutil"
)

// UserService exposes the user directory.
type UserService struct {
	users repository.UserRepository
	tasks repository.TaskRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, tasks repository.TaskRepository) *UserService {
	return &UserService{users: users, tasks: tasks}
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateSkills replaces the user's skills. Users may only edit their own.
func (s *UserService) UpdateSkills(ctx context.Context, actor *domain.User, id string, skills []string) (*domain.User, error) {
	if actor.ID != id {
		return nil, apperrors.NewForbidden("users can only edit their own skills")
	}
	normalized := normalizeSkills(skills)
	if err := s.users.UpdateSkills(ctx, id, normalized); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return s.Get(ctx, id)
}

// SkillScore is experience in one kind of task.
type SkillScore struct {
	Skill          string `json:"skill"`
	CompletedTasks int    `json:"completedTasks"`
	Level          string `json:"level"`
}

// CalculateSkills derives skill levels from the actor's completed tasks, strongest first.
func (s *UserService) CalculateSkills(ctx context.Context, actor *domain.User) ([]SkillScore, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{AssigneeID: actor.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	counts := map[domain.TaskType]int{}
	for _, t := range tasks {
		if t.Completed() {
			counts[t.Type]++
		}
	}
	types := make([]domain.TaskType, 0, len(counts))
	for typ := range counts {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})

	scores := make([]SkillScore, 0, len(types))
	for _, typ := range types {
		scores = append(scores, SkillScore{Skill: typ.String(), CompletedTasks: counts[typ], Level: skillLevel(counts[typ])})
	}
	return scores, nil
}

func skillLevel(completed int) string {
	switch {
	case completed >= 10:
		return "expert"
	case completed >= 5:
		return "advanced"
	default:
		return "familiar"
	}
}

// normalizeSkills trims, drops blanks and removes case-insensitive duplicates, keeping order.
func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := map[string]bool{}
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}
