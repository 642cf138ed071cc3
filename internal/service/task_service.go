package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/teamboard/teamboard/internal/access"
	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/repository"
	"github.com/teamboard/teamboard/internal/teamstate"
	apperrors "github.com/teamboard/teamboard/pkg/util/errorutil"
)

// TaskService manages the tasks that feed predictions.
type TaskService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	store *teamstate.Store
}

// TaskDependencies bundles collaborators.
type TaskDependencies struct {
	TaskRepo repository.TaskRepository
	UserRepo repository.UserRepository
	Store    *teamstate.Store
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{tasks: deps.TaskRepo, users: deps.UserRepo, store: deps.Store}
}

// CreateTaskInput describes a new task.
type CreateTaskInput struct {
	TeamID    string
	Title     string
	Type      domain.TaskType
	Priority  domain.TaskPriority
	Status    domain.TaskStatus
	Assigns   []string
	StartDate *time.Time
	EndDate   *time.Time
}

// Create stores a task. Team tasks need a non-guest member as creator and members as assignees;
// with no assignees the creator takes the task.
func (s *TaskService) Create(ctx context.Context, actor *domain.User, input CreateTaskInput) (*domain.Task, error) {
	details := map[string]any{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		details["title"] = "required"
	}
	if !input.Type.Valid() {
		details["type"] = "must be between 1 and 9"
	}
	if !input.Priority.Valid() {
		details["priority"] = "must be between 1 and 4"
	}
	if input.Status == 0 {
		input.Status = domain.TaskStatusPending
	}
	if !input.Status.Valid() {
		details["status"] = "must be between 1 and 4"
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		details["end_date"] = "must not be before start_date"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid task", details)
	}

	assigns := dedupe(input.Assigns)
	if len(assigns) == 0 {
		assigns = []string{actor.ID}
	}

	if input.TeamID != "" {
		team, ok := s.store.Get(input.TeamID)
		if !ok {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": input.TeamID})
		}
		if !access.HasRole(team, actor.ID, domain.RoleAdmin, domain.RoleManager, domain.RoleEngineer) {
			return nil, apperrors.NewForbidden("guests and outsiders cannot create team tasks")
		}
		for _, id := range assigns {
			if _, member := access.RoleOf(team, id); !member {
				return nil, apperrors.NewValidationError("assignees must be team members", map[string]any{"assigns": id})
			}
		}
	} else {
		for _, id := range assigns {
			if _, err := s.users.GetByID(ctx, id); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
				}
				return nil, apperrors.MapError(err)
			}
		}
	}

	task := &domain.Task{
		TeamID:    input.TeamID,
		Title:     title,
		Type:      input.Type,
		Priority:  input.Priority,
		Status:    input.Status,
		Assigns:   assigns,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

// List returns tasks matching filter.
func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// UpdateStatus moves a task. Assignees may move their tasks; team ADMINs and MANAGERs may
// move any task of the team.
func (s *TaskService) UpdateStatus(ctx context.Context, actor *domain.User, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": int(status)})
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.canMove(actor, task) {
		return nil, apperrors.NewForbidden("only assignees or team leads can change this task")
	}
	updated, err := s.tasks.UpdateStatus(ctx, taskID, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

func (s *TaskService) canMove(actor *domain.User, task *domain.Task) bool {
	if task.AssignedTo(actor.ID) {
		return true
	}
	if task.TeamID == "" {
		return false
	}
	team, ok := s.store.Get(task.TeamID)
	return ok && access.HasRole(team, actor.ID, domain.RoleAdmin, domain.RoleManager)
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
