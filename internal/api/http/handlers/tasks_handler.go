package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/teamboard/teamboard/internal/api/dto"
	"github.com/teamboard/teamboard/internal/domain"
	"github.com/teamboard/teamboard/internal/repository"
	"github.com/teamboard/teamboard/internal/service"
)

// TasksHandler creates, lists and moves tasks.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(tasks *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

// Create POST /api/tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.Create(c.UserContext(), user, service.CreateTaskInput{
		TeamID:    req.TeamID,
		Title:     req.Title,
		Type:      domain.TaskType(req.Type),
		Priority:  domain.TaskPriority(req.Priority),
		Status:    domain.TaskStatus(req.Status),
		Assigns:   req.Assigns,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": task})
}

// List GET /api/tasks?assignee=&team=. Without filters the caller's own tasks are listed.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := repository.TaskFilter{AssigneeID: c.Query("assignee"), TeamID: c.Query("team")}
	if filter.AssigneeID == "" && filter.TeamID == "" {
		filter.AssigneeID = user.ID
	}
	tasks, err := h.tasks.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tasks})
}

// UpdateStatus PUT /api/tasks/:id/status.
func (h *TasksHandler) UpdateStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.UpdateStatus(c.UserContext(), user, param(c, "id"), domain.TaskStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": task})
}
