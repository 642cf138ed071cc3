package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teamboard/teamboard/internal/api/dto"
	"github.com/teamboard/teamboard/internal/service"
)

// UsersHandler exposes the user directory and skills.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateSkills PUT /api/users/:id/skills.
func (h *UsersHandler) UpdateSkills(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SkillsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateSkills(c.UserContext(), actor, param(c, "id"), req.Skills)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// CalculateSkills GET /api/users/calculateSkills.
func (h *UsersHandler) CalculateSkills(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	scores, err := h.users.CalculateSkills(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": scores})
}
