package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teamboard/teamboard/internal/service"
)

// DashboardHandler serves productivity, predictions and the weekly series.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Productivity GET /api/users/:id/productivity.
func (h *DashboardHandler) Productivity(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.dashboard.Productivity(c.UserContext(), actor, param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profile})
}

// Predictions GET /api/users/:id/predictions.
func (h *DashboardHandler) Predictions(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	report, err := h.dashboard.Predictions(c.UserContext(), actor, param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Series GET /api/users/:id/series.
func (h *DashboardHandler) Series(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	report, err := h.dashboard.Series(c.UserContext(), actor, param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
