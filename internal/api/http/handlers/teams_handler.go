package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/teamboard/teamboard/internal/api/dto"
	"github.com/teamboard/teamboard/internal/service"
)

// TeamsHandler serves team CRUD, membership, stats and posts.
type TeamsHandler struct {
	teams *service.TeamService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teams *service.TeamService) *TeamsHandler {
	return &TeamsHandler{teams: teams}
}

// List GET /api/teams?view=.
func (h *TeamsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := service.ParseTeamView(c.Query("view"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.teams.List(user, view)})
}

// Create POST /api/teams.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTeamRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	members := make([]service.MemberInput, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, service.MemberInput{UserID: m.UserID, Role: m.Role})
	}
	team, err := h.teams.Create(c.UserContext(), user, service.CreateTeamInput{
		Name:           req.Name,
		Description:    req.Description,
		PictureProfile: req.PictureProfile,
		Members:        members,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": team})
}

// Get GET /api/teams/:id. Opening a team makes it the caller's detail view.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	detail, err := h.teams.Open(user, param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail})
}

// Close POST /api/teams/:id/close.
func (h *TeamsHandler) Close(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	h.teams.Close(user)
	return c.SendStatus(http.StatusNoContent)
}

// Update PUT /api/teams/:id.
func (h *TeamsHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTeamRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	team, err := h.teams.Update(c.UserContext(), user, param(c, "id"), service.UpdateTeamInput{
		Name:           req.Name,
		Description:    req.Description,
		PictureProfile: req.PictureProfile,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": team})
}

// Delete DELETE /api/teams/:id.
func (h *TeamsHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.teams.Delete(c.UserContext(), user, param(c, "id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddMember POST /api/teams/:id/members.
func (h *TeamsHandler) AddMember(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MemberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	team, err := h.teams.AddMember(c.UserContext(), user, param(c, "id"), service.MemberInput{UserID: req.UserID, Role: req.Role})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": team})
}

// RemoveMember DELETE /api/teams/:id/members/:userId.
func (h *TeamsHandler) RemoveMember(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	team, err := h.teams.RemoveMember(c.UserContext(), user, param(c, "id"), param(c, "userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": team})
}

// UpdateMemberRole PUT /api/teams/:id/members/:userId/role.
func (h *TeamsHandler) UpdateMemberRole(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	team, err := h.teams.UpdateMemberRole(c.UserContext(), user, param(c, "id"), param(c, "userId"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": team})
}

// Stats GET /api/teams/:id/stats.
func (h *TeamsHandler) Stats(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.teams.Stats(c.UserContext(), user, param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ListPosts GET /api/teams/:id/posts?limit=.
func (h *TeamsHandler) ListPosts(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	posts, err := h.teams.ListPosts(c.UserContext(), user, param(c, "id"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": posts})
}

// CreatePost POST /api/teams/:id/posts.
func (h *TeamsHandler) CreatePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	post, err := h.teams.CreatePost(c.UserContext(), user, param(c, "id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": post})
}
