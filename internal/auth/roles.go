package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teamboard/teamboard/internal/access"
	"github.com/teamboard/teamboard/internal/domain"
	apperrors "github.com/teamboard/teamboard/pkg/util/errorutil"
)

// TeamLookup resolves the team named in a route.
type TeamLookup interface {
	Get(id string) (*domain.Team, bool)
}

// RequireUser ensures a user is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireTeamRole ensures the caller is a member of the team in the :id route param and,
// when roles are given, holds one of them. With no roles any membership passes.
func RequireTeamRole(teams TeamLookup, roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		teamID := c.Params("id")
		team, found := teams.Get(teamID)
		if !found {
			return apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		if !access.IsMember(team, principal.User) {
			return apperrors.NewForbidden("team membership required")
		}
		if len(roles) > 0 && !access.HasRole(team, principal.UserID(), roles...) {
			return apperrors.NewForbidden("insufficient team role")
		}
		return c.Next()
	}
}
