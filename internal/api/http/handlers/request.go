package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/teamboard/teamboard/internal/api/dto"
	"github.com/teamboard/teamboard/internal/auth"
	"github.com/teamboard/teamboard/internal/domain"
	apperrors "github.com/teamboard/teamboard/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

// parseBody decodes the request body into dst and validates it.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.ValidateStruct(dst)
}

// param returns a route parameter that stays valid after the handler returns.
func param(c *fiber.Ctx, name string) string {
	return utils.CopyString(c.Params(name))
}
