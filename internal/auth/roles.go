package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-marketplace/internal/domain"
	apperrors "github.com/spec-kit/flight-marketplace/pkg/util"
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireActiveAgency ensures the caller is an approved agency. Agencies in
// pending_approval may authenticate but not act on the market.
func RequireActiveAgency() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.User.Role != domain.RoleAgency {
			return apperrors.NewForbidden("agency role required")
		}
		if principal.User.Status != domain.UserStatusActive {
			return apperrors.NewForbidden("agency awaiting approval")
		}
		return c.Next()
	}
}
