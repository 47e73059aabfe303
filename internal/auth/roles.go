package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-sla-service/internal/domain"
	apperrors "github.com/spec-kit/case-sla-service/pkg/util"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.AdminRole) fiber.Handler {
	allowedSet := make(map[domain.AdminRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Account == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Account.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a caller is logged in regardless of role.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}
