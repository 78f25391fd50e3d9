package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

// Roles carried in the token's role claim.
const (
	RoleAdmin       = "admin"
	RoleServiceRole = "service_role"
	RoleRecruiter   = "recruiter"
	RoleStudent     = "student"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin admits administrators and service-role tokens.
func RequireAdmin() fiber.Handler {
	return RequireRole(RoleAdmin, RoleServiceRole)
}
