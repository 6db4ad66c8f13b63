package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

// RoleSupervisor may perform supervisory queue actions such as skip.
const RoleSupervisor = "SUPERVISOR"

// RequireAnyRole ensures the caller is an authenticated operator.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("operator token required")
		}
		return c.Next()
	}
}

// RequireRole ensures the operator token carries one of the allowed roles.
func RequireRole(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("operator token required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		for _, role := range principal.Roles {
			if _, exists := allowedSet[role]; exists {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
