package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shiftmarket/suspension-service/internal/domain"
	apperrors "github.com/shiftmarket/suspension-service/pkg/util/errorutil"
)

// RequireWorker ensures a WORKER principal is authenticated.
func RequireWorker() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeWorker {
			return apperrors.NewForbidden("worker required")
		}
		return c.Next()
	}
}

// RequireAdminRole ensures the admin principal has one of the allowed
// roles. With no arguments any admin role passes.
func RequireAdminRole(allowed ...domain.AdminRole) fiber.Handler {
	allowedSet := make(map[domain.AdminRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeAdmin || principal.Role == nil {
			return apperrors.NewForbidden("admin role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[*principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (worker or admin).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
