package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campus-it/helpdesk/internal/domain"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// RequireStaffRole ensures the staff principal has one of the allowed roles.
// With no roles given any authenticated staff member passes.
func RequireStaffRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		staff := StaffFromContext(c)
		if staff == nil {
			return apperrors.NewUnauthorized("staff authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[staff.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSystemManager restricts a route to system managers.
func RequireSystemManager() fiber.Handler {
	return RequireStaffRole(domain.StaffRoleSystemManager)
}
