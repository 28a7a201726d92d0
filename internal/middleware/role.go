package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Roles carried in the access token.
const (
	RoleAdmin     = "ADMIN"
	RoleMagister  = "MAGISTER"
	RoleDirector  = "DIRECTOR"
	RoleOrganizer = "ORGANIZER"
	RoleUser      = "USER"
)

// AnyRole accepts every known role.
var AnyRole = []string{RoleAdmin, RoleMagister, RoleDirector, RoleOrganizer, RoleUser}

// RequireRole rejects with 403 unless JWTAuth stored one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
