package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Staff roles. External (SMS-only) participants carry RoleExternal and
// never authenticate.
const (
	RoleAdmin          = "admin"
	RoleCareTeamMember = "care_team_member"
	RolePeerSupport    = "peer_support"
	RoleExternal       = "external"
)

// ValidStaffRole reports whether role is one an authenticated staff
// account may hold.
func ValidStaffRole(role string) bool {
	switch role {
	case RoleAdmin, RoleCareTeamMember, RolePeerSupport:
		return true
	}
	return false
}

// RequireRole returns middleware that rejects requests whose authenticated
// role is not one of the given roles. Admins pass every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole := RoleFromContext(c.Request().Context())
			if userRole == RoleAdmin {
				return next(c)
			}
			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
