package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func HasRole(ctx context.Context, role string) bool {
	for _, r := range RolesFromContext(ctx) {
		if r == role {
			return true
		}
	}
	return false
}

// RequireRole admits callers holding any of roles. Admins always pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if HasRole(ctx, RoleAdmin) {
				return next(c)
			}
			for _, r := range roles {
				if HasRole(ctx, r) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// CanActFor reports whether the caller may read or write data owned by
// userID: admins may act for anyone, users only for themselves.
func CanActFor(ctx context.Context, userID string) bool {
	if HasRole(ctx, RoleAdmin) {
		return true
	}
	uid := UserIDFromContext(ctx)
	return uid != "" && strings.EqualFold(uid, userID)
}

// RequireSelf guards routes whose path parameter param names the owning user.
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CanActFor(c.Request().Context(), c.Param(param)) {
				return echo.NewHTTPError(http.StatusForbidden, "not permitted to act for this user")
			}
			return next(c)
		}
	}
}
