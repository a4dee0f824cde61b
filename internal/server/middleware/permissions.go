package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

func HasPermission(user *AppUser, permission string) bool {
	if user == nil {
		return false
	}
	return slices.Contains(user.Permissions, permission)
}

func HasAnyPermission(user *AppUser, permissions ...string) bool {
	if user == nil {
		return false
	}
	for _, permission := range permissions {
		if HasPermission(user, permission) {
			return true
		}
	}
	return false
}

// CanAccessGroup reports whether the user may operate inside the group.
// Cross-tenant readers pass outright; everyone else must hold the group
// directly or hold one of its ancestors, so an org owner reaches the
// whole subtree below its home group.
func CanAccessGroup(ctx context.Context, c *AppContext, groupID string) bool {
	user := c.User
	if user == nil || groupID == "" {
		return false
	}
	if HasPermission(user, "group.view:all") {
		return true
	}
	if slices.Contains(user.GroupIDs, groupID) {
		return true
	}
	for _, ancestorID := range user.GroupIDs {
		ok, err := c.App.Store.IsDescendantOf(ctx, groupID, ancestorID)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			if !HasPermission(user, permission) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing permission " + permission})
			}

			return next(c)
		}
	}
}

func RequireAnyPermission(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			if !HasAnyPermission(user, permissions...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing required permission"})
			}

			return next(c)
		}
	}
}
