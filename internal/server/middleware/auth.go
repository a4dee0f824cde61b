package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/trellishq/trellis/backend/pkg/ontology"
)

var allPermissions = []string{
	"group.create",
	"group.update",
	"group.delete",
	"group.view",
	"group.view:all",
	"group.reembed",
	"thing.create",
	"thing.update",
	"thing.delete",
	"thing.view",
	"thing.import",
	"connection.create",
	"connection.delete",
	"connection.view",
	"event.append",
	"event.view",
	"knowledge.create",
	"knowledge.update",
	"knowledge.delete",
	"knowledge.view",
	"knowledge.search",
	"knowledge.import",
}

// rolePermissions is the default permission set per role, applied when a
// token carries no explicit permissions claim. platform_owner holds
// everything including cross-tenant reads; org_owner everything inside
// its own subtree; org_user the day-to-day read/write surface; customer
// is read-only.
var rolePermissions = map[ontology.Role][]string{
	ontology.RolePlatformOwner: allPermissions,
	ontology.RoleOrgOwner: {
		"group.create", "group.update", "group.delete", "group.view", "group.reembed",
		"thing.create", "thing.update", "thing.delete", "thing.view", "thing.import",
		"connection.create", "connection.delete", "connection.view",
		"event.append", "event.view",
		"knowledge.create", "knowledge.update", "knowledge.delete",
		"knowledge.view", "knowledge.search", "knowledge.import",
	},
	ontology.RoleOrgUser: {
		"group.view",
		"thing.create", "thing.update", "thing.view",
		"connection.create", "connection.view",
		"event.append", "event.view",
		"knowledge.create", "knowledge.update", "knowledge.view", "knowledge.search",
	},
	ontology.RoleCustomer: {
		"group.view",
		"thing.view", "connection.view", "event.view",
		"knowledge.view", "knowledge.search",
	},
}

func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		token := strings.Split(authHeader, " ")[1]
		app := c.(*AppContext).App

		// Master API Key bypass
		if app.MasterAPIKey != "" && app.MasterActorID != "" && token == app.MasterAPIKey {
			role := ontology.Role(app.MasterRole)
			if !role.Valid() {
				role = ontology.RolePlatformOwner
			}
			c.(*AppContext).User = &AppUser{
				UserID:      app.MasterActorID,
				Role:        role,
				Permissions: allPermissions,
			}
			return next(c)
		}

		// Parse JWT token
		k := *c.(*AppContext).App.Key
		parsed, err := jwt.Parse(token, k.Keyfunc)
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		userID, ok := claims["id"].(string)
		if !ok || userID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
		}

		role := ontology.RoleCustomer
		if roleClaim, ok := claims["role"].(string); ok && ontology.Role(roleClaim).Valid() {
			role = ontology.Role(roleClaim)
		}

		permissions := stringsClaim(claims, "permissions")
		if len(permissions) == 0 {
			permissions = rolePermissions[role]
		}

		c.(*AppContext).User = &AppUser{
			UserID:      userID,
			Role:        role,
			Permissions: permissions,
			GroupIDs:    stringsClaim(claims, "groups"),
		}

		return next(c)
	}
}

func stringsClaim(claims jwt.MapClaims, key string) []string {
	raw, ok := claims[key].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return values
}
