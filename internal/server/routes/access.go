package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/middleware"
	"github.com/trellishq/trellis/backend/internal/server/util"

	"github.com/labstack/echo/v4"
)

// groupScope returns the typed request context once the caller is
// authenticated and allowed to operate inside the group. A nil context
// means the error return already carries the rendered 401 or 403
// response.
func groupScope(c echo.Context, groupID string) (*middleware.AppContext, error) {
	cc := c.(*middleware.AppContext)
	if cc.User == nil {
		return nil, c.JSON(http.StatusUnauthorized, util.ErrorBody{
			Error: "Unauthorized",
			Type:  "unauthorized",
		})
	}
	if !middleware.CanAccessGroup(c.Request().Context(), cc, groupID) {
		return nil, c.JSON(http.StatusForbidden, util.ErrorBody{
			Error: "You do not have access to this group",
			Type:  "unauthorized",
		})
	}
	return cc, nil
}

// actorRef converts the caller id into the optional actor reference the
// event log stores.
func actorRef(cc *middleware.AppContext) *string {
	if cc.User == nil || cc.User.UserID == "" {
		return nil
	}
	return &cc.User.UserID
}
