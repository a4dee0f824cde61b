package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"

	"github.com/labstack/echo/v4"
)

// DeleteConnectionHandler removes an edge outright. Connections carry no
// archive state; the audit trail lives in the event log.
func DeleteConnectionHandler(c echo.Context) error {
	type deleteConnectionParams struct {
		GroupID string `param:"group_id" validate:"required"`
		ID      string `param:"id" validate:"required"`
	}

	type deleteConnectionResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteConnectionParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteConnectionResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteConnectionResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	if err := cc.App.Store.DeleteConnection(ctx, params.GroupID, params.ID, cc.User.UserID); err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, params.GroupID, string(ontology.EventConnectionDeleted), map[string]any{
		"groupId": params.GroupID,
		"id":      params.ID,
	})

	return c.JSON(http.StatusOK, deleteConnectionResponse{
		Message: "Connection deleted",
	})
}
