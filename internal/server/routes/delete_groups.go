package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"

	"github.com/labstack/echo/v4"
)

// DeleteGroupHandler archives a group. Rows under it stay in place;
// archiving only takes the group out of the active set. Archiving an
// already archived group is a no-op success.
func DeleteGroupHandler(c echo.Context) error {
	type deleteGroupParams struct {
		GroupID string `param:"group_id" validate:"required"`
	}

	type deleteGroupResponse struct {
		Message string          `json:"message"`
		Group   *ontology.Group `json:"group,omitempty"`
	}

	params := new(deleteGroupParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteGroupResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteGroupResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	group, err := cc.App.Store.ArchiveGroup(ctx, params.GroupID, cc.User.UserID)
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, group.ID, string(ontology.EventGroupArchived), group)

	return c.JSON(http.StatusOK, deleteGroupResponse{
		Message: "Group archived",
		Group:   group,
	})
}
