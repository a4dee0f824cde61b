package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

// EditGroupHandler applies a partial update; absent fields stay as they
// are.
func EditGroupHandler(c echo.Context) error {
	type editGroupData struct {
		GroupID  string              `param:"group_id" validate:"required"`
		Name     *string             `json:"name"`
		Settings ontology.Properties `json:"settings"`
	}

	type editGroupResponse struct {
		Message string          `json:"message"`
		Group   *ontology.Group `json:"group,omitempty"`
	}

	data := new(editGroupData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editGroupResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editGroupResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	group, err := cc.App.Store.UpdateGroup(ctx, store.UpdateGroupParams{
		ID:       data.GroupID,
		Name:     data.Name,
		Settings: data.Settings,
		ActorID:  cc.User.UserID,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, group.ID, string(ontology.EventGroupUpdated), group)

	return c.JSON(http.StatusOK, editGroupResponse{
		Message: "Group updated successfully",
		Group:   group,
	})
}
