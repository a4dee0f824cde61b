package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

// EditThingHandler applies a partial update. Last write wins; there is
// no version check on concurrent patches.
func EditThingHandler(c echo.Context) error {
	type editThingData struct {
		GroupID    string              `param:"group_id" validate:"required"`
		ID         string              `param:"id" validate:"required"`
		Name       *string             `json:"name"`
		Properties ontology.Properties `json:"properties"`
		Status     *string             `json:"status"`
	}

	type editThingResponse struct {
		Message string          `json:"message"`
		Thing   *ontology.Thing `json:"thing,omitempty"`
	}

	data := new(editThingData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editThingResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editThingResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	var status *ontology.ThingStatus
	if data.Status != nil {
		s := ontology.ThingStatus(*data.Status)
		status = &s
	}

	ctx := c.Request().Context()
	thing, err := cc.App.Store.UpdateThing(ctx, store.UpdateThingParams{
		GroupID:    data.GroupID,
		ID:         data.ID,
		Name:       data.Name,
		Properties: data.Properties,
		Status:     status,
		ActorID:    cc.User.UserID,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, thing.GroupID, string(ontology.EventThingUpdated), thing)

	return c.JSON(http.StatusOK, editThingResponse{
		Message: "Thing updated successfully",
		Thing:   thing,
	})
}
