package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"

	"github.com/labstack/echo/v4"
)

// DeleteThingHandler archives a thing; connections and knowledge keep
// referring to it. Archiving an already archived thing is a no-op
// success.
func DeleteThingHandler(c echo.Context) error {
	type deleteThingParams struct {
		GroupID string `param:"group_id" validate:"required"`
		ID      string `param:"id" validate:"required"`
	}

	type deleteThingResponse struct {
		Message string          `json:"message"`
		Thing   *ontology.Thing `json:"thing,omitempty"`
	}

	params := new(deleteThingParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteThingResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteThingResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	thing, err := cc.App.Store.ArchiveThing(ctx, params.GroupID, params.ID, cc.User.UserID)
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, thing.GroupID, string(ontology.EventThingArchived), thing)

	return c.JSON(http.StatusOK, deleteThingResponse{
		Message: "Thing archived",
		Thing:   thing,
	})
}
