package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"

	"github.com/labstack/echo/v4"
)

// DeleteKnowledgeHandler removes a knowledge row for good. Knowledge is
// derived data and can be re-ingested, so there is no archive state.
func DeleteKnowledgeHandler(c echo.Context) error {
	type deleteKnowledgeData struct {
		GroupID string `param:"group_id" validate:"required"`
		ID      string `param:"id" validate:"required"`
	}

	type deleteKnowledgeResponse struct {
		Message string `json:"message"`
	}

	data := new(deleteKnowledgeData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteKnowledgeResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteKnowledgeResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	if err := cc.App.Store.DeleteKnowledge(c.Request().Context(), data.GroupID, data.ID, cc.User.UserID); err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, data.GroupID, string(ontology.EventKnowledgeDeleted), map[string]string{
		"groupId": data.GroupID,
		"id":      data.ID,
	})

	return c.JSON(http.StatusOK, deleteKnowledgeResponse{
		Message: "Knowledge deleted",
	})
}
