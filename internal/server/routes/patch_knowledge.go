package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// EditKnowledgeHandler patches content, labels, or metadata. A content
// change re-embeds the row inside the same transaction.
func EditKnowledgeHandler(c echo.Context) error {
	type editKnowledgeData struct {
		GroupID  string              `param:"group_id" validate:"required"`
		ID       string              `param:"id" validate:"required"`
		Content  *string             `json:"content"`
		Labels   []string            `json:"labels"`
		Metadata ontology.Properties `json:"metadata"`
	}

	type editKnowledgeResponse struct {
		Message   string              `json:"message"`
		Knowledge *ontology.Knowledge `json:"knowledge,omitempty"`
	}

	data := new(editKnowledgeData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editKnowledgeResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editKnowledgeResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	knowledge, err := cc.App.Store.UpdateKnowledge(c.Request().Context(), store.UpdateKnowledgeParams{
		GroupID:  data.GroupID,
		ID:       data.ID,
		Content:  data.Content,
		Labels:   data.Labels,
		Metadata: data.Metadata,
		ActorID:  cc.User.UserID,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, knowledge.GroupID, string(ontology.EventKnowledgeUpdated), knowledge)

	return c.JSON(http.StatusOK, editKnowledgeResponse{
		Message:   "Knowledge updated successfully",
		Knowledge: knowledge,
	})
}
