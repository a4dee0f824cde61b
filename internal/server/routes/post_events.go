package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// AppendEventHandler records a domain activity event. The actor is
// always the authenticated caller; clients cannot append on behalf of
// someone else. Events are immutable once written.
func AppendEventHandler(c echo.Context) error {
	type appendEventData struct {
		GroupID  string              `param:"group_id" validate:"required"`
		Type     string              `json:"type" validate:"required"`
		TargetID *string             `json:"target_id"`
		Metadata ontology.Properties `json:"metadata"`
	}

	type appendEventResponse struct {
		Message string          `json:"message"`
		Event   *ontology.Event `json:"event,omitempty"`
	}

	data := new(appendEventData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, appendEventResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, appendEventResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	event, err := cc.App.Store.AppendEvent(ctx, store.AppendEventParams{
		GroupID:  data.GroupID,
		Type:     ontology.EventType(data.Type),
		ActorID:  actorRef(cc),
		TargetID: data.TargetID,
		Metadata: data.Metadata,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, event.GroupID, string(event.Type), event)

	return c.JSON(http.StatusOK, appendEventResponse{
		Message: "Event appended",
		Event:   event,
	})
}
