package routes

import (
	"io"
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// thingItem is the wire shape of one thing in create, bulk, and import
// requests.
type thingItem struct {
	Type       string              `json:"type" validate:"required"`
	Name       string              `json:"name" validate:"required"`
	Properties ontology.Properties `json:"properties"`
	Status     string              `json:"status"`
}

func (t thingItem) toInput() store.ThingInput {
	return store.ThingInput{
		Type:       ontology.ThingType(t.Type),
		Name:       t.Name,
		Properties: t.Properties,
		Status:     ontology.ThingStatus(t.Status),
	}
}

// decodeThingSeed parses an import payload into thing inputs. Seed files
// come from exports and scripts, so the payload goes through tolerant
// JSON parsing and may be either a bare array or wrapped in {"things":…}.
func decodeThingSeed(raw string) ([]store.ThingInput, error) {
	var items []thingItem
	if err := util.UnmarshalFlexible(raw, &items); err != nil {
		var wrapper struct {
			Things []thingItem `json:"things"`
		}
		if werr := util.UnmarshalFlexible(raw, &wrapper); werr != nil || wrapper.Things == nil {
			return nil, err
		}
		items = wrapper.Things
	}

	inputs := make([]store.ThingInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, item.toInput())
	}
	return inputs, nil
}

// CreateThingHandler creates one thing inside a group.
func CreateThingHandler(c echo.Context) error {
	type createThingData struct {
		GroupID    string              `param:"group_id" validate:"required"`
		Type       string              `json:"type" validate:"required"`
		Name       string              `json:"name" validate:"required"`
		Properties ontology.Properties `json:"properties"`
		Status     string              `json:"status"`
	}

	type createThingResponse struct {
		Message string          `json:"message"`
		Thing   *ontology.Thing `json:"thing,omitempty"`
	}

	data := new(createThingData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createThingResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createThingResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	thing, err := cc.App.Store.CreateThing(ctx, store.CreateThingParams{
		GroupID: data.GroupID,
		ThingInput: store.ThingInput{
			Type:       ontology.ThingType(data.Type),
			Name:       data.Name,
			Properties: data.Properties,
			Status:     ontology.ThingStatus(data.Status),
		},
		ActorID: cc.User.UserID,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, thing.GroupID, string(ontology.EventThingCreated), thing)

	return c.JSON(http.StatusOK, createThingResponse{
		Message: "Thing created successfully",
		Thing:   thing,
	})
}

// BulkCreateThingsHandler creates up to the bulk cap of things in one
// transaction; either all land or none do.
func BulkCreateThingsHandler(c echo.Context) error {
	type bulkCreateThingsData struct {
		GroupID string      `param:"group_id" validate:"required"`
		Things  []thingItem `json:"things" validate:"required"`
	}

	type bulkCreateThingsResponse struct {
		Message string           `json:"message"`
		Things  []ontology.Thing `json:"things,omitempty"`
	}

	data := new(bulkCreateThingsData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, bulkCreateThingsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, bulkCreateThingsResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	inputs := make([]store.ThingInput, 0, len(data.Things))
	for _, item := range data.Things {
		inputs = append(inputs, item.toInput())
	}

	ctx := c.Request().Context()
	things, err := cc.App.Store.BulkCreateThings(ctx, data.GroupID, inputs, cc.User.UserID)
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, data.GroupID, string(ontology.EventThingCreated), map[string]any{
		"groupId": data.GroupID,
		"count":   len(things),
	})

	return c.JSON(http.StatusOK, bulkCreateThingsResponse{
		Message: "Things created successfully",
		Things:  things,
	})
}

// ImportThingsHandler is BulkCreateThingsHandler for seed files: the
// body goes through tolerant JSON parsing before the bulk write.
func ImportThingsHandler(c echo.Context) error {
	type importThingsResponse struct {
		Message string           `json:"message"`
		Count   int              `json:"count"`
		Things  []ontology.Thing `json:"things,omitempty"`
	}

	groupID := c.Param("group_id")
	if groupID == "" {
		return c.JSON(http.StatusBadRequest, importThingsResponse{
			Message: "Invalid request params",
		})
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, importThingsResponse{
			Message: "Invalid request body",
		})
	}

	inputs, err := decodeThingSeed(string(raw))
	if err != nil {
		return c.JSON(http.StatusBadRequest, importThingsResponse{
			Message: "Invalid import payload",
		})
	}

	cc, errResp := groupScope(c, groupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	things, err := cc.App.Store.BulkCreateThings(ctx, groupID, inputs, cc.User.UserID)
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, groupID, string(ontology.EventThingCreated), map[string]any{
		"groupId": groupID,
		"count":   len(things),
	})

	return c.JSON(http.StatusOK, importThingsResponse{
		Message: "Things imported successfully",
		Count:   len(things),
		Things:  things,
	})
}

// RestoreThingHandler reverts an archived thing to the status it held
// before archiving.
func RestoreThingHandler(c echo.Context) error {
	type restoreThingParams struct {
		GroupID string `param:"group_id" validate:"required"`
		ID      string `param:"id" validate:"required"`
	}

	type restoreThingResponse struct {
		Message string          `json:"message"`
		Thing   *ontology.Thing `json:"thing,omitempty"`
	}

	params := new(restoreThingParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, restoreThingResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, restoreThingResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	thing, err := cc.App.Store.RestoreThing(ctx, params.GroupID, params.ID, cc.User.UserID)
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, thing.GroupID, string(ontology.EventThingRestored), thing)

	return c.JSON(http.StatusOK, restoreThingResponse{
		Message: "Thing restored successfully",
		Thing:   thing,
	})
}
