package routes

import (
	"net/http"
	"time"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// connectionItem is the wire shape of one edge in create, upsert, and
// bulk requests.
type connectionItem struct {
	FromID    string              `json:"from_id" validate:"required"`
	ToID      string              `json:"to_id" validate:"required"`
	Type      string              `json:"type" validate:"required"`
	Metadata  ontology.Properties `json:"metadata"`
	Strength  *float64            `json:"strength"`
	ValidFrom *time.Time          `json:"valid_from"`
	ValidTo   *time.Time          `json:"valid_to"`
}

func (item connectionItem) toInput() store.ConnectionInput {
	return store.ConnectionInput{
		FromID:    item.FromID,
		ToID:      item.ToID,
		Type:      ontology.ConnectionType(item.Type),
		Metadata:  item.Metadata,
		Strength:  item.Strength,
		ValidFrom: item.ValidFrom,
		ValidTo:   item.ValidTo,
	}
}

// CreateConnectionHandler creates a directed edge between two things of
// the group. A live edge with the same (from, to, type) key rejects the
// create; use upsert to merge instead.
func CreateConnectionHandler(c echo.Context) error {
	type createConnectionData struct {
		GroupID string `param:"group_id" validate:"required"`
		connectionItem
	}

	type createConnectionResponse struct {
		Message    string               `json:"message"`
		Connection *ontology.Connection `json:"connection,omitempty"`
	}

	data := new(createConnectionData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createConnectionResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createConnectionResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	conn, err := cc.App.Store.CreateConnection(ctx, store.CreateConnectionParams{
		GroupID:         data.GroupID,
		ConnectionInput: data.toInput(),
		ActorID:         cc.User.UserID,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, conn.GroupID, string(ontology.EventConnectionCreated), conn)

	return c.JSON(http.StatusOK, createConnectionResponse{
		Message:    "Connection created successfully",
		Connection: conn,
	})
}

// UpsertConnectionHandler creates the edge or, when the (from, to, type)
// key already exists, replaces its metadata, strength, and validity
// window.
func UpsertConnectionHandler(c echo.Context) error {
	type upsertConnectionData struct {
		GroupID string `param:"group_id" validate:"required"`
		connectionItem
	}

	type upsertConnectionResponse struct {
		Message    string               `json:"message"`
		Connection *ontology.Connection `json:"connection,omitempty"`
	}

	data := new(upsertConnectionData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, upsertConnectionResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, upsertConnectionResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	conn, err := cc.App.Store.UpsertConnection(ctx, store.CreateConnectionParams{
		GroupID:         data.GroupID,
		ConnectionInput: data.toInput(),
		ActorID:         cc.User.UserID,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, conn.GroupID, string(ontology.EventConnectionUpdated), conn)

	return c.JSON(http.StatusOK, upsertConnectionResponse{
		Message:    "Connection upserted successfully",
		Connection: conn,
	})
}

// BulkCreateConnectionsHandler creates up to the bulk cap of edges in
// one transaction; either all land or none do.
func BulkCreateConnectionsHandler(c echo.Context) error {
	type bulkCreateConnectionsData struct {
		GroupID     string           `param:"group_id" validate:"required"`
		Connections []connectionItem `json:"connections" validate:"required"`
	}

	type bulkCreateConnectionsResponse struct {
		Message     string                `json:"message"`
		Connections []ontology.Connection `json:"connections,omitempty"`
	}

	data := new(bulkCreateConnectionsData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, bulkCreateConnectionsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, bulkCreateConnectionsResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	inputs := make([]store.ConnectionInput, 0, len(data.Connections))
	for _, item := range data.Connections {
		inputs = append(inputs, item.toInput())
	}

	ctx := c.Request().Context()
	conns, err := cc.App.Store.BulkCreateConnections(ctx, data.GroupID, inputs, cc.User.UserID)
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, data.GroupID, string(ontology.EventConnectionCreated), map[string]any{
		"groupId": data.GroupID,
		"count":   len(conns),
	})

	return c.JSON(http.StatusOK, bulkCreateConnectionsResponse{
		Message:     "Connections created successfully",
		Connections: conns,
	})
}
