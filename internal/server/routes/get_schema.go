package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"

	"github.com/labstack/echo/v4"
)

// GetSchemaHandler returns the ontology vocabulary plus JSON Schemas
// for the row shapes this API serves. Clients use it to populate
// dropdowns and to validate seed files before importing them.
func GetSchemaHandler(c echo.Context) error {
	type schemaResponse struct {
		GroupTypes      []ontology.GroupType      `json:"group_types"`
		GroupStatuses   []ontology.GroupStatus    `json:"group_statuses"`
		ThingTypes      []ontology.ThingType      `json:"thing_types"`
		ThingStatuses   []ontology.ThingStatus    `json:"thing_statuses"`
		ConnectionTypes []ontology.ConnectionType `json:"connection_types"`
		EventTypes      []ontology.EventType      `json:"event_types"`
		KnowledgeTypes  []ontology.KnowledgeType  `json:"knowledge_types"`
		Roles           []ontology.Role           `json:"roles"`
		Protocols       []ontology.Protocol       `json:"protocols"`
		Shapes          map[string]any            `json:"shapes"`
	}

	return c.JSON(http.StatusOK, schemaResponse{
		GroupTypes:      ontology.GroupTypes(),
		GroupStatuses:   ontology.GroupStatuses(),
		ThingTypes:      ontology.ThingTypes(),
		ThingStatuses:   ontology.ThingStatuses(),
		ConnectionTypes: ontology.ConnectionTypes(),
		EventTypes:      ontology.EventTypes(),
		KnowledgeTypes:  ontology.KnowledgeTypes(),
		Roles:           ontology.Roles(),
		Protocols:       ontology.Protocols(),
		Shapes: map[string]any{
			"group":      util.GenerateSchema(ontology.Group{}),
			"thing":      util.GenerateSchema(ontology.Thing{}),
			"connection": util.GenerateSchema(ontology.Connection{}),
			"event":      util.GenerateSchema(ontology.Event{}),
			"knowledge":  util.GenerateSchema(ontology.Knowledge{}),
		},
	})
}
