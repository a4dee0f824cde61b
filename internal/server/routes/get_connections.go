package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

func connectionTypeFilter(value *string) *ontology.ConnectionType {
	if value == nil {
		return nil
	}
	t := ontology.ConnectionType(*value)
	return &t
}

func GetConnectionsFromHandler(c echo.Context) error {
	type getConnectionsFromParams struct {
		GroupID string  `param:"group_id" validate:"required"`
		ThingID string  `param:"thing_id" validate:"required"`
		Type    *string `query:"type"`
		Limit   int     `query:"limit"`
		Offset  int     `query:"offset"`
	}

	params := new(getConnectionsFromParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	conns, err := cc.App.Store.ListConnectionsFrom(c.Request().Context(), store.ListConnectionsParams{
		GroupID: params.GroupID,
		FromID:  params.ThingID,
		Type:    connectionTypeFilter(params.Type),
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, conns)
}

func GetConnectionsToHandler(c echo.Context) error {
	type getConnectionsToParams struct {
		GroupID string  `param:"group_id" validate:"required"`
		ThingID string  `param:"thing_id" validate:"required"`
		Type    *string `query:"type"`
		Limit   int     `query:"limit"`
		Offset  int     `query:"offset"`
	}

	params := new(getConnectionsToParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	conns, err := cc.App.Store.ListConnectionsTo(c.Request().Context(), store.ListConnectionsParams{
		GroupID: params.GroupID,
		ToID:    params.ThingID,
		Type:    connectionTypeFilter(params.Type),
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, conns)
}

func GetConnectionsBetweenHandler(c echo.Context) error {
	type getConnectionsBetweenParams struct {
		GroupID string  `param:"group_id" validate:"required"`
		FromID  string  `param:"from_id" validate:"required"`
		ToID    string  `param:"to_id" validate:"required"`
		Type    *string `query:"type"`
		Limit   int     `query:"limit"`
		Offset  int     `query:"offset"`
	}

	params := new(getConnectionsBetweenParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	conns, err := cc.App.Store.ListConnectionsBetween(c.Request().Context(), store.ListConnectionsParams{
		GroupID: params.GroupID,
		FromID:  params.FromID,
		ToID:    params.ToID,
		Type:    connectionTypeFilter(params.Type),
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, conns)
}
