package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

func GetThingsHandler(c echo.Context) error {
	type getThingsParams struct {
		GroupID string  `param:"group_id" validate:"required"`
		Type    *string `query:"type"`
		Status  *string `query:"status"`
		Limit   int     `query:"limit"`
		Offset  int     `query:"offset"`
	}

	params := new(getThingsParams)
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

	var thingType *ontology.ThingType
	if params.Type != nil {
		t := ontology.ThingType(*params.Type)
		thingType = &t
	}
	var status *ontology.ThingStatus
	if params.Status != nil {
		s := ontology.ThingStatus(*params.Status)
		status = &s
	}

	things, err := cc.App.Store.ListThings(c.Request().Context(), store.ListThingsParams{
		GroupID: params.GroupID,
		Type:    thingType,
		Status:  status,
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, things)
}

func SearchThingsHandler(c echo.Context) error {
	type searchThingsParams struct {
		GroupID string `param:"group_id" validate:"required"`
		Query   string `query:"q" validate:"required"`
		Limit   int    `query:"limit"`
	}

	params := new(searchThingsParams)
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

	things, err := cc.App.Store.SearchThings(c.Request().Context(), params.GroupID, params.Query, params.Limit)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, things)
}

func GetThingHandler(c echo.Context) error {
	type getThingParams struct {
		GroupID string `param:"group_id" validate:"required"`
		ID      string `param:"id" validate:"required"`
	}

	params := new(getThingParams)
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

	thing, err := cc.App.Store.GetThing(c.Request().Context(), params.GroupID, params.ID)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, thing)
}
