package routes

import (
	"net/http"
	"time"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

// parseTimestamp parses an optional RFC 3339 query value. An absent or
// empty value yields nil without error.
func parseTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func GetEventsHandler(c echo.Context) error {
	type getEventsParams struct {
		GroupID  string  `param:"group_id" validate:"required"`
		Type     *string `query:"type"`
		ActorID  *string `query:"actor_id"`
		TargetID *string `query:"target_id"`
		Since    string  `query:"since"`
		Until    string  `query:"until"`
		Limit    int     `query:"limit"`
		Offset   int     `query:"offset"`
	}

	params := new(getEventsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	since, err := parseTimestamp(params.Since)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid since timestamp, expected RFC 3339"})
	}
	until, err := parseTimestamp(params.Until)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid until timestamp, expected RFC 3339"})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	var eventType *ontology.EventType
	if params.Type != nil {
		t := ontology.EventType(*params.Type)
		eventType = &t
	}

	events, err := cc.App.Store.ListEvents(c.Request().Context(), store.ListEventsParams{
		GroupID:  params.GroupID,
		Type:     eventType,
		ActorID:  params.ActorID,
		TargetID: params.TargetID,
		Since:    since,
		Until:    until,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, events)
}

func GetRecentEventsHandler(c echo.Context) error {
	type getRecentEventsParams struct {
		GroupID string `param:"group_id" validate:"required"`
		Limit   int    `query:"limit"`
	}

	params := new(getRecentEventsParams)
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

	events, err := cc.App.Store.RecentEvents(c.Request().Context(), params.GroupID, params.Limit)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, events)
}

func GetEventStatsHandler(c echo.Context) error {
	type getEventStatsParams struct {
		GroupID string `param:"group_id" validate:"required"`
	}

	params := new(getEventStatsParams)
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

	stats, err := cc.App.Store.EventStats(c.Request().Context(), params.GroupID)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
