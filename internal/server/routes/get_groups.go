package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/middleware"
	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

func GetGroupsHandler(c echo.Context) error {
	type getGroupsQuery struct {
		ParentGroupID *string `query:"parent_group_id"`
		Status        *string `query:"status"`
		Limit         int     `query:"limit"`
		Offset        int     `query:"offset"`
	}

	q := new(getGroupsQuery)
	if err := c.Bind(q); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	cc := c.(*middleware.AppContext)
	user := cc.User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()

	if middleware.HasPermission(user, "group.view:all") {
		var status *ontology.GroupStatus
		if q.Status != nil {
			s := ontology.GroupStatus(*q.Status)
			status = &s
		}
		groups, err := cc.App.Store.ListGroups(ctx, store.ListGroupsParams{
			ParentGroupID: q.ParentGroupID,
			Status:        status,
			Limit:         q.Limit,
			Offset:        q.Offset,
		})
		if err != nil {
			return util.JSONError(c, err)
		}
		return c.JSON(http.StatusOK, groups)
	}

	// Scoped callers get the groups their token names; archived or
	// deleted ids are skipped instead of failing the whole list.
	groups := make([]ontology.Group, 0, len(user.GroupIDs))
	for _, id := range user.GroupIDs {
		group, err := cc.App.Store.GetGroup(ctx, id)
		if err != nil {
			continue
		}
		groups = append(groups, *group)
	}

	return c.JSON(http.StatusOK, groups)
}

func GetGroupHandler(c echo.Context) error {
	type getGroupParams struct {
		GroupID string `param:"group_id" validate:"required"`
	}

	params := new(getGroupParams)
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

	group, err := cc.App.Store.GetGroup(c.Request().Context(), params.GroupID)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, group)
}

func GetGroupHierarchyHandler(c echo.Context) error {
	type getHierarchyParams struct {
		GroupID  string `param:"group_id" validate:"required"`
		MaxDepth int    `query:"max_depth"`
	}

	params := new(getHierarchyParams)
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

	groups, err := cc.App.Store.GetHierarchy(c.Request().Context(), params.GroupID, params.MaxDepth)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, groups)
}

func GetGroupPathHandler(c echo.Context) error {
	type getPathParams struct {
		GroupID string `param:"group_id" validate:"required"`
	}

	params := new(getPathParams)
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

	path, err := cc.App.Store.GetPath(c.Request().Context(), params.GroupID)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, path)
}

func GetGroupStatsHandler(c echo.Context) error {
	type getStatsParams struct {
		GroupID string `param:"group_id" validate:"required"`
	}

	params := new(getStatsParams)
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

	stats, err := cc.App.Store.GroupStats(c.Request().Context(), params.GroupID)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
