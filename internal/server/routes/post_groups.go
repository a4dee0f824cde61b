package routes

import (
	"encoding/json"
	"net/http"

	"github.com/trellishq/trellis/backend/internal/queue"
	"github.com/trellishq/trellis/backend/internal/server/middleware"
	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// CreateGroupHandler creates a new group, optionally nested under a
// parent the caller has access to.
func CreateGroupHandler(c echo.Context) error {
	type createGroupBody struct {
		Slug          string              `json:"slug" validate:"required"`
		Name          string              `json:"name" validate:"required"`
		Type          string              `json:"type" validate:"required"`
		ParentGroupID *string             `json:"parent_group_id"`
		Settings      ontology.Properties `json:"settings"`
	}

	type createGroupResponse struct {
		Message string          `json:"message"`
		Group   *ontology.Group `json:"group,omitempty"`
	}

	data := new(createGroupBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createGroupResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createGroupResponse{
			Message: "Invalid request body",
		})
	}

	cc := c.(*middleware.AppContext)
	user := cc.User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, createGroupResponse{
			Message: "Unauthorized",
		})
	}

	ctx := c.Request().Context()
	if data.ParentGroupID != nil && !middleware.CanAccessGroup(ctx, cc, *data.ParentGroupID) {
		return c.JSON(http.StatusForbidden, util.ErrorBody{
			Error: "You do not have access to the parent group",
			Type:  "unauthorized",
		})
	}

	group, err := cc.App.Store.CreateGroup(ctx, store.CreateGroupParams{
		Slug:          data.Slug,
		Name:          data.Name,
		Type:          ontology.GroupType(data.Type),
		ParentGroupID: data.ParentGroupID,
		Settings:      data.Settings,
		ActorID:       user.UserID,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, group.ID, string(ontology.EventGroupCreated), group)

	return c.JSON(http.StatusOK, createGroupResponse{
		Message: "Group created successfully",
		Group:   group,
	})
}

// RestoreGroupHandler reverts an archived group to active.
func RestoreGroupHandler(c echo.Context) error {
	type restoreGroupParams struct {
		GroupID string `param:"group_id" validate:"required"`
	}

	type restoreGroupResponse struct {
		Message string          `json:"message"`
		Group   *ontology.Group `json:"group,omitempty"`
	}

	params := new(restoreGroupParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, restoreGroupResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, restoreGroupResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	group, err := cc.App.Store.RestoreGroup(ctx, params.GroupID, cc.User.UserID)
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, group.ID, string(ontology.EventGroupRestored), group)

	return c.JSON(http.StatusOK, restoreGroupResponse{
		Message: "Group restored successfully",
		Group:   group,
	})
}

// ReembedGroupHandler queues a re-embed job for every knowledge row of
// the group whose embedding is missing or from another model. The heavy
// lifting happens on the worker under a lease lock.
func ReembedGroupHandler(c echo.Context) error {
	type reembedGroupParams struct {
		GroupID string `param:"group_id" validate:"required"`
	}

	type reembedGroupResponse struct {
		Message string `json:"message"`
	}

	params := new(reembedGroupParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, reembedGroupResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, reembedGroupResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, params.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	if _, err := cc.App.Store.GetGroup(ctx, params.GroupID); err != nil {
		return util.JSONError(c, err)
	}

	job := queue.ReembedJob{
		GroupID: params.GroupID,
		ActorID: cc.User.UserID,
	}
	body, err := json.Marshal(job)
	if err != nil {
		return util.JSONError(c, err)
	}
	if err := queue.PublishFIFO(cc.App.Queue, queue.ReembedQueue, body); err != nil {
		logger.Error("Failed to publish to reembed_queue", "group", params.GroupID, "err", err)
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, reembedGroupResponse{
		Message: "Re-embed queued",
	})
}
