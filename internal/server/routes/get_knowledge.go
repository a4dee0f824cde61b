package routes

import (
	"net/http"

	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/internal/storage"
	"github.com/trellishq/trellis/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

func GetKnowledgeHandler(c echo.Context) error {
	type getKnowledgeData struct {
		GroupID string `param:"group_id" validate:"required"`
		ID      string `param:"id" validate:"required"`
	}

	data := new(getKnowledgeData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request params"})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	knowledge, err := cc.App.Store.GetKnowledge(c.Request().Context(), data.GroupID, data.ID)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, knowledge)
}

// SearchKnowledgeHandler runs a similarity search over the group's
// knowledge. POST because the query text can be arbitrarily long.
func SearchKnowledgeHandler(c echo.Context) error {
	type searchKnowledgeData struct {
		GroupID string `param:"group_id" validate:"required"`
		Query   string `json:"q" validate:"required"`
		Limit   int    `json:"limit"`
	}

	data := new(searchKnowledgeData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request body"})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	matches, err := cc.App.Store.SearchKnowledge(c.Request().Context(), data.GroupID, data.Query, data.Limit)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, matches)
}

func GetLabelsHandler(c echo.Context) error {
	groupID := c.Param("group_id")
	if groupID == "" {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request params"})
	}

	cc, errResp := groupScope(c, groupID)
	if cc == nil {
		return errResp
	}

	labels, err := cc.App.Store.ListLabels(c.Request().Context(), groupID)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, labels)
}

func GetKnowledgeByLabelHandler(c echo.Context) error {
	type byLabelData struct {
		GroupID string `param:"group_id" validate:"required"`
		Label   string `param:"label" validate:"required"`
		Limit   int    `query:"limit"`
	}

	data := new(byLabelData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request params"})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	rows, err := cc.App.Store.KnowledgeByLabel(c.Request().Context(), data.GroupID, data.Label, data.Limit)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, rows)
}

func GetKnowledgeByThingHandler(c echo.Context) error {
	type byThingData struct {
		GroupID string `param:"group_id" validate:"required"`
		ThingID string `param:"thing_id" validate:"required"`
	}

	data := new(byThingData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorBody{Error: "Invalid request params"})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	rows, err := cc.App.Store.KnowledgeByThing(c.Request().Context(), data.GroupID, data.ThingID)
	if err != nil {
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, rows)
}

// GetKnowledgeDownloadHandler presigns a download link for the source
// document behind an ingested knowledge row. Only rows whose ingest
// source was uploaded to S3 have a document to download.
func GetKnowledgeDownloadHandler(c echo.Context) error {
	type downloadData struct {
		GroupID string `param:"group_id" validate:"required"`
		ID      string `param:"id" validate:"required"`
	}

	type downloadResponse struct {
		Message string `json:"message"`
		URL     string `json:"url,omitempty"`
	}

	data := new(downloadData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, downloadResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, downloadResponse{Message: "Invalid request params"})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	knowledge, err := cc.App.Store.GetKnowledge(ctx, data.GroupID, data.ID)
	if err != nil {
		return util.JSONError(c, err)
	}

	location := ""
	if kind, ok := knowledge.Metadata["source_kind"].(string); ok && kind == "s3" {
		location, _ = knowledge.Metadata["location"].(string)
	}
	if location == "" {
		return c.JSON(http.StatusNotFound, downloadResponse{
			Message: "Knowledge row has no stored document",
		})
	}

	url, err := storage.GenerateDownloadLink(ctx, cc.App.S3, location)
	if err != nil {
		logger.Error("Failed to presign document", "group", data.GroupID, "key", location, "err", err)
		return c.JSON(http.StatusNotFound, downloadResponse{
			Message: "File does not exist",
		})
	}

	return c.JSON(http.StatusOK, downloadResponse{
		Message: "Download link generated",
		URL:     url,
	})
}
