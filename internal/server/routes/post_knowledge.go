package routes

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/trellishq/trellis/backend/internal/queue"
	"github.com/trellishq/trellis/backend/internal/server/util"
	"github.com/trellishq/trellis/backend/internal/storage"
	"github.com/trellishq/trellis/backend/pkg/ingest"
	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// formatForFile infers the extraction format from a file name.
func formatForFile(name string) ingest.Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".docx":
		return ingest.FormatDocx
	case ".csv":
		return ingest.FormatCSV
	default:
		return ingest.FormatText
	}
}

// CreateKnowledgeHandler writes one knowledge row. Without an explicit
// embedding the store embeds the content itself, except for vector_only
// rows where the embedding is required.
func CreateKnowledgeHandler(c echo.Context) error {
	type createKnowledgeData struct {
		GroupID        string              `param:"group_id" validate:"required"`
		SourceThingID  *string             `json:"source_thing_id"`
		Content        string              `json:"content"`
		Labels         []string            `json:"labels"`
		Metadata       ontology.Properties `json:"metadata"`
		Type           string              `json:"type" validate:"required"`
		Embedding      []float32           `json:"embedding"`
		EmbeddingModel string              `json:"embedding_model"`
	}

	type createKnowledgeResponse struct {
		Message   string              `json:"message"`
		Knowledge *ontology.Knowledge `json:"knowledge,omitempty"`
	}

	data := new(createKnowledgeData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createKnowledgeResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createKnowledgeResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	knowledge, err := cc.App.Store.CreateKnowledge(ctx, store.CreateKnowledgeParams{
		GroupID:        data.GroupID,
		SourceThingID:  data.SourceThingID,
		Content:        data.Content,
		Labels:         data.Labels,
		Metadata:       data.Metadata,
		Type:           ontology.KnowledgeType(data.Type),
		Embedding:      data.Embedding,
		EmbeddingModel: data.EmbeddingModel,
		ActorID:        cc.User.UserID,
	})
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, knowledge.GroupID, string(ontology.EventKnowledgeCreated), knowledge)

	return c.JSON(http.StatusOK, createKnowledgeResponse{
		Message:   "Knowledge created successfully",
		Knowledge: knowledge,
	})
}

// ImportKnowledgeHandler queues documents for ingest on the worker.
// Multipart requests upload their files to S3 first; JSON requests name
// a source directly (web URL, S3 key, or inline text).
func ImportKnowledgeHandler(c echo.Context) error {
	type importKnowledgeBody struct {
		SourceThingID *string       `json:"source_thing_id"`
		Source        ingest.Source `json:"source"`
		Labels        []string      `json:"labels"`
	}

	type importKnowledgeResponse struct {
		Message string   `json:"message"`
		Queued  int      `json:"queued"`
		Keys    []string `json:"keys,omitempty"`
	}

	groupID := c.Param("group_id")
	if groupID == "" {
		return c.JSON(http.StatusBadRequest, importKnowledgeResponse{
			Message: "Invalid request params",
		})
	}

	cc, errResp := groupScope(c, groupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return c.JSON(http.StatusBadRequest, importKnowledgeResponse{
				Message: "Invalid request body",
			})
		}
		uploads := form.File["files"]
		if len(uploads) == 0 {
			return c.JSON(http.StatusBadRequest, importKnowledgeResponse{
				Message: "No files provided",
			})
		}

		var sourceThingID *string
		if v := c.FormValue("source_thing_id"); v != "" {
			sourceThingID = &v
		}
		labels := form.Value["labels"]

		keys := make([]string, 0, len(uploads))
		for _, file := range uploads {
			src, err := file.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, importKnowledgeResponse{
					Message: "Invalid request body",
				})
			}
			defer src.Close()

			fID, err := gonanoid.New()
			if err != nil {
				return util.JSONError(c, err)
			}
			key, err := storage.PutDocument(ctx, cc.App.S3, groupID, fID, file.Filename, src)
			if err != nil {
				logger.Error("Failed to upload document", "group", groupID, "file", file.Filename, "err", err)
				return util.JSONError(c, err)
			}

			job := queue.IngestJob{
				GroupID:       groupID,
				SourceThingID: sourceThingID,
				Source: ingest.Source{
					Kind:     ingest.SourceKindS3,
					Location: key,
					Format:   formatForFile(file.Filename),
					Name:     file.Filename,
				},
				Labels:  labels,
				ActorID: cc.User.UserID,
			}
			body, err := json.Marshal(job)
			if err != nil {
				return util.JSONError(c, err)
			}
			if err := queue.PublishFIFO(cc.App.Queue, queue.IngestQueue, body); err != nil {
				logger.Error("Failed to publish to ingest_queue", "group", groupID, "err", err)
				return util.JSONError(c, err)
			}
			keys = append(keys, key)
		}

		return c.JSON(http.StatusOK, importKnowledgeResponse{
			Message: "Documents queued for ingest",
			Queued:  len(keys),
			Keys:    keys,
		})
	}

	data := new(importKnowledgeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, importKnowledgeResponse{
			Message: "Invalid request body",
		})
	}
	if data.Source.Kind == "" {
		return c.JSON(http.StatusBadRequest, importKnowledgeResponse{
			Message: "Missing source.kind",
		})
	}

	job := queue.IngestJob{
		GroupID:       groupID,
		SourceThingID: data.SourceThingID,
		Source:        data.Source,
		Labels:        data.Labels,
		ActorID:       cc.User.UserID,
	}
	body, err := json.Marshal(job)
	if err != nil {
		return util.JSONError(c, err)
	}
	if err := queue.PublishFIFO(cc.App.Queue, queue.IngestQueue, body); err != nil {
		logger.Error("Failed to publish to ingest_queue", "group", groupID, "err", err)
		return util.JSONError(c, err)
	}

	return c.JSON(http.StatusOK, importKnowledgeResponse{
		Message: "Document queued for ingest",
		Queued:  1,
	})
}

// LinkKnowledgeHandler points a knowledge row at the thing it
// describes.
func LinkKnowledgeHandler(c echo.Context) error {
	type linkKnowledgeData struct {
		GroupID string `param:"group_id" validate:"required"`
		ID      string `param:"id" validate:"required"`
		ThingID string `json:"thing_id" validate:"required"`
	}

	type linkKnowledgeResponse struct {
		Message   string              `json:"message"`
		Knowledge *ontology.Knowledge `json:"knowledge,omitempty"`
	}

	data := new(linkKnowledgeData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, linkKnowledgeResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, linkKnowledgeResponse{
			Message: "Invalid request body",
		})
	}

	cc, errResp := groupScope(c, data.GroupID)
	if cc == nil {
		return errResp
	}

	ctx := c.Request().Context()
	knowledge, err := cc.App.Store.LinkKnowledgeToThing(ctx, data.GroupID, data.ID, data.ThingID, cc.User.UserID)
	if err != nil {
		return util.JSONError(c, err)
	}

	util.Notify(cc.App.Queue, knowledge.GroupID, string(ontology.EventKnowledgeLinked), knowledge)

	return c.JSON(http.StatusOK, linkKnowledgeResponse{
		Message:   "Knowledge linked successfully",
		Knowledge: knowledge,
	})
}
