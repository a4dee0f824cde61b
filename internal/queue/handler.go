package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trellishq/trellis/backend/pkg/ingest"
	"github.com/trellishq/trellis/backend/pkg/leaselock"
	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"

	"github.com/rabbitmq/amqp091-go"
)

// IngestJob asks the worker to ingest one document into a group.
type IngestJob struct {
	GroupID       string        `json:"groupId"`
	SourceThingID *string       `json:"sourceThingId,omitempty"`
	Source        ingest.Source `json:"source"`
	Labels        []string      `json:"labels,omitempty"`
	ActorID       string        `json:"actorId,omitempty"`
}

// ReembedJob asks the worker to regenerate every stale embedding of a
// group.
type ReembedJob struct {
	GroupID string `json:"groupId"`
	ActorID string `json:"actorId,omitempty"`
}

// Handlers processes worker jobs. One Handlers instance serves all
// queues; the worker main dispatches by queue name.
type Handlers struct {
	pipeline *ingest.Pipeline
	store    store.OntologyStore
	locks    *leaselock.Client
	ch       *amqp091.Channel
}

func NewHandlers(pipeline *ingest.Pipeline, st store.OntologyStore, locks *leaselock.Client, ch *amqp091.Channel) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		store:    st,
		locks:    locks,
		ch:       ch,
	}
}

// HandleIngest runs the ingest pipeline for one job. Validation
// failures are dropped rather than returned: a malformed job never
// heals, so retrying it would only cycle it into the DLQ slowly.
func (h *Handlers) HandleIngest(ctx context.Context, body []byte) error {
	var job IngestJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.Warn("[Queue][Ingest] Dropping unparseable job", "err", err)
		return nil
	}
	if job.GroupID == "" {
		logger.Warn("[Queue][Ingest] Dropping job without groupId")
		return nil
	}

	result, err := h.pipeline.Run(ctx, ingest.IngestParams{
		GroupID:       job.GroupID,
		SourceThingID: job.SourceThingID,
		Source:        job.Source,
		Labels:        job.Labels,
		ActorID:       job.ActorID,
	})
	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			logger.Warn("[Queue][Ingest] Dropping invalid job",
				"group", job.GroupID, "source", job.Source.DisplayName(), "err", err)
			return nil
		}
		return fmt.Errorf("ingesting %s: %w", job.Source.DisplayName(), err)
	}

	h.notify(job.GroupID, string(ontology.EventKnowledgeCreated), result)
	return nil
}

// HandleReembed regenerates a group's embeddings under a lease lock so
// replicas never run the same group concurrently. A busy lease means
// another worker is already on it; the job is acked away.
func (h *Handlers) HandleReembed(ctx context.Context, body []byte) error {
	var job ReembedJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.Warn("[Queue][Reembed] Dropping unparseable job", "err", err)
		return nil
	}
	if job.GroupID == "" {
		logger.Warn("[Queue][Reembed] Dropping job without groupId")
		return nil
	}

	key := leaselock.GroupKey("reembed", job.GroupID)
	err := h.locks.WithLease(ctx, key, leaselock.Options{
		TTL:         10 * time.Minute,
		TokenPrefix: "worker-",
	}, func(ctx context.Context) error {
		updated, err := h.store.ReembedKnowledge(ctx, job.GroupID)
		if err != nil {
			return err
		}
		logger.Info("[Queue][Reembed] Group re-embedded", "group", job.GroupID, "updated", updated)
		h.notify(job.GroupID, string(ontology.EventKnowledgeUpdated), map[string]any{
			"groupId": job.GroupID,
			"updated": updated,
		})
		return nil
	})
	if errors.Is(err, leaselock.ErrBusy) {
		logger.Info("[Queue][Reembed] Lease busy, another worker has the group", "group", job.GroupID)
		return nil
	}
	return err
}

// notify publishes a best-effort post-commit notification; failures are
// logged and swallowed because the store is already consistent.
func (h *Handlers) notify(groupID, eventType string, payload any) {
	if h.ch == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("[Queue] Failed to marshal notification", "group", groupID, "err", err)
		return
	}
	if err := PublishTopic(h.ch, EventTopic(groupID, eventType), body); err != nil {
		logger.Warn("[Queue] Failed to publish notification", "group", groupID, "type", eventType, "err", err)
	}
}
