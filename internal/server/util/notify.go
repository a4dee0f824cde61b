package util

import (
	"encoding/json"

	"github.com/trellishq/trellis/backend/internal/queue"
	"github.com/trellishq/trellis/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Notify publishes a best-effort post-commit notification to the pubsub
// exchange. By the time this runs the transaction has committed, so a
// publish failure is logged and swallowed rather than surfaced to the
// client.
func Notify(ch *amqp091.Channel, groupID, eventType string, payload any) {
	if ch == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("[HTTP] Failed to marshal notification", "group", groupID, "err", err)
		return
	}
	if err := queue.PublishTopic(ch, queue.EventTopic(groupID, eventType), body); err != nil {
		logger.Warn("[HTTP] Failed to publish notification", "group", groupID, "type", eventType, "err", err)
	}
}
