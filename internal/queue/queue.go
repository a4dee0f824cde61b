package queue

import (
	"fmt"
	"time"

	"github.com/trellishq/trellis/backend/internal/util"
	"github.com/trellishq/trellis/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Queue names consumed by the worker. Each gets a _retry companion
// (TTL, dead-letters back into the work queue) and a _dlq companion for
// messages that exhausted their retries.
const (
	IngestQueue  = "ingest_queue"
	ReembedQueue = "reembed_queue"
)

// PubsubExchange carries post-commit event notifications with
// group.<groupId>.<eventType> routing keys.
const PubsubExchange = "pubsub"

// WorkQueues lists every queue the worker consumes.
func WorkQueues() []string {
	return []string{IngestQueue, ReembedQueue}
}

// Init connects to RabbitMQ using the RABBITMQ_* environment variables.
func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

func declarePubsubExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		PubsubExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}

// SetupQueues declares the given work queues together with their retry
// and dead-letter companions, plus the pubsub exchange.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	if err := declarePubsubExchange(ch); err != nil {
		logger.Fatal("ExchangeDeclare failed", "err", err)
	}

	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", name, "err", err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", dlqName, "err", err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", retryName, "err", err)
		}
	}

	return nil
}

// PublishFIFO puts one persistent message on a work queue.
func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish("", q.Name, false, false, publishing)
}

// PublishTopic publishes one message to the pubsub exchange under the
// given routing key.
func PublishTopic(ch *amqp091.Channel, topic string, data []byte) error {
	if err := declarePubsubExchange(ch); err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(PubsubExchange, topic, false, false, publishing)
}

// EventTopic builds the routing key for one group event.
func EventTopic(groupID, eventType string) string {
	return fmt.Sprintf("group.%s.%s", groupID, eventType)
}
