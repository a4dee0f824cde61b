package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trellishq/trellis/backend/internal/queue"
	"github.com/trellishq/trellis/backend/internal/storage"
	"github.com/trellishq/trellis/backend/internal/util"
	"github.com/trellishq/trellis/backend/pkg/embed"
	eol "github.com/trellishq/trellis/backend/pkg/embed/ollama"
	eoa "github.com/trellishq/trellis/backend/pkg/embed/openai"
	"github.com/trellishq/trellis/backend/pkg/ingest"
	"github.com/trellishq/trellis/backend/pkg/leaselock"
	"github.com/trellishq/trellis/backend/pkg/logger"
	storepgx "github.com/trellishq/trellis/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	amqp "github.com/rabbitmq/amqp091-go"
)

const maxRetries = 10

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(logger.NewConsole(debug))

	// Embedder
	var embedder embed.Embedder
	switch util.GetEnv("EMBED_PROVIDER") {
	case "ollama":
		client, err := eol.NewClient(eol.NewClientParams{
			Model:   util.GetEnv("EMBED_MODEL"),
			BaseURL: util.GetEnv("EMBED_URL"),
			APIKey:  util.GetEnv("EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("EMBED_PARALLEL_REQ", 8)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama embedder", "err", err)
		}
		embedder = client
	default:
		embedder = eoa.NewClient(eoa.NewClientParams{
			Model:   util.GetEnv("EMBED_MODEL"),
			BaseURL: util.GetEnv("EMBED_URL"),
			APIKey:  util.GetEnv("EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("EMBED_PARALLEL_REQ", 8)),
		})
	}

	// Init pgx client with pgvector codecs
	poolConfig, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid DATABASE_URL", "err", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pgConn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	st := storepgx.NewStore(pgConn,
		storepgx.WithEmbedder(embedder),
		storepgx.WithQuotas(storepgx.QuotaConfig{
			MaxThings:      int64(util.GetEnvNumeric("QUOTA_MAX_THINGS", 0)),
			MaxConnections: int64(util.GetEnvNumeric("QUOTA_MAX_CONNECTIONS", 0)),
			MaxKnowledge:   int64(util.GetEnvNumeric("QUOTA_MAX_KNOWLEDGE", 0)),
			MaxChildGroups: int64(util.GetEnvNumeric("QUOTA_MAX_CHILD_GROUPS", 0)),
		}),
	)

	locks := leaselock.New(pgConn)

	// Init s3 client for document sources
	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}
	s3Fetcher := ingest.NewS3FetcherWithClient(storage.Bucket(), s3Client)

	pipeline := ingest.NewPipeline(st, embedder,
		ingest.WithFetcher(ingest.SourceKindS3, s3Fetcher),
	)

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	// Init rabbitmq queues if not exist
	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := queue.WorkQueues()
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	handlers := queue.NewHandlers(pipeline, st, locks, ch)

	logger.Info("Listening for messages")

	// Create a single consumer channel with prefetch=1
	// This ensures only ONE message is delivered at a time across all queues
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	err = consumerCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.IngestQueue:
					processingErr = handlers.HandleIngest(ctx, qm.msg.Body)
				case queue.ReembedQueue:
					processingErr = handlers.HandleReembed(ctx, qm.msg.Body)
				}

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(consumerCh, qm.msg, qm.queueName)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				metrics := embedder.GetMetrics()
				logger.Info(
					"Embedder metrics",
					"input_tokens", metrics.InputTokens,
					"total_tokens", metrics.TotalTokens,
					"requests", metrics.Requests,
					"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
				)

				logger.Info("Processing time", "duration", formatDuration(time.Since(startTime)))
				logger.Info("Waiting for next message")
				embedder.ResetMetrics()
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// Exhausted messages go to the dead-letter queue for inspection
	if retries >= maxRetries {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "text/plain",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "text/plain",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
