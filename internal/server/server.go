package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trellishq/trellis/backend/internal/database"
	"github.com/trellishq/trellis/backend/internal/queue"
	mid "github.com/trellishq/trellis/backend/internal/server/middleware"
	"github.com/trellishq/trellis/backend/internal/storage"
	"github.com/trellishq/trellis/backend/internal/util"
	"github.com/trellishq/trellis/backend/pkg/embed"
	eol "github.com/trellishq/trellis/backend/pkg/embed/ollama"
	eoa "github.com/trellishq/trellis/backend/pkg/embed/openai"
	"github.com/trellishq/trellis/backend/pkg/logger"
	storepgx "github.com/trellishq/trellis/backend/pkg/store/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewEmbedder builds the embedding client selected by EMBED_PROVIDER.
// The server needs one because knowledge create, update, and search all
// embed content inside the store.
func NewEmbedder() embed.Embedder {
	provider := util.GetEnv("EMBED_PROVIDER")

	switch provider {
	case "ollama":
		client, err := eol.NewClient(eol.NewClientParams{
			Model:   util.GetEnv("EMBED_MODEL"),
			BaseURL: util.GetEnv("EMBED_URL"),
			APIKey:  util.GetEnv("EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("EMBED_PARALLEL_REQ", 8)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama embedder", "err", err)
		}
		return client
	default:
		return eoa.NewClient(eoa.NewClientParams{
			Model:   util.GetEnv("EMBED_MODEL"),
			BaseURL: util.GetEnv("EMBED_URL"),
			APIKey:  util.GetEnv("EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("EMBED_PARALLEL_REQ", 8)),
		})
	}
}

// QuotasFromEnv reads the per-group row caps. Unset or zero values
// leave the corresponding cap disabled.
func QuotasFromEnv() storepgx.QuotaConfig {
	return storepgx.QuotaConfig{
		MaxThings:      int64(util.GetEnvNumeric("QUOTA_MAX_THINGS", 0)),
		MaxConnections: int64(util.GetEnvNumeric("QUOTA_MAX_CONNECTIONS", 0)),
		MaxKnowledge:   int64(util.GetEnvNumeric("QUOTA_MAX_KNOWLEDGE", 0)),
		MaxChildGroups: int64(util.GetEnvNumeric("QUOTA_MAX_CHILD_GROUPS", 0)),
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	jwksUrl := util.GetEnv("AUTH_URL") + "/jwks"
	k, err := keyfunc.NewDefault([]string{jwksUrl})
	if err != nil {
		logger.Fatal("Failed to load jwks keys", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.MigrateFromEnv(); err != nil {
		logger.Fatal("Failed to migrate database", "err", err)
	}

	poolConfig, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid DATABASE_URL", "err", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	conn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	st := storepgx.NewStore(conn,
		storepgx.WithEmbedder(NewEmbedder()),
		storepgx.WithQuotas(QuotasFromEnv()),
	)

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	if err := queue.SetupQueues(ch, queue.WorkQueues()); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	app := &mid.App{
		DBConn:        conn,
		Store:         st,
		Queue:         ch,
		Key:           &k,
		S3:            s3Client,
		MasterAPIKey:  util.GetEnv("MASTER_API_KEY"),
		MasterActorID: util.GetEnv("MASTER_ACTOR_ID"),
		MasterRole:    util.GetEnv("MASTER_ROLE"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("4G"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
