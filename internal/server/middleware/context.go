package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"
)

// AppUser is the authenticated caller. UserID is the id of a
// person-category Thing and becomes the actor id on the events the
// caller's mutations append. GroupIDs are the groups the token grants
// membership in; access extends downward to their descendants.
type AppUser struct {
	UserID      string
	Role        ontology.Role
	Permissions []string
	GroupIDs    []string
}

type App struct {
	DBConn        *pgxpool.Pool
	Store         store.OntologyStore
	Queue         *amqp091.Channel
	Key           *keyfunc.Keyfunc
	S3            *s3.Client
	MasterAPIKey  string
	MasterActorID string
	MasterRole    string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

// AppContextMiddleware wraps every request in an AppContext carrying the
// shared application dependencies. The App is built once at startup;
// requests never construct clients of their own.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
