package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/OFFIS-RIT/mango/internal/timing"
	"github.com/OFFIS-RIT/mango/pkg/engine"
)

// App bundles the process-wide state handlers work against. Key is nil
// when no JWKS source is configured.
type App struct {
	Engine       *engine.Engine
	Queue        *amqp091.Channel
	S3           *s3.Client
	Timing       *timing.Tracker
	Key          *keyfunc.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
