package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/deepgraph/backend/internal/config"
	"github.com/deepgraph/backend/internal/queue"
	mid "github.com/deepgraph/backend/internal/server/middleware"
	"github.com/deepgraph/backend/internal/storage"
	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
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

// New creates the Echo instance with middleware and routes bound to app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(util.GetEnvString("BODY_LIMIT", "512M")))

	RegisterRoutes(e)
	return e
}

// Init builds the app from the environment and serves until ctx is done.
// Object storage and the broker are optional; without them only the
// synchronous routes work.
func Init(ctx context.Context) {
	cfg := config.Load()

	graphClient, err := cfg.NewGraphClient()
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}
	aiClient, err := cfg.NewAIClient(ctx)
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}

	app := &mid.App{
		Graph:  graphClient,
		AI:     aiClient,
		APIKey: util.GetEnv("API_KEY"),
	}

	if util.GetEnv("AWS_BUCKET") != "" {
		store, err := storage.NewStore(ctx)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		app.Store = store
	}

	if util.GetEnvBool("QUEUE_ENABLED", true) && app.Store != nil {
		conn, err := queue.Init()
		if err != nil {
			logger.Fatal("Failed to connect to queue", "err", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, []string{queue.GraphQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	} else {
		logger.Warn("Job routes disabled, set AWS_BUCKET and RABBITMQ_* to enable them")
	}

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
