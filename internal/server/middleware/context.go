package middleware

import (
	"context"
	"io"

	"github.com/deepgraph/backend/internal/queue"
	"github.com/deepgraph/backend/pkg/ai"
	"github.com/deepgraph/backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

// ObjectStore is the part of storage.Store the job routes need.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker) error
	List(ctx context.Context, prefix string) ([]string, error)
	DeleteFolder(ctx context.Context, prefix string) error
	DownloadLink(ctx context.Context, key string) (string, error)
}

// App holds the dependencies shared by all handlers. Store and Queue are nil
// when no object storage or broker is configured; the job routes then
// answer 503.
type App struct {
	Graph  *graph.GraphClient
	AI     ai.GraphAIClient
	Store  ObjectStore
	Queue  queue.Publisher
	APIKey string
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
