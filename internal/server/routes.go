package server

import (
	"net/http"

	"github.com/deepgraph/backend/internal/server/middleware"
	"github.com/deepgraph/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Synchronous extraction
	apiRoutes.POST("/graphs", routes.CreateGraphHandler)

	// Queued extraction
	apiRoutes.POST("/graphs/jobs", routes.CreateGraphJobsHandler)
	apiRoutes.GET("/graphs/jobs/:id", routes.GetGraphJobHandler)
	apiRoutes.DELETE("/graphs/jobs/:id", routes.DeleteGraphJobHandler)
}
