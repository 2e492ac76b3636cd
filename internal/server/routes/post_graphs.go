package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/deepgraph/backend/internal/server/middleware"
	"github.com/deepgraph/backend/pkg/export"
	"github.com/deepgraph/backend/pkg/graph"
	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/memory"
	"github.com/deepgraph/backend/pkg/loader/reader"
	"github.com/deepgraph/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type createGraphResponse struct {
	Message string           `json:"message"`
	Graph   *export.Document `json:"graph,omitempty"`
	Report  string           `json:"report,omitempty"`
}

// CreateGraphHandler runs the pipeline synchronously on the posted text and
// uploaded files and returns the graph document.
func CreateGraphHandler(c echo.Context) error {
	req, uploads, err := parseGraphRequest(c)
	if err != nil {
		return badRequest(c, err)
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	mem := memory.NewMemoryGraphFileLoader()
	rd := reader.NewReader(mem)
	files := make([]loader.GraphFile, 0, len(uploads))
	for i, fh := range uploads {
		content, err := readUpload(fh)
		if err != nil {
			return badRequest(c, err)
		}
		path := fmt.Sprintf("%d/%s", i, fh.Filename)
		mem.Put(path, content)
		file, err := rd.File(fmt.Sprintf("upload-%d", i), path, "")
		if err != nil {
			return badRequest(c, err)
		}
		files = append(files, file)
	}

	parts := make([]string, 0, 2)
	if text := strings.TrimSpace(req.Text); text != "" {
		parts = append(parts, text)
	}
	if text := loader.ReadText(ctx, files...); text != "" {
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return c.JSON(http.StatusBadRequest, createGraphResponse{
			Message: "Provide text or at least one readable file",
		})
	}

	name := req.Name
	if name == "" && len(files) > 0 {
		name = loader.DisplayName(uploads[0].Filename)
	}
	if name == "" {
		name = "document"
	}

	client := app.Graph
	if req.hasOverrides() {
		client, err = app.Graph.WithOptions(req.apply(app.Graph.Options()))
		if err != nil {
			return badRequest(c, err)
		}
	}

	res, err := client.ProcessDocument(ctx, app.AI, graph.Document{
		Name:    name,
		Text:    strings.Join(parts, "\n\n"),
		Context: req.Context,
	})
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			logger.Warn("[Server] Graph request canceled", "name", name)
			return c.JSON(http.StatusServiceUnavailable, createGraphResponse{Message: "Request canceled"})
		}
		logger.Error("[Server] Graph request failed", "name", name, "err", err)
		return c.JSON(http.StatusInternalServerError, createGraphResponse{Message: "Internal server error"})
	}

	doc := export.NewDocument(res)
	return c.JSON(http.StatusOK, createGraphResponse{
		Message: string(res.Status),
		Graph:   &doc,
		Report:  graph.Report(res),
	})
}
