package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/deepgraph/backend/internal/queue"
	"github.com/deepgraph/backend/internal/server/middleware"
	"github.com/deepgraph/backend/internal/storage"
	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type graphJob struct {
	JobID   string `json:"job_id"`
	FileKey string `json:"file_key"`
	Name    string `json:"name"`
}

type createGraphJobsResponse struct {
	Message string     `json:"message"`
	Jobs    []graphJob `json:"jobs,omitempty"`
}

func jobsUnavailable(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Message: "Job processing is not configured"})
}

// CreateGraphJobsHandler stores every uploaded file and queues one graph job
// per file for the worker.
func CreateGraphJobsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Store == nil || app.Queue == nil {
		return jobsUnavailable(c)
	}
	if !isMultipart(c) {
		return c.JSON(http.StatusBadRequest, createGraphJobsResponse{Message: "Expected multipart/form-data with files"})
	}

	req, uploads, err := parseGraphRequest(c)
	if err != nil {
		return badRequest(c, err)
	}
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, createGraphJobsResponse{Message: "No files uploaded"})
	}

	ctx := c.Request().Context()
	jobs := make([]graphJob, 0, len(uploads))
	for _, fh := range uploads {
		content, err := readUpload(fh)
		if err != nil {
			return badRequest(c, err)
		}

		jobID, err := gonanoid.New()
		if err != nil {
			logger.Error("[Server] Failed to generate job id", "err", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		}
		key := storage.UploadKey(jobID, fh.Filename)
		if err := app.Store.Put(ctx, key, bytes.NewReader(content)); err != nil {
			logger.Error("[Server] Failed to store upload", "key", key, "err", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to store file"})
		}

		name := req.Name
		if name == "" || len(uploads) > 1 {
			name = loader.DisplayName(fh.Filename)
		}
		msg := queue.GraphJobMsg{JobID: jobID, FileKey: key, Name: name, Context: req.Context}
		data, err := json.Marshal(msg)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		}
		if err := queue.PublishFIFO(app.Queue, queue.GraphQueue, data); err != nil {
			logger.Error("[Server] Failed to publish graph job", "job", jobID, "err", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to queue job"})
		}

		logger.Info("[Server] Queued graph job", "job", jobID, "file", key)
		jobs = append(jobs, graphJob{JobID: jobID, FileKey: key, Name: name})
	}

	return c.JSON(http.StatusAccepted, createGraphJobsResponse{Message: "Jobs queued", Jobs: jobs})
}

type graphJobStatusResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	GraphURL  string `json:"graph_url,omitempty"`
	ReportURL string `json:"report_url,omitempty"`
}

// GetGraphJobHandler reports whether the worker exported the job's graph and
// returns short lived download links when it did.
func GetGraphJobHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Store == nil {
		return jobsUnavailable(c)
	}

	ctx := c.Request().Context()
	jobID := c.Param("id")
	keys, err := app.Store.List(ctx, storage.ResultPrefix(jobID))
	if err != nil {
		logger.Error("[Server] Failed to list job results", "job", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}

	resp := graphJobStatusResponse{JobID: jobID, Status: "pending"}
	for _, key := range keys {
		var dst *string
		switch {
		case strings.HasSuffix(key, "_graph.json"):
			dst = &resp.GraphURL
		case strings.HasSuffix(key, "_report.md"):
			dst = &resp.ReportURL
		default:
			continue
		}
		link, err := app.Store.DownloadLink(ctx, key)
		if err != nil {
			logger.Error("[Server] Failed to sign download link", "key", key, "err", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		}
		*dst = link
	}
	if resp.GraphURL != "" {
		resp.Status = "done"
	}

	return c.JSON(http.StatusOK, resp)
}

// DeleteGraphJobHandler removes the upload and the results of a job.
func DeleteGraphJobHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Store == nil {
		return jobsUnavailable(c)
	}

	ctx := c.Request().Context()
	jobID := c.Param("id")
	for _, prefix := range []string{storage.UploadPrefix(jobID), storage.ResultPrefix(jobID)} {
		if err := app.Store.DeleteFolder(ctx, prefix); err != nil {
			logger.Error("[Server] Failed to delete job files", "job", jobID, "prefix", prefix, "err", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		}
	}

	return c.JSON(http.StatusOK, errorResponse{Message: "Job deleted"})
}
