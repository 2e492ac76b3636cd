package routes

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/deepgraph/backend/internal/util"
	"github.com/deepgraph/backend/pkg/graph"
	"github.com/deepgraph/backend/pkg/loader/reader"

	"github.com/labstack/echo/v4"
)

const maxUploadSize = 256 << 20

// graphRequest is accepted as JSON or as multipart/form-data. Unset
// overrides keep the server's configured options.
type graphRequest struct {
	Name          string   `json:"name"`
	Text          string   `json:"text"`
	Context       string   `json:"context"`
	FocusKeywords []string `json:"focus_keywords"`

	MinWeight       *int `json:"min_weight" validate:"omitempty,min=0,max=10"`
	TopPerEvent     *int `json:"top_per_event" validate:"omitempty,min=0"`
	SparseThreshold *int `json:"sparse_threshold" validate:"omitempty,min=0"`
	BoundaryBudget  *int `json:"boundary_budget" validate:"omitempty,min=0"`
}

func (r graphRequest) hasOverrides() bool {
	return r.MinWeight != nil || r.TopPerEvent != nil || r.SparseThreshold != nil ||
		r.BoundaryBudget != nil || len(r.FocusKeywords) > 0
}

func (r graphRequest) apply(opts graph.Options) graph.Options {
	if r.MinWeight != nil {
		opts.MinWeight = *r.MinWeight
	}
	if r.TopPerEvent != nil {
		opts.TopPerEvent = *r.TopPerEvent
	}
	if r.SparseThreshold != nil {
		opts.SparseThreshold = *r.SparseThreshold
	}
	if r.BoundaryBudget != nil {
		opts.BoundaryBudget = *r.BoundaryBudget
	}
	if len(r.FocusKeywords) > 0 {
		opts.FocusKeywords = r.FocusKeywords
	}
	return opts
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func formInt(form *multipart.Form, key string) (*int, error) {
	values := form.Value[key]
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(values[0]))
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &v, nil
}

func formString(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// parseGraphRequest binds and validates the request. For multipart requests
// the uploaded files are returned as well.
func parseGraphRequest(c echo.Context) (graphRequest, []*multipart.FileHeader, error) {
	var req graphRequest
	var files []*multipart.FileHeader

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return req, nil, err
		}
		req.Name = formString(form, "name")
		req.Text = formString(form, "text")
		req.Context = formString(form, "context")
		for _, value := range form.Value["focus_keywords"] {
			req.FocusKeywords = append(req.FocusKeywords, util.SplitList(value)...)
		}
		for key, dst := range map[string]**int{
			"min_weight":       &req.MinWeight,
			"top_per_event":    &req.TopPerEvent,
			"sparse_threshold": &req.SparseThreshold,
			"boundary_budget":  &req.BoundaryBudget,
		} {
			v, err := formInt(form, key)
			if err != nil {
				return req, nil, err
			}
			*dst = v
		}
		files = form.File["files"]
	} else if err := c.Bind(&req); err != nil {
		return req, nil, err
	}

	if err := c.Validate(&req); err != nil {
		return req, nil, err
	}
	for _, fh := range files {
		if !reader.IsSupported(fh.Filename) {
			return req, nil, fmt.Errorf("unsupported file type: %s", fh.Filename)
		}
	}
	return req, files, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadSize {
		return nil, fmt.Errorf("%s exceeds the upload limit", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadSize))
}

type errorResponse struct {
	Message string `json:"message"`
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body: " + err.Error()})
}
