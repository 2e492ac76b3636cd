package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/text"

	"codeberg.org/readeck/go-readability/v2"
)

const maxBodySize = 32 << 20

// WebGraphLoader extracts readable text from HTML. Paths starting with
// http:// or https:// are fetched; anything else is read through the source
// loader, so local .html files work the same way.
type WebGraphLoader struct {
	source loader.GraphFileLoader
	client *http.Client
	cache  *loader.Cache
}

// NewWebGraphLoader creates a web loader that can only fetch URLs.
func NewWebGraphLoader() *WebGraphLoader {
	return NewWebGraphLoaderWithLoader(nil)
}

// NewWebGraphLoaderWithLoader creates a web loader that reads non-URL paths
// through source.
func NewWebGraphLoaderWithLoader(source loader.GraphFileLoader) *WebGraphLoader {
	return &WebGraphLoader{
		source: source,
		client: http.DefaultClient,
		cache:  loader.NewCache(),
	}
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// GetFileText returns the main article text of an HTML document. Non-HTML
// responses are returned as normalized plain text.
func (l *WebGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		if !isURL(file.FilePath) {
			if l.source == nil {
				return nil, fmt.Errorf("no loader for local path %q", file.FilePath)
			}
			content, err := l.source.GetFileText(ctx, file)
			if err != nil {
				return nil, err
			}
			return ExtractText(content, nil)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.FilePath, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, err
		}
		if !strings.Contains(resp.Header.Get("Content-Type"), "html") {
			return []byte(text.Normalize(body)), nil
		}
		pageURL, err := url.Parse(file.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse url: %w", err)
		}
		return ExtractText(body, pageURL)
	})
}

// ExtractText renders the readable text of an HTML document. When
// readability finds no article the visible text of the whole page is used.
func ExtractText(content []byte, pageURL *url.URL) ([]byte, error) {
	if pageURL == nil {
		pageURL = &url.URL{Scheme: "file", Path: "/"}
	}

	article, err := readability.FromReader(bytes.NewReader(content), pageURL)
	if err == nil {
		var builder strings.Builder
		if err := article.RenderText(&builder); err == nil {
			if rendered := strings.TrimSpace(builder.String()); rendered != "" {
				return []byte(text.Normalize([]byte(rendered))), nil
			}
		}
	}

	plain, err := VisibleText(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return []byte(plain), nil
}
