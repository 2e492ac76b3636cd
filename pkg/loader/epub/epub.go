package epub

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/web"
	"github.com/deepgraph/backend/pkg/logger"
)

// EpubGraphLoader extracts the text of an EPUB book chapter by chapter in
// reading order.
type EpubGraphLoader struct {
	loader loader.GraphFileLoader
	cache  *loader.Cache
}

func NewEpubGraphLoader(source loader.GraphFileLoader) *EpubGraphLoader {
	return &EpubGraphLoader{
		loader: source,
		cache:  loader.NewCache(),
	}
}

func (l *EpubGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}
		return parseEpub(ctx, content)
	})
}

func parseEpub(ctx context.Context, content []byte) ([]byte, error) {
	book, err := openBook(content)
	if err != nil {
		return nil, err
	}

	chapters := make([]string, 0, len(book.chapters))
	for _, chapter := range book.chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := book.read(chapter)
		if err != nil {
			logger.Warn("[Epub] Skipping unreadable chapter", "chapter", chapter, "err", err)
			continue
		}
		text, err := chapterText(raw, chapter)
		if err != nil {
			logger.Warn("[Epub] Skipping unparsable chapter", "chapter", chapter, "err", err)
			continue
		}
		if text != "" {
			chapters = append(chapters, text)
		}
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("epub has no readable chapters")
	}

	return []byte(strings.Join(chapters, "\n\n")), nil
}

// chapterText prefers the readability rendering of a chapter, unless it lost
// more than half of the visible text, which happens on short chapters.
func chapterText(raw []byte, name string) (string, error) {
	visible, err := web.VisibleText(strings.NewReader(string(raw)))
	if err != nil {
		return "", err
	}
	article, err := web.ExtractText(raw, &url.URL{Scheme: "epub", Path: "/" + name})
	if err != nil || len(article)*2 < len(visible) {
		return visible, nil
	}
	return strings.TrimSpace(string(article)), nil
}
