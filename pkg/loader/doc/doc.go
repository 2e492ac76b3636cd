package doc

import (
	"context"

	"github.com/deepgraph/backend/pkg/loader"
)

const maxPartSize = 50 << 20

// DocGraphLoader extracts the text of Word documents (.docx) read through a
// source loader.
type DocGraphLoader struct {
	source loader.GraphFileLoader
	cache  *loader.Cache
}

func NewDocGraphLoader(source loader.GraphFileLoader) *DocGraphLoader {
	return &DocGraphLoader{
		source: source,
		cache:  loader.NewCache(),
	}
}

// GetFileText returns the paragraphs of the document separated by blank
// lines.
func (l *DocGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		content, err := l.source.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}
		return parseDocx(content)
	})
}
