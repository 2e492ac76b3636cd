package pdf

import (
	"context"

	"github.com/deepgraph/backend/pkg/loader"
)

// PDFGraphLoader loads PDF files and extracts their text layer with
// pdftotext. Scanned PDFs without a text layer produce no text.
type PDFGraphLoader struct {
	loader loader.GraphFileLoader
	cache  *loader.Cache
}

// NewPDFGraphLoader creates a PDF loader that reads raw PDF bytes from source.
func NewPDFGraphLoader(source loader.GraphFileLoader) *PDFGraphLoader {
	return &PDFGraphLoader{
		loader: source,
		cache:  loader.NewCache(),
	}
}

// GetFileText extracts text from a PDF file.
func (l *PDFGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}
		return parsePDF(ctx, content)
	})
}
