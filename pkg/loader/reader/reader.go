// Package reader picks the format loader for a document by its extension.
package reader

import (
	"fmt"
	"slices"

	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/doc"
	"github.com/deepgraph/backend/pkg/loader/epub"
	"github.com/deepgraph/backend/pkg/loader/pdf"
	"github.com/deepgraph/backend/pkg/loader/text"
	"github.com/deepgraph/backend/pkg/loader/web"
)

// SupportedExtensions lists the document formats that can be read, without
// the leading dot.
var SupportedExtensions = []string{"pdf", "epub", "txt", "md", "docx", "html", "htm"}

// IsSupported reports whether path has a readable document extension.
func IsSupported(path string) bool {
	return slices.Contains(SupportedExtensions, loader.Ext(path))
}

// Reader resolves format loaders on top of one source loader. Format
// loaders are created once so their caches are shared between files.
type Reader struct {
	text *text.TextGraphLoader
	doc  *doc.DocGraphLoader
	pdf  *pdf.PDFGraphLoader
	epub *epub.EpubGraphLoader
	web  *web.WebGraphLoader
}

// NewReader creates a Reader whose format loaders read raw bytes from source.
func NewReader(source loader.GraphFileLoader) *Reader {
	return &Reader{
		text: text.NewTextGraphLoader(source),
		doc:  doc.NewDocGraphLoader(source),
		pdf:  pdf.NewPDFGraphLoader(source),
		epub: epub.NewEpubGraphLoader(source),
		web:  web.NewWebGraphLoaderWithLoader(source),
	}
}

// Loader returns the format loader for path.
func (r *Reader) Loader(path string) (loader.GraphFileLoader, error) {
	switch loader.Ext(path) {
	case "txt", "md":
		return r.text, nil
	case "docx":
		return r.doc, nil
	case "pdf":
		return r.pdf, nil
	case "epub":
		return r.epub, nil
	case "html", "htm":
		return r.web, nil
	}
	return nil, fmt.Errorf("unsupported file type %q", path)
}

// File builds a GraphFile for path with the matching format loader.
func (r *Reader) File(id, path, name string) (loader.GraphFile, error) {
	l, err := r.Loader(path)
	if err != nil {
		return loader.GraphFile{}, err
	}
	return loader.NewGraphDocumentFile(loader.NewGraphFileParams{
		ID:       id,
		FilePath: path,
		Name:     name,
		Loader:   l,
	}), nil
}
