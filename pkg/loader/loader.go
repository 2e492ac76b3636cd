package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deepgraph/backend/pkg/logger"
)

// GraphFile is a document that can be turned into plain text for graph
// construction. The actual content is retrieved through its Loader, which may
// read from disk, object storage or memory and may decode a binary format.
type GraphFile struct {
	ID       string
	FilePath string
	Name     string
	Loader   GraphFileLoader
}

// NewGraphFileParams defines the input parameters for creating a GraphFile.
type NewGraphFileParams struct {
	ID       string
	FilePath string
	Name     string
	Loader   GraphFileLoader
}

// NewGraphDocumentFile creates a GraphFile. When no name is given the base
// name of the path without its extension is used.
func NewGraphDocumentFile(params NewGraphFileParams) GraphFile {
	name := params.Name
	if name == "" {
		name = DisplayName(params.FilePath)
	}
	return GraphFile{
		ID:       params.ID,
		FilePath: params.FilePath,
		Name:     name,
		Loader:   params.Loader,
	}
}

// DisplayName returns the file name of path without directory and extension.
func DisplayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Ext returns the lower case extension of path without the leading dot.
func Ext(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// GetText retrieves the content of the file using its Loader.
//
// Example:
//
//	text, err := file.GetText(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(string(text))
func (f *GraphFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// GraphFileLoader defines the interface for loading the contents of a GraphFile.
// Source loaders return raw bytes; format loaders wrap a source loader and
// return decoded text.
type GraphFileLoader interface {
	GetFileText(ctx context.Context, file GraphFile) ([]byte, error)
}

// LoadText returns the trimmed text of file. Unlike ReadText it reports load
// failures, so callers can tell an unreadable document from an empty one.
func LoadText(ctx context.Context, file GraphFile) (string, error) {
	if file.Loader == nil {
		return "", fmt.Errorf("%s: no loader", file.FilePath)
	}
	content, err := file.GetText(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

// ReadText returns the best effort text of files joined by blank lines.
// A file that cannot be read contributes nothing and the failure is logged,
// so a document that cannot be read at all yields the empty string.
func ReadText(ctx context.Context, files ...GraphFile) string {
	parts := make([]string, 0, len(files))
	for _, file := range files {
		text, err := LoadText(ctx, file)
		if err != nil {
			logger.Warn("[Loader] Failed to read file", "file", file.FilePath, "err", err)
			continue
		}
		if text == "" {
			logger.Debug("[Loader] File has no text", "file", file.FilePath)
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
