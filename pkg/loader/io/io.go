package io

import (
	"context"
	"fmt"
	"os"

	"github.com/deepgraph/backend/pkg/loader"
)

// DefaultMaxFileSize bounds how much of a single file is read into memory.
const DefaultMaxFileSize = 256 << 20

// IOGraphFileLoader loads files directly from the local filesystem with caching.
type IOGraphFileLoader struct {
	maxSize int64
	cache   *loader.Cache
}

// NewIOGraphFileLoader creates a new filesystem-based file loader.
func NewIOGraphFileLoader() *IOGraphFileLoader {
	return &IOGraphFileLoader{
		maxSize: DefaultMaxFileSize,
		cache:   loader.NewCache(),
	}
}

// GetFileText reads the file content from the filesystem. Results are cached.
func (l *IOGraphFileLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(file.FilePath)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", file.FilePath)
		}
		if info.Size() > l.maxSize {
			return nil, fmt.Errorf("%s too large: %d bytes", file.FilePath, info.Size())
		}
		return os.ReadFile(file.FilePath)
	})
}
