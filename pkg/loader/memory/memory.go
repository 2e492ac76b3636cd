package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/deepgraph/backend/pkg/loader"
)

// MemoryGraphFileLoader serves file contents held in memory, keyed by
// GraphFile.FilePath. It backs uploads that never touch the filesystem.
type MemoryGraphFileLoader struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryGraphFileLoader() *MemoryGraphFileLoader {
	return &MemoryGraphFileLoader{files: make(map[string][]byte)}
}

// Put stores content under path, replacing any previous content.
func (l *MemoryGraphFileLoader) Put(path string, content []byte) {
	l.mu.Lock()
	l.files[path] = content
	l.mu.Unlock()
}

func (l *MemoryGraphFileLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	content, ok := l.files[file.FilePath]
	if !ok {
		return nil, fmt.Errorf("file %q not found", file.FilePath)
	}
	return content, nil
}
