package loader_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTextJoinsFiles(t *testing.T) {
	mem := memory.NewMemoryGraphFileLoader()
	mem.Put("a.txt", []byte("  first  "))
	mem.Put("b.txt", []byte("second"))

	text := loader.ReadText(context.Background(),
		loader.GraphFile{FilePath: "a.txt", Loader: mem},
		loader.GraphFile{FilePath: "b.txt", Loader: mem},
	)
	assert.Equal(t, "first\n\nsecond", text)
}

func TestReadTextFailureIsEmpty(t *testing.T) {
	mem := memory.NewMemoryGraphFileLoader()

	assert.Equal(t, "", loader.ReadText(context.Background(),
		loader.GraphFile{FilePath: "missing.pdf", Loader: mem}))
	assert.Equal(t, "", loader.ReadText(context.Background(),
		loader.GraphFile{FilePath: "no-loader.txt"}))
}

func TestReadTextSkipsFailedFile(t *testing.T) {
	mem := memory.NewMemoryGraphFileLoader()
	mem.Put("ok.txt", []byte("kept"))

	text := loader.ReadText(context.Background(),
		loader.GraphFile{FilePath: "missing.txt", Loader: mem},
		loader.GraphFile{FilePath: "ok.txt", Loader: mem},
	)
	assert.Equal(t, "kept", text)
}

func TestLoadTextReportsFailures(t *testing.T) {
	mem := memory.NewMemoryGraphFileLoader()
	mem.Put("blank.txt", []byte(" \n "))

	text, err := loader.LoadText(context.Background(), loader.GraphFile{FilePath: "blank.txt", Loader: mem})
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = loader.LoadText(context.Background(), loader.GraphFile{FilePath: "missing.txt", Loader: mem})
	assert.ErrorContains(t, err, "missing.txt")

	_, err = loader.LoadText(context.Background(), loader.GraphFile{FilePath: "no-loader.txt"})
	assert.Error(t, err)
}

func TestNewGraphDocumentFileName(t *testing.T) {
	f := loader.NewGraphDocumentFile(loader.NewGraphFileParams{FilePath: "/books/The Long March.epub"})
	assert.Equal(t, "The Long March", f.Name)

	f = loader.NewGraphDocumentFile(loader.NewGraphFileParams{FilePath: "x.pdf", Name: "custom"})
	assert.Equal(t, "custom", f.Name)

	assert.Equal(t, "pdf", loader.Ext("A.PDF"))
	assert.Equal(t, "", loader.Ext("README"))
}

func TestCacheSharesLoads(t *testing.T) {
	cache := loader.NewCache()
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := cache.Load("k", func() ([]byte, error) {
				calls.Add(1)
				<-release
				return []byte("v"), nil
			})
			assert.NoError(t, err)
			results[i] = out
		}()
	}
	close(release)
	wg.Wait()

	for _, out := range results {
		assert.Equal(t, "v", string(out))
	}
	assert.LessOrEqual(t, calls.Load(), int32(8))

	before := calls.Load()
	out, err := cache.Load("k", func() ([]byte, error) {
		calls.Add(1)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", string(out))
	assert.Equal(t, before, calls.Load())
}

func TestCacheDoesNotKeepErrors(t *testing.T) {
	cache := loader.NewCache()
	_, err := cache.Load("k", func() ([]byte, error) { return nil, errors.New("boom") })
	require.Error(t, err)

	out, err := cache.Load("k", func() ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
}
