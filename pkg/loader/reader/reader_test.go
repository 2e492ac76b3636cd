package reader

import (
	"context"
	"testing"

	"github.com/deepgraph/backend/pkg/loader"
	"github.com/deepgraph/backend/pkg/loader/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupported(t *testing.T) {
	for _, path := range []string{"a.pdf", "b.EPUB", "c.txt", "d.md", "e.docx", "f.html"} {
		assert.True(t, IsSupported(path), path)
	}
	for _, path := range []string{"a.doc", "b.png", "README"} {
		assert.False(t, IsSupported(path), path)
	}
}

func TestReaderFile(t *testing.T) {
	mem := memory.NewMemoryGraphFileLoader()
	mem.Put("notes/history.md", []byte("# History\r\n\r\nLine."))
	r := NewReader(mem)

	file, err := r.File("1", "notes/history.md", "")
	require.NoError(t, err)
	assert.Equal(t, "history", file.Name)
	assert.Equal(t, "# History\n\nLine.", loader.ReadText(context.Background(), file))

	_, err = r.File("2", "image.png", "")
	assert.Error(t, err)
}
