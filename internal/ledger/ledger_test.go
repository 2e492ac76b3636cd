package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentID(t *testing.T) {
	id := DocumentID([]byte("hello"))
	assert.Equal(t, "2cf24dba5fb0", id)
	assert.Equal(t, id, DocumentID([]byte("hello")))
	assert.NotEqual(t, id, DocumentID([]byte("hello!")))
}

func TestLedgerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "processed.json")

	l, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())

	_, ok := l.Lookup("abc")
	assert.False(t, ok)

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, l.Record("abc", Entry{Name: "book", File: "in/book.pdf", Status: "completed", Output: "out/book_graph.json", ProcessedAt: at}))
	require.NoError(t, l.Record("def", Entry{Name: "short", Status: "input_too_short"}))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())

	e, ok := reopened.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, "out/book_graph.json", e.Output)
	assert.True(t, at.Equal(e.ProcessedAt))

	e, ok = reopened.Lookup("def")
	require.True(t, ok)
	assert.False(t, e.ProcessedAt.IsZero())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestOpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}
