// Package ledger records which documents were already turned into graphs so
// batch runs can skip them.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry describes one processed document.
type Entry struct {
	Name        string    `json:"name"`
	File        string    `json:"file"`
	Status      string    `json:"status"`
	Output      string    `json:"output,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

type ledgerFile struct {
	Documents map[string]Entry `json:"documents"`
}

// Ledger is a JSON file of entries keyed by document id. It is safe for
// concurrent use within one process.
type Ledger struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
}

// DocumentID is the first 12 hex characters of the sha256 of content, so a
// renamed copy of a document is still recognized.
func DocumentID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:12]
}

// Open loads the ledger at path. A missing file is an empty ledger.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var f ledgerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	if f.Documents != nil {
		l.entries = f.Documents
	}
	return l, nil
}

// Lookup returns the entry recorded for id.
func (l *Ledger) Lookup(id string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	return e, ok
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Record stores entry under id and writes the ledger to disk.
func (l *Ledger) Record(id string, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	l.entries[id] = entry
	return l.save()
}

func (l *Ledger) save() error {
	data, err := json.MarshalIndent(ledgerFile{Documents: l.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
