package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hazyhaar/ctxserve/document"
)

// Persister mirrors the full id -> document collection after every
// mutating store call and supplies the same shape back at startup.
// Round-tripping must be lossless for every document field.
type Persister interface {
	Save(ctx context.Context, docs map[string]*document.Document) error
	Load(ctx context.Context) (map[string]*document.Document, error)
}

// JSONPersister writes the collection to a single JSON file, replacing
// it atomically via a temp file + rename.
type JSONPersister struct {
	Path string
}

// NewJSONPersister creates a persister writing to path.
func NewJSONPersister(path string) *JSONPersister {
	return &JSONPersister{Path: path}
}

// Save writes the full collection.
func (p *JSONPersister) Save(_ context.Context, docs map[string]*document.Document) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("persist: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal: %w", err)
	}
	tmp := p.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persist: write: %w", err)
	}
	if err := os.Rename(tmp, p.Path); err != nil {
		return fmt.Errorf("persist: rename: %w", err)
	}
	return nil
}

// Load reads the collection back. A missing file is an empty store, not
// an error.
func (p *JSONPersister) Load(_ context.Context) (map[string]*document.Document, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]*document.Document{}, nil
		}
		return nil, fmt.Errorf("persist: read: %w", err)
	}
	var docs map[string]*document.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("persist: unmarshal: %w", err)
	}
	if docs == nil {
		docs = map[string]*document.Document{}
	}
	return docs, nil
}
