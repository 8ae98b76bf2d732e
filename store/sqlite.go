package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/ctxserve/document"
)

// Schema holds the documents table: queryable columns for the fields
// operators filter on, plus the full document JSON for lossless
// round-tripping.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL DEFAULT '',
	format              TEXT NOT NULL DEFAULT '',
	detected_type       TEXT NOT NULL DEFAULT '',
	ingestion_timestamp TEXT NOT NULL DEFAULT '',
	data                TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(detected_type);
`

// SQLitePersister mirrors the document collection into SQLite. Each Save
// replaces the table contents in one transaction, matching the
// full-snapshot contract of the Persister interface.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister creates the persister and its schema.
func NewSQLitePersister(db *sql.DB) (*SQLitePersister, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("sqlite persist: schema: %w", err)
	}
	return &SQLitePersister{db: db}, nil
}

// Save replaces the stored snapshot with docs.
func (p *SQLitePersister) Save(ctx context.Context, docs map[string]*document.Document) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite persist: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("sqlite persist: clear: %w", err)
	}
	for id, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("sqlite persist: marshal %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, title, format, detected_type, ingestion_timestamp, data)
			VALUES (?,?,?,?,?,?)`,
			id, doc.Title, string(doc.Format), string(doc.DetectedType), doc.IngestionTimestamp, string(data)); err != nil {
			return fmt.Errorf("sqlite persist: insert %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite persist: commit: %w", err)
	}
	return nil
}

// Load reads the snapshot back.
func (p *SQLitePersister) Load(ctx context.Context) (map[string]*document.Document, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, data FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("sqlite persist: query: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]*document.Document)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("sqlite persist: scan: %w", err)
		}
		var doc document.Document
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("sqlite persist: unmarshal %s: %w", id, err)
		}
		docs[id] = &doc
	}
	return docs, rows.Err()
}
