// Package observability records operational events (ingest, extraction,
// search, deletion) to an SQLite table. Event logging is best-effort:
// failures are logged, never propagated, so a broken event store cannot
// block the document pipeline.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/ctxserve/idgen"
)

// Schema contains the DDL for the operational event table.
const Schema = `
CREATE TABLE IF NOT EXISTS operation_events (
    event_id    TEXT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    document_id TEXT NOT NULL DEFAULT '',
    detail      TEXT NOT NULL DEFAULT '',
    success     INTEGER NOT NULL DEFAULT 1,
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_type_time
    ON operation_events(event_type, created_at DESC);
`

// Event is one domain-level operation to record.
type Event struct {
	Type       string // "ingest", "extract", "search", "delete"
	DocumentID string
	Detail     string // optional JSON
	Success    bool
}

// EventLogger writes operation events and manages retention cleanup.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures an EventLogger.
type Option func(*EventLogger)

// WithIDGenerator sets a custom ID generator for event rows.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by db and applies the schema.
func NewEventLogger(db *sql.DB, opts ...Option) (*EventLogger, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("observability: schema: %w", err)
	}
	l := &EventLogger{db: db, newID: idgen.Prefixed("evt_", idgen.Default)}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// LogEvent records an event. Non-blocking: errors go to slog and do not
// propagate.
func (l *EventLogger) LogEvent(ctx context.Context, event Event) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO operation_events (event_id, event_type, document_id, detail, success, created_at)
		VALUES (?,?,?,?,?,?)`,
		l.newID(), event.Type, event.DocumentID, event.Detail, event.Success, time.Now().Unix())
	if err != nil {
		slog.Error("operation event log failed", "error", err, "event_type", event.Type)
	}
}

// Cleanup deletes events older than days. Zero days means no cleanup.
func (l *EventLogger) Cleanup(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(days*86400)
	if _, err := l.db.ExecContext(ctx,
		`DELETE FROM operation_events WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("observability: cleanup: %w", err)
	}
	return nil
}
