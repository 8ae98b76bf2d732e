package observability

import (
	"context"
	"testing"

	"github.com/hazyhaar/ctxserve/dbopen"

	_ "modernc.org/sqlite"
)

func TestLogEvent(t *testing.T) {
	// WHAT: Events land in the table with their type and document id.
	db := dbopen.OpenMemory(t)
	l, err := NewEventLogger(db)
	if err != nil {
		t.Fatalf("NewEventLogger: %v", err)
	}
	l.LogEvent(context.Background(), Event{Type: "ingest", DocumentID: "doc-1", Success: true})

	var count int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM operation_events WHERE event_type = 'ingest' AND document_id = 'doc-1'`,
	).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("events = %d, want 1", count)
	}
}

func TestCleanup(t *testing.T) {
	// WHAT: Retention cleanup removes rows past the cutoff only.
	db := dbopen.OpenMemory(t)
	l, err := NewEventLogger(db)
	if err != nil {
		t.Fatalf("NewEventLogger: %v", err)
	}
	// One fresh event, one planted far in the past.
	l.LogEvent(context.Background(), Event{Type: "search", Success: true})
	if _, err := db.Exec(`
		INSERT INTO operation_events (event_id, event_type, created_at)
		VALUES ('evt_old', 'search', 0)`); err != nil {
		t.Fatalf("plant old event: %v", err)
	}

	if err := l.Cleanup(context.Background(), 30); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	var count int
	db.QueryRow(`SELECT COUNT(*) FROM operation_events`).Scan(&count)
	if count != 1 {
		t.Errorf("events after cleanup = %d, want 1", count)
	}
}
