// Package ingest reduces raw document bytes to plain text plus a title,
// then builds the structured Document handed to detection and tuning.
//
// Format support:
//   - pdf      — content-stream text extraction (pure Go, pdfcpu)
//   - html     — sanitize, convert to markdown, keep the <title>
//   - markdown — passthrough
//   - code     — passthrough
//   - text     — passthrough
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/ctxserve/document"
	"github.com/hazyhaar/ctxserve/idgen"
	"github.com/hazyhaar/ctxserve/structure"
)

// Config configures the ingestion pipeline.
type Config struct {
	// MaxBytes is the maximum raw input size (default: 20 MB).
	MaxBytes int `json:"max_bytes" yaml:"max_bytes"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = 20 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Meta carries caller-supplied fields for one ingestion.
type Meta struct {
	Title    string
	Filename string
}

// Pipeline turns raw bytes into structured documents.
type Pipeline struct {
	cfg   Config
	newID idgen.Generator
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIDGenerator sets a custom document ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(p *Pipeline) { p.newID = gen }
}

// New creates a Pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	cfg.defaults()
	p := &Pipeline{cfg: cfg, newID: idgen.Default}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process reduces raw bytes to a structured Document. The detected type
// stays unknown: classification and weight tuning are separate passes
// run by the caller after ingestion.
func (p *Pipeline) Process(ctx context.Context, raw []byte, format document.Format, meta Meta) (*document.Document, error) {
	if len(raw) > p.cfg.MaxBytes {
		return nil, fmt.Errorf("ingest: input too large: %d bytes (max %d)", len(raw), p.cfg.MaxBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		text     string
		title    string
		extra    map[string]string
		analyzed document.Format = format
		err      error
	)

	switch format {
	case document.FormatPDF:
		text, title, extra, err = extractPDF(raw)
		analyzed = document.FormatText
	case document.FormatHTML:
		text, title, err = extractHTML(raw)
		// Sanitized HTML arrives as markdown; split it as such.
		analyzed = document.FormatMarkdown
	case document.FormatMarkdown, document.FormatCode, document.FormatText:
		text = normalizeNewlines(string(raw))
	default:
		return nil, fmt.Errorf("ingest: unsupported format: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", format, err)
	}

	if meta.Title != "" {
		title = meta.Title
	}
	if title == "" {
		title = firstLine(text)
	}

	rep := structure.Analyze(text, structure.Options{Format: analyzed, Title: title})

	doc := &document.Document{
		ID:                 p.newID(),
		Title:              title,
		Content:            text,
		Format:             format,
		DetectedType:       document.TypeUnknown,
		Sections:           rep.Sections,
		Metadata:           document.Metadata{Filename: meta.Filename, Extra: extra},
		IngestionTimestamp: time.Now().UTC().Format(time.RFC3339),
	}

	p.cfg.Logger.Debug("document processed",
		"id", doc.ID, "format", format, "sections", len(doc.Sections), "bytes", len(raw))
	return doc, nil
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// firstLine derives a display title from the first line of text,
// dropping markdown heading markers.
func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(strings.TrimLeft(text, "# "))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
