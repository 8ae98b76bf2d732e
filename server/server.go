// Package server exposes the context engine over HTTP (chi router) and
// MCP. Handlers compose the ingestion pipeline, the type detector, the
// weight tuner, the document store and the context extractor; the
// package holds no ranking logic of its own.
package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/ctxserve/config"
	"github.com/hazyhaar/ctxserve/detect"
	"github.com/hazyhaar/ctxserve/document"
	"github.com/hazyhaar/ctxserve/extract"
	"github.com/hazyhaar/ctxserve/ingest"
	"github.com/hazyhaar/ctxserve/observability"
	"github.com/hazyhaar/ctxserve/store"
	"github.com/hazyhaar/ctxserve/tune"
)

// Version reported by the service info and health endpoints.
const Version = "1.0.0"

// Server wires the engine components behind the HTTP surface.
type Server struct {
	cfg       *config.Config
	store     *store.Store
	pipeline  *ingest.Pipeline
	extractor *extract.Extractor
	corpus    *tune.CorpusAnalyzer
	events    *observability.EventLogger
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithEventLogger enables operation event recording. Without it events
// are silently skipped.
func WithEventLogger(l *observability.EventLogger) Option {
	return func(s *Server) { s.events = l }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New assembles a Server over the given components. The corpus analyzer
// is seeded from documents already in the store, so restarts keep
// corpus analytics consistent with persisted state.
func New(cfg *config.Config, st *store.Store, pipeline *ingest.Pipeline, extractor *extract.Extractor, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		pipeline:  pipeline,
		extractor: extractor,
		corpus:    tune.NewCorpusAnalyzer(),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	for _, doc := range st.ListAll() {
		s.corpus.AddDocument(doc)
	}
	return s
}

// Router builds the chi router with all endpoints and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(traceRequests(s.logger))
	r.Use(securityHeaders)
	r.Use(maxBody(int64(s.cfg.Ingest.MaxBytes) + 1024*1024))

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)

	r.Post("/ingest", s.handleIngest)
	r.Get("/documents", s.handleListDocuments)
	r.Get("/documents/{id}", s.handleGetDocument)
	r.Delete("/documents/{id}", s.handleDeleteDocument)

	r.Post("/context/{id}", s.handleContext)
	r.Get("/analyze/{id}", s.handleAnalyze)
	r.Get("/corpus/analyze", s.handleCorpusAnalyze)
	r.Get("/search", s.handleSearch)

	return r
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{
		"service": "ctxserve",
		"version": Version,
		"endpoints": []string{
			"POST /ingest",
			"GET /documents",
			"GET /documents/{id}",
			"DELETE /documents/{id}",
			"POST /context/{id}",
			"GET /analyze/{id}",
			"GET /corpus/analyze",
			"GET /search",
			"GET /health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{
		"status":    "ok",
		"documents": s.store.Len(),
	})
}

// ingestRequest is the POST /ingest body. Text formats send content
// directly; binary formats (pdf) send content_base64.
type ingestRequest struct {
	Content       string `json:"content"`
	ContentBase64 string `json:"content_base64"`
	Format        string `json:"format"`
	Title         string `json:"title"`
	Filename      string `json:"filename"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}

	raw := []byte(req.Content)
	if req.ContentBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			writeError(w, 400, fmt.Errorf("content_base64: %w", err))
			return
		}
		raw = decoded
	}
	if len(raw) == 0 {
		writeError(w, 400, errors.New("content is required"))
		return
	}

	format, err := parseFormat(req.Format)
	if err != nil {
		writeError(w, 400, err)
		return
	}

	doc, err := s.pipeline.Process(r.Context(), raw, format, ingest.Meta{
		Title:    req.Title,
		Filename: req.Filename,
	})
	if err != nil {
		writeError(w, 422, err)
		return
	}

	// Classification and weight tuning run as separate passes over the
	// structured document.
	result := detect.Classify(doc)
	doc.DetectedType = result.Type
	doc = tune.Tune(doc)

	if err := s.store.Add(r.Context(), doc); err != nil {
		writeError(w, 500, err)
		return
	}
	s.corpus.AddDocument(doc)
	s.logEvent(r, observability.Event{Type: "ingest", DocumentID: doc.ID, Detail: string(doc.DetectedType), Success: true})

	writeJSON(w, 201, map[string]any{
		"id":            doc.ID,
		"title":         doc.Title,
		"format":        doc.Format,
		"detected_type": doc.DetectedType,
		"confident":     result.Confident,
		"sections":      len(doc.Sections),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	var docs []*document.Document
	if t := r.URL.Query().Get("type"); t != "" {
		docs = s.store.ListByType(document.Type(t))
	} else {
		docs = s.store.ListAll()
	}

	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, summarize(doc))
	}
	writeJSON(w, 200, map[string]any{"documents": out, "count": len(out)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.corpus.RemoveDocument(id)
	s.logEvent(r, observability.Event{Type: "delete", DocumentID: id, Success: true})
	writeJSON(w, 200, map[string]string{"status": "deleted", "id": id})
}

// contextRequest is the POST /context/{id} body. Zero values fall back
// to the configured extraction defaults.
type contextRequest struct {
	Query           string  `json:"query"`
	MaxTokens       int     `json:"max_tokens"`
	EnableTimeDecay bool    `json:"enable_time_decay"`
	DecayRate       float64 `json:"decay_rate"`
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req := contextRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = s.cfg.Extract.DefaultMaxTokens
	}
	if req.EnableTimeDecay && req.DecayRate == 0 {
		req.DecayRate = s.cfg.Extract.DefaultDecayRate
	}

	context, meta, err := s.extractor.ExtractContext(id, extract.Options{
		Query:           req.Query,
		MaxTokens:       req.MaxTokens,
		EnableTimeDecay: req.EnableTimeDecay,
		DecayRate:       req.DecayRate,
	})
	if err != nil {
		writeError(w, 400, err)
		return
	}
	s.logEvent(r, observability.Event{Type: "extract", DocumentID: id, Detail: req.Query, Success: meta.Error == ""})

	writeJSON(w, 200, map[string]any{
		"context":  context,
		"metadata": meta,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"id":             doc.ID,
		"classification": detect.Classify(doc),
		"structure":      detect.DetectStructure(doc),
	})
}

func (s *Server) handleCorpusAnalyze(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, s.corpus.AnalyzeCorpus())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, 400, errors.New("q is required"))
		return
	}
	// Historical defaults: recency-aware ranking is on unless the caller
	// turns it off, at one unit of decay per day.
	enableDecay := queryBool(r, "enable_time_decay", true)
	rate := queryFloat(r, "decay_rate", 1.0)

	docs, err := s.store.Search(q, enableDecay, rate)
	if err != nil {
		writeError(w, 400, err)
		return
	}
	s.logEvent(r, observability.Event{Type: "search", Detail: q, Success: true})

	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		sum := summarize(doc)
		sum["search_score"] = doc.Metadata.SearchScore
		if enableDecay {
			sum["decay_factor"] = doc.Metadata.DecayFactor
		}
		out = append(out, sum)
	}
	writeJSON(w, 200, map[string]any{
		"query":             q,
		"enable_time_decay": enableDecay,
		"decay_rate":        rate,
		"results":           out,
		"count":             len(out),
	})
}

// --- Helpers ---

func summarize(doc *document.Document) map[string]any {
	return map[string]any{
		"id":                  doc.ID,
		"title":               doc.Title,
		"format":              doc.Format,
		"detected_type":       doc.DetectedType,
		"sections":            len(doc.Sections),
		"ingestion_timestamp": doc.IngestionTimestamp,
	}
}

func parseFormat(s string) (document.Format, error) {
	switch document.Format(s) {
	case document.FormatPDF, document.FormatHTML, document.FormatCode,
		document.FormatMarkdown, document.FormatText:
		return document.Format(s), nil
	case "":
		return document.FormatText, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return 404
	}
	return 500
}

func (s *Server) logEvent(r *http.Request, event Event) {
	if s.events == nil {
		return
	}
	s.events.LogEvent(r.Context(), event)
}

// Event aliases the observability record so handlers read naturally.
type Event = observability.Event

func queryBool(r *http.Request, key string, def bool) bool {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
