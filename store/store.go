// Package store keeps the in-memory document collection, serves lookups
// and lexical search, and mirrors every mutation to an optional
// persistence collaborator.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/ctxserve/decay"
	"github.com/hazyhaar/ctxserve/document"
)

// ErrNotFound is returned when a document id is absent from the store.
var ErrNotFound = errors.New("store: document not found")

// Store is the shared mutable document collection. A single store-wide
// RWMutex serializes mutations; readers receive clones so they never
// observe a document mid-tuning.
type Store struct {
	mu        sync.RWMutex
	docs      map[string]*document.Document
	persister Persister
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPersister mirrors the full collection to p after every mutation.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store. When a persister is configured, the collection it
// holds is loaded back so the store survives restarts.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	s := &Store{
		docs:   make(map[string]*document.Document),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.persister != nil {
		docs, err := s.persister.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: load: %w", err)
		}
		for id, doc := range docs {
			s.docs[id] = doc
		}
	}
	return s, nil
}

// Add inserts or replaces a document, then mirrors the collection.
func (s *Store) Add(ctx context.Context, doc *document.Document) error {
	s.mu.Lock()
	s.docs[doc.ID] = doc.Clone()
	s.mu.Unlock()
	return s.persist(ctx)
}

// Get returns a clone of the document, or ErrNotFound.
func (s *Store) Get(id string) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

// Delete removes a document, then mirrors the collection. Deleting an
// unknown id returns ErrNotFound without touching the persister.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.docs[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.docs, id)
	s.mu.Unlock()
	return s.persist(ctx)
}

// ListAll returns clones of every document, ordered by id for
// deterministic output.
func (s *Store) ListAll() []*document.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*document.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListByType returns clones of documents with the given detected type.
func (s *Store) ListByType(t document.Type) []*document.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*document.Document
	for _, doc := range s.docs {
		if doc.DetectedType == t {
			out = append(out, doc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Search finds documents whose content, title or any section title
// contains query (case-insensitive). Matches carry a match-quality score;
// with decay enabled the final score is match_score x decay_factor, so a
// recent weak match can outrank an older strong one. Equal final scores
// are broken by the more recent ingestion timestamp. The returned clones
// carry the transient score and decay factor in their metadata; stored
// documents are never touched.
func (s *Store) Search(query string, enableDecay bool, decayRate float64) ([]*document.Document, error) {
	if decayRate < 0 {
		return nil, decay.ErrNegativeRate
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	now := time.Now()

	s.mu.RLock()
	var matches []*document.Document
	for _, doc := range s.docs {
		score := matchScore(doc, q)
		if score <= 0 {
			continue
		}
		clone := doc.Clone()
		clone.Metadata.SearchScore = score
		clone.Metadata.DecayFactor = 1.0
		if enableDecay {
			if ts, ok := clone.IngestedAt(); ok {
				f, err := decay.Factor(ts, now, decayRate)
				if err != nil {
					s.mu.RUnlock()
					return nil, err
				}
				clone.Metadata.DecayFactor = f
				clone.Metadata.SearchScore = score * f
			}
		}
		matches = append(matches, clone)
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		si, sj := matches[i].Metadata.SearchScore, matches[j].Metadata.SearchScore
		if si != sj {
			return si > sj
		}
		ti, iok := matches[i].IngestedAt()
		tj, jok := matches[j].IngestedAt()
		if iok && jok && !ti.Equal(tj) {
			return ti.After(tj)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// matchScore is the lexical match-quality heuristic: a title hit counts
// most, a section-title hit next, and content occurrences (capped) fill
// in the rest.
func matchScore(doc *document.Document, q string) float64 {
	var score float64
	if strings.Contains(strings.ToLower(doc.Title), q) {
		score += 3.0
	}
	for _, sec := range doc.Sections {
		if strings.Contains(strings.ToLower(sec.Title), q) {
			score += 2.0
			break
		}
	}
	if n := strings.Count(strings.ToLower(doc.Content), q); n > 0 {
		if n > 10 {
			n = 10
		}
		score += 0.5 * float64(n)
	}
	return score
}

// persist snapshots the collection under the read lock and hands it to
// the persister outside any lock, so storage latency never blocks
// concurrent ranking reads.
func (s *Store) persist(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.mu.RLock()
	snapshot := make(map[string]*document.Document, len(s.docs))
	for id, doc := range s.docs {
		snapshot[id] = doc.Clone()
	}
	s.mu.RUnlock()

	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.logger.Error("store persist failed", "error", err, "documents", len(snapshot))
		return fmt.Errorf("store: persist: %w", err)
	}
	return nil
}
