// Package extract ranks document sections and packs the best of them
// into a token-budgeted context string.
//
// Effective scores are computed into a working slice, never written back
// to the stored sections: the tuner owns baseline weights, extraction
// only reads them. Query boost and time decay are independent
// multiplicative factors applied before the sort, never interleaved
// with it.
package extract

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/ctxserve/decay"
	"github.com/hazyhaar/ctxserve/document"
	"github.com/hazyhaar/ctxserve/store"
)

// Tunable constants carried over from the service's historical behavior.
// The values have no derivation beyond compatibility; change them only
// together with the callers that budget around them.
const (
	// QueryBoost multiplies the weight of sections whose content
	// contains the query.
	QueryBoost = 1.5
	// TruncateMin is the minimum remaining character budget worth
	// filling with a truncated block.
	TruncateMin = 100
	// CharsPerToken approximates tokens as character count / 4; this is
	// a documented simplification, not a real tokenizer.
	CharsPerToken = 4
	// Ellipsis marks a truncated trailing block.
	Ellipsis = "..."
)

// ErrInvalidBudget rejects non-positive token budgets before any ranking
// work begins.
var ErrInvalidBudget = errors.New("extract: max tokens must be > 0")

// Options controls one extraction call.
type Options struct {
	// Query boosts sections containing it (case-insensitive substring).
	Query string
	// MaxTokens bounds the output at MaxTokens * CharsPerToken characters.
	MaxTokens int
	// EnableTimeDecay attenuates scores by document age.
	EnableTimeDecay bool
	// DecayRate is the attenuation rate in 1/days; only used when decay
	// is enabled.
	DecayRate float64
}

// Metadata describes what one extraction included and why.
type Metadata struct {
	DocumentID       string             `json:"document_id"`
	DocumentType     document.Type      `json:"document_type,omitempty"`
	SectionsUsed     []string           `json:"sections_used"`
	ScoresApplied    map[string]float64 `json:"scores_applied,omitempty"`
	TotalSections    int                `json:"total_sections"`
	SectionsIncluded int                `json:"sections_included"`
	EstimatedTokens  int                `json:"estimated_tokens"`
	DecayFactor      float64            `json:"decay_factor,omitempty"`
	Truncated        bool               `json:"truncated,omitempty"`
	Error            string             `json:"error,omitempty"`
}

// Extractor serves context extraction over a document store.
type Extractor struct {
	store  *store.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithNow overrides the clock, for deterministic decay in tests.
func WithNow(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLogger sets the extraction logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an Extractor reading from s.
func New(s *store.Store, opts ...Option) *Extractor {
	e := &Extractor{store: s, now: time.Now, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// scored pairs a section index with its effective score; sorting this
// side table leaves the document's stored weights untouched.
type scored struct {
	idx   int
	score float64
}

// ExtractContext ranks the document's sections and packs the top of the
// ranking into the character budget.
//
// A missing document id is not a fault: the call returns an empty
// context with an error marker in the metadata. Configuration errors
// (non-positive budget, negative decay rate) are rejected up front.
func (e *Extractor) ExtractContext(id string, opts Options) (string, *Metadata, error) {
	if opts.MaxTokens <= 0 {
		return "", nil, ErrInvalidBudget
	}
	if opts.EnableTimeDecay && opts.DecayRate < 0 {
		return "", nil, decay.ErrNegativeRate
	}

	meta := &Metadata{DocumentID: id, SectionsUsed: []string{}}

	doc, err := e.store.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			meta.Error = "document not found"
			return "", meta, nil
		}
		return "", nil, err
	}

	meta.DocumentType = doc.DetectedType
	meta.TotalSections = len(doc.Sections)

	decayFactor := 1.0
	if opts.EnableTimeDecay {
		if ts, ok := doc.IngestedAt(); ok {
			decayFactor, err = decay.Factor(ts, e.now(), opts.DecayRate)
			if err != nil {
				return "", nil, err
			}
		}
	}
	meta.DecayFactor = decayFactor

	// Both modifiers are applied here, before the sort.
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	ranked := make([]scored, len(doc.Sections))
	meta.ScoresApplied = make(map[string]float64, len(doc.Sections))
	for i, sec := range doc.Sections {
		score := sec.Weight
		if query != "" && strings.Contains(strings.ToLower(sec.Content), query) {
			score *= QueryBoost
		}
		score *= decayFactor
		ranked[i] = scored{idx: i, score: score}
		meta.ScoresApplied[sec.Title] = score
	}

	// Stable: ties keep document order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	context := e.pack(doc, ranked, opts.MaxTokens*CharsPerToken, meta)
	meta.SectionsIncluded = len(meta.SectionsUsed)
	meta.EstimatedTokens = len(context) / CharsPerToken

	e.logger.Debug("context extracted",
		"document_id", id,
		"sections", meta.SectionsIncluded,
		"of", meta.TotalSections,
		"tokens", meta.EstimatedTokens,
		"query", opts.Query != "")
	return context, meta, nil
}

// pack appends ranked sections greedily until the first one that does
// not fully fit; that one may enter truncated if enough budget remains,
// and nothing after it is considered.
func (e *Extractor) pack(doc *document.Document, ranked []scored, budget int, meta *Metadata) string {
	var sb strings.Builder
	remaining := budget

	for _, r := range ranked {
		sec := doc.Sections[r.idx]
		block := renderBlock(sec.Title, sec.Content)
		if len(block) <= remaining {
			sb.WriteString(block)
			meta.SectionsUsed = append(meta.SectionsUsed, sec.Title)
			remaining -= len(block)
			continue
		}
		if remaining > TruncateMin {
			cut := remaining
			// Back off to a rune boundary so truncation never emits
			// an invalid UTF-8 tail.
			for cut > 0 && block[cut]&0xC0 == 0x80 {
				cut--
			}
			sb.WriteString(block[:cut])
			sb.WriteString(Ellipsis)
			meta.SectionsUsed = append(meta.SectionsUsed, sec.Title)
			meta.Truncated = true
		}
		break
	}
	return sb.String()
}

func renderBlock(title, content string) string {
	return "\n## " + title + "\n" + content + "\n"
}
