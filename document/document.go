// Package document defines the shared data model for the context engine:
// documents, their structural sections, and the enums describing format,
// detected type and importance tier.
package document

import "time"

// Format identifies the source format a document was ingested from.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatHTML     Format = "html"
	FormatCode     Format = "code"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Type is the document category assigned by the type detector.
type Type string

const (
	TypeLegalContract     Type = "legal_contract"
	TypeTechnicalDoc      Type = "technical_documentation"
	TypeSourceCode        Type = "source_code"
	TypeResearchPaper     Type = "research_paper"
	TypeArticle           Type = "article"
	TypeTutorial          Type = "tutorial"
	TypeAPIDocumentation  Type = "api_documentation"
	TypeUnknown           Type = "unknown"
)

// Tier is a coarse importance bucket for a section.
type Tier string

const (
	TierHigh   Tier = "high"   // titles, headers, definitions, API contracts
	TierMedium Tier = "medium" // body text, function logic
	TierLow    Tier = "low"    // footnotes, comments, disclaimers
)

// Section is a contiguous span of a document's content.
//
// StartPos/EndPos are byte offsets into the parent document's Content,
// with 0 <= StartPos <= EndPos <= len(Content). Weight is the tuned
// baseline ranking weight (always >= 0); ranking-time adjustments such as
// query boosts are computed into separate working slices and never written
// back here.
type Section struct {
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Weight          float64 `json:"weight"`
	Tier            Tier    `json:"tier,omitempty"`
	ImportanceScore float64 `json:"importance_score"`
	StartPos        int     `json:"start_pos"`
	EndPos          int     `json:"end_pos"`
}

// Metadata carries known per-document fields plus a residual map for
// forward-compatible extension.
type Metadata struct {
	Filename    string            `json:"filename,omitempty"`
	SearchScore float64           `json:"search_score,omitempty"` // transient, set by store search
	DecayFactor float64           `json:"decay_factor,omitempty"` // transient, set by store search
	Extra       map[string]string `json:"extra,omitempty"`
}

// Document is one ingested unit.
//
// ID and Format are immutable after ingestion. DetectedType is written
// once by the detector and read thereafter. Sections is in document
// order, never rank order, and is non-empty after successful processing:
// a document with no detected structure carries one synthetic section
// spanning the whole content. Weights is a denormalized title -> weight
// snapshot rebuilt by the weight tuner; the per-section Weight is
// authoritative.
type Document struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Content            string             `json:"content"`
	Format             Format             `json:"format"`
	DetectedType       Type               `json:"detected_type"`
	Sections           []Section          `json:"sections"`
	Weights            map[string]float64 `json:"weights,omitempty"`
	Metadata           Metadata           `json:"metadata"`
	IngestionTimestamp string             `json:"ingestion_timestamp,omitempty"` // RFC 3339
}

// IngestedAt parses the ingestion timestamp. Returns ok=false when the
// timestamp is absent or malformed.
func (d *Document) IngestedAt() (time.Time, bool) {
	if d.IngestionTimestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, d.IngestionTimestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a deep copy. The store hands clones to readers so that
// concurrent tuning never exposes a partially mutated section set.
func (d *Document) Clone() *Document {
	out := *d
	out.Sections = make([]Section, len(d.Sections))
	copy(out.Sections, d.Sections)
	if d.Weights != nil {
		out.Weights = make(map[string]float64, len(d.Weights))
		for k, v := range d.Weights {
			out.Weights[k] = v
		}
	}
	if d.Metadata.Extra != nil {
		out.Metadata.Extra = make(map[string]string, len(d.Metadata.Extra))
		for k, v := range d.Metadata.Extra {
			out.Metadata.Extra[k] = v
		}
	}
	return &out
}
