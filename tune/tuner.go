// Package tune assigns importance tiers and ranking weights to document
// sections, and aggregates corpus-wide statistics.
package tune

import (
	"regexp"
	"strings"

	"github.com/hazyhaar/ctxserve/document"
)

// Tier base scores. The fine-grained importance score starts from the
// tier and is refined by position, length and keyword density.
const (
	baseHigh   = 3.0
	baseMedium = 2.0
	baseLow    = 1.0
)

var highTitlePattern = regexp.MustCompile(`(?i)\b(introduction|overview|summary|abstract|definition|definitions|api|endpoint|interface|contract|usage|getting started|installation)\b|^(func|type|class|def)\b`)

var lowTitlePattern = regexp.MustCompile(`(?i)\b(footnote|disclaimer|copyright|license|acknowledg\w*|appendix|changelog|see also|trademark)\b`)

var lowContentPattern = regexp.MustCompile(`(?i)^\s*(//|/\*|#\s|<!--|all rights reserved|this document is provided)`)

// typeKeywords feed the keyword-density signal: sections dense in the
// vocabulary of the detected type score slightly higher.
var typeKeywords = map[document.Type][]string{
	document.TypeLegalContract:    {"shall", "party", "agreement", "liability", "termination"},
	document.TypeTechnicalDoc:     {"configuration", "install", "usage", "requirements", "deploy"},
	document.TypeSourceCode:       {"func", "return", "class", "import", "type"},
	document.TypeResearchPaper:    {"abstract", "method", "results", "dataset", "hypothesis"},
	document.TypeArticle:          {"reported", "according", "published"},
	document.TypeTutorial:         {"step", "first", "next", "install", "example"},
	document.TypeAPIDocumentation: {"endpoint", "request", "response", "parameter", "returns"},
}

// Tune assigns a tier, importance score and weight to every section of
// the document, then rebuilds the denormalized title -> weight map. The
// document is mutated in place and returned; no other state is touched.
//
// Weights are scaled so that at least one section per document reaches
// the neutral baseline of 1.0. Tuning the same sections twice yields
// identical results: the only order dependence is the documented
// position signal.
func Tune(doc *document.Document) *document.Document {
	if len(doc.Sections) == 0 {
		doc.Weights = map[string]float64{}
		return doc
	}

	totalLen := 0
	for _, s := range doc.Sections {
		totalLen += len(s.Content)
	}

	n := len(doc.Sections)
	maxWeight := 0.0
	for i := range doc.Sections {
		sec := &doc.Sections[i]
		sec.Tier = classifyTier(sec)
		sec.ImportanceScore = importance(sec, i, n, totalLen, doc.DetectedType)
		sec.Weight = sec.ImportanceScore * 0.5
		if sec.Weight > maxWeight {
			maxWeight = sec.Weight
		}
	}

	// Guarantee the per-document baseline: the top section is never
	// below neutral weight.
	if maxWeight > 0 && maxWeight < 1.0 {
		scale := 1.0 / maxWeight
		for i := range doc.Sections {
			doc.Sections[i].Weight *= scale
		}
	}

	doc.Weights = make(map[string]float64, n)
	for _, s := range doc.Sections {
		doc.Weights[s.Title] = s.Weight
	}
	return doc
}

func classifyTier(sec *document.Section) document.Tier {
	if strings.TrimSpace(sec.Content) == "" {
		return document.TierLow
	}
	if sec.Title != "" {
		if lowTitlePattern.MatchString(sec.Title) {
			return document.TierLow
		}
		if highTitlePattern.MatchString(sec.Title) {
			return document.TierHigh
		}
	}
	if lowContentPattern.MatchString(sec.Content) {
		return document.TierLow
	}
	return document.TierMedium
}

// importance refines the tier base with three secondary signals: share
// of the document's length (capped), position (earlier sections rank
// slightly higher) and detected-type keyword density.
func importance(sec *document.Section, idx, total, totalLen int, docType document.Type) float64 {
	score := baseLow
	switch sec.Tier {
	case document.TierHigh:
		score = baseHigh
	case document.TierMedium:
		score = baseMedium
	}

	if totalLen > 0 {
		ratio := float64(len(sec.Content)) / float64(totalLen)
		if ratio > 0.3 {
			ratio = 0.3
		}
		score += ratio
	}

	if total > 1 {
		score += 0.5 * (1.0 - float64(idx)/float64(total-1))
	} else {
		score += 0.5
	}

	score += keywordDensity(sec.Content, typeKeywords[docType])

	if strings.TrimSpace(sec.Content) == "" {
		// Content-free sections degrade to the low end instead of
		// failing the pipeline.
		score = 0.1
	}
	return score
}

// keywordDensity returns up to 0.5 extra points for sections dense in
// the detected type's vocabulary.
func keywordDensity(content string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	words := strings.Fields(strings.ToLower(content))
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		for _, kw := range keywords {
			if strings.Contains(w, kw) {
				hits++
				break
			}
		}
	}
	density := float64(hits) / float64(len(words)) * 5.0
	if density > 0.5 {
		density = 0.5
	}
	return density
}
