// Package detect classifies documents into a fixed set of types.
//
// Classification is signature-based: every candidate type owns a scoring
// rule (keywords, title markers, structural patterns) evaluated against
// the document content and its section titles. The highest aggregate
// score wins; ties are broken by an explicit priority order, and a score
// below the confidence threshold resolves to TypeUnknown. Ambiguity is a
// signal, not an error.
package detect

import (
	"regexp"
	"strings"

	"github.com/hazyhaar/ctxserve/document"
	"github.com/hazyhaar/ctxserve/structure"
)

// MinConfidence is the minimum aggregate signature score a type must
// reach; below it the document stays TypeUnknown.
const MinConfidence = 3.0

// Result reports a classification with its full score table, so callers
// can surface confidence instead of a bare label.
type Result struct {
	Type      document.Type             `json:"type"`
	Score     float64                   `json:"score"`
	Confident bool                      `json:"confident"`
	Scores    map[document.Type]float64 `json:"scores"`
}

// signature is one pure scoring rule. Keywords are counted in the lowered
// content (occurrences capped so one repeated word cannot dominate),
// title markers are matched against section titles, and patterns capture
// structural cues keywords cannot express.
type signature struct {
	keywords []string
	titles   []string
	patterns []*regexp.Regexp
}

const keywordCap = 3

var signatures = map[document.Type]signature{
	document.TypeLegalContract: {
		keywords: []string{"whereas", "hereinafter", "agreement", "shall", "party", "parties", "liability", "termination", "governing law"},
		titles:   []string{"terms", "conditions", "obligations", "warranty", "indemnification"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:section|article)\s+\d+`),
			regexp.MustCompile(`(?i)\bin witness whereof\b`),
		},
	},
	document.TypeAPIDocumentation: {
		keywords: []string{"endpoint", "request", "response", "parameters", "authentication", "api key", "status code", "payload"},
		titles:   []string{"endpoints", "authentication", "errors", "rate limits", "api reference"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:GET|POST|PUT|PATCH|DELETE)\s+/\S*`),
			regexp.MustCompile(`(?i)\bcontent-type:\s*application/json\b`),
		},
	},
	document.TypeSourceCode: {
		keywords: []string{"return", "import", "public", "private", "void", "package"},
		titles:   []string{},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*(?:func|def|class)\s+\w+`),
			regexp.MustCompile(`(?m)^\s*(?:import|from|#include|package)\s+\S+`),
			regexp.MustCompile(`[{};]\s*$`),
		},
	},
	document.TypeResearchPaper: {
		keywords: []string{"abstract", "methodology", "hypothesis", "dataset", "experiment", "evaluation", "et al"},
		titles:   []string{"abstract", "introduction", "related work", "methodology", "results", "conclusion", "references"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\[\d+\]`),
			regexp.MustCompile(`(?i)\bet al\.`),
			regexp.MustCompile(`(?i)\bdoi:\s*\S+`),
		},
	},
	document.TypeTutorial: {
		keywords: []string{"tutorial", "how to", "first", "next", "finally", "let's", "you will learn", "prerequisites"},
		titles:   []string{"getting started", "prerequisites", "step", "next steps"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bstep\s+\d+\b`),
		},
	},
	document.TypeTechnicalDoc: {
		keywords: []string{"installation", "configuration", "usage", "documentation", "requirements", "overview", "deployment", "troubleshooting"},
		titles:   []string{"installation", "configuration", "usage", "overview", "architecture", "faq"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile("(?m)^```"),
			regexp.MustCompile(`(?im)^\$\s+\w+`),
		},
	},
	document.TypeArticle: {
		keywords: []string{"published", "author", "reported", "according to", "opinion", "editor"},
		titles:   []string{},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bby\s+[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
		},
	},
}

// priority is the explicit tie-break order: more specific types first.
// On equal top scores the earlier entry wins; TypeUnknown never wins a
// tie against a scored type.
var priority = []document.Type{
	document.TypeLegalContract,
	document.TypeAPIDocumentation,
	document.TypeSourceCode,
	document.TypeResearchPaper,
	document.TypeTutorial,
	document.TypeTechnicalDoc,
	document.TypeArticle,
}

// Detect classifies a document. The format hint weighs in only through
// the content itself: code-format documents still have to look like code.
func Detect(doc *document.Document) document.Type {
	return Classify(doc).Type
}

// Classify runs every signature and returns the argmax with the full
// score table.
func Classify(doc *document.Document) *Result {
	lowered := strings.ToLower(doc.Content)
	titles := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		titles = append(titles, strings.ToLower(s.Title))
	}

	res := &Result{
		Type:   document.TypeUnknown,
		Scores: make(map[document.Type]float64, len(signatures)),
	}
	for _, t := range priority {
		score := scoreSignature(doc.Content, lowered, titles, signatures[t])
		res.Scores[t] = score
		// Strict > keeps the priority order authoritative on ties.
		if score > res.Score {
			res.Score = score
			res.Type = t
		}
	}
	if res.Score < MinConfidence {
		res.Type = document.TypeUnknown
		res.Confident = false
		return res
	}
	res.Confident = true
	return res
}

// DetectStructure is a read-only structural query for inspection
// endpoints; ranking does not reuse its output.
func DetectStructure(doc *document.Document) *structure.Report {
	return structure.Analyze(doc.Content, structure.Options{
		Format: doc.Format,
		Title:  doc.Title,
	})
}

func scoreSignature(content, lowered string, titles []string, sig signature) float64 {
	var score float64
	for _, kw := range sig.keywords {
		n := strings.Count(lowered, kw)
		if n > keywordCap {
			n = keywordCap
		}
		score += float64(n)
	}
	for _, tm := range sig.titles {
		for _, title := range titles {
			if strings.Contains(title, tm) {
				score += 2.0
				break
			}
		}
	}
	for _, pat := range sig.patterns {
		n := len(pat.FindAllStringIndex(content, keywordCap+1))
		if n > keywordCap {
			n = keywordCap
		}
		score += 1.5 * float64(n)
	}
	return score
}
