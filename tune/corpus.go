package tune

import (
	"sort"
	"strings"
	"sync"

	"github.com/hazyhaar/ctxserve/document"
)

// TitleCount is one normalized section-title pattern with its frequency.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// CorpusReport is the descriptive aggregation over all tracked documents.
type CorpusReport struct {
	TotalDocuments   int                       `json:"total_documents"`
	TotalSections    int                       `json:"total_sections"`
	TypeDistribution map[document.Type]int     `json:"type_distribution"`
	AvgWeightByTier  map[document.Tier]float64 `json:"avg_weight_by_tier"`
	CommonTitles     []TitleCount              `json:"common_titles"`
}

// CorpusAnalyzer maintains a running view over documents it is told
// about. It never polls the store: additions and removals arrive through
// explicit notifications, and every report is recomputed on demand from
// the current set.
type CorpusAnalyzer struct {
	mu   sync.RWMutex
	docs map[string]*document.Document
}

// NewCorpusAnalyzer returns an empty analyzer.
func NewCorpusAnalyzer() *CorpusAnalyzer {
	return &CorpusAnalyzer{docs: make(map[string]*document.Document)}
}

// AddDocument registers (or replaces) a document in the corpus view.
func (c *CorpusAnalyzer) AddDocument(doc *document.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[doc.ID] = doc
}

// RemoveDocument drops a document from the corpus view.
func (c *CorpusAnalyzer) RemoveDocument(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, id)
}

// maxCommonTitles bounds the common-title list in a report.
const maxCommonTitles = 10

// AnalyzeCorpus recomputes the full report. Purely descriptive: no
// ranking or decay logic is involved.
func (c *CorpusAnalyzer) AnalyzeCorpus() *CorpusReport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rep := &CorpusReport{
		TotalDocuments:   len(c.docs),
		TypeDistribution: make(map[document.Type]int),
		AvgWeightByTier:  make(map[document.Tier]float64),
	}

	weightSum := map[document.Tier]float64{}
	weightCnt := map[document.Tier]int{}
	titleFreq := map[string]int{}

	for _, doc := range c.docs {
		rep.TypeDistribution[doc.DetectedType]++
		for _, s := range doc.Sections {
			rep.TotalSections++
			if s.Tier != "" {
				weightSum[s.Tier] += s.Weight
				weightCnt[s.Tier]++
			}
			if t := normalizeTitle(s.Title); t != "" {
				titleFreq[t]++
			}
		}
	}

	for tier, cnt := range weightCnt {
		rep.AvgWeightByTier[tier] = weightSum[tier] / float64(cnt)
	}

	rep.CommonTitles = topTitles(titleFreq, maxCommonTitles)
	return rep
}

// normalizeTitle collapses case and whitespace so "Getting Started" and
// "getting  started" count as the same pattern.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// topTitles returns the n most frequent titles, ties broken
// alphabetically for deterministic output.
func topTitles(freq map[string]int, n int) []TitleCount {
	out := make([]TitleCount, 0, len(freq))
	for t, c := range freq {
		out = append(out, TitleCount{Title: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
