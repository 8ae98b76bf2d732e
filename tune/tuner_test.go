package tune

import (
	"testing"

	"github.com/hazyhaar/ctxserve/document"
)

func sampleDoc() *document.Document {
	return &document.Document{
		ID:           "d1",
		DetectedType: document.TypeTechnicalDoc,
		Sections: []document.Section{
			{Title: "Overview", Content: "Install and configure the service for usage in production deployments."},
			{Title: "Details", Content: "The body explains the internal logic in ordinary prose over a few sentences."},
			{Title: "License", Content: "Copyright notice. All rights reserved."},
		},
	}
}

func TestTune_Tiers(t *testing.T) {
	// WHAT: Heading-like titles go HIGH, prose goes MEDIUM, boilerplate goes LOW.
	// WHY: Tiers drive the coarse ranking bucket per section.
	doc := Tune(sampleDoc())
	if got := doc.Sections[0].Tier; got != document.TierHigh {
		t.Errorf("overview tier = %s, want high", got)
	}
	if got := doc.Sections[1].Tier; got != document.TierMedium {
		t.Errorf("details tier = %s, want medium", got)
	}
	if got := doc.Sections[2].Tier; got != document.TierLow {
		t.Errorf("license tier = %s, want low", got)
	}
}

func TestTune_WeightsOrdering(t *testing.T) {
	// WHAT: Weight is monotone in importance: HIGH > MEDIUM > LOW here.
	// WHY: The extractor ranks purely on these weights.
	doc := Tune(sampleDoc())
	w := doc.Sections
	if !(w[0].Weight > w[1].Weight && w[1].Weight > w[2].Weight) {
		t.Errorf("weights = %f %f %f, want strictly decreasing", w[0].Weight, w[1].Weight, w[2].Weight)
	}
	for _, s := range w {
		if s.Weight < 0 {
			t.Errorf("negative weight for %q", s.Title)
		}
	}
}

func TestTune_BaselineWeight(t *testing.T) {
	// WHAT: At least one section per document reaches weight >= 1.0.
	// WHY: Cross-document ranking needs a neutral per-document baseline.
	doc := Tune(sampleDoc())
	max := 0.0
	for _, s := range doc.Sections {
		if s.Weight > max {
			max = s.Weight
		}
	}
	if max < 1.0 {
		t.Errorf("max weight = %f, want >= 1.0", max)
	}
}

func TestTune_WeightsMapMirrorsSections(t *testing.T) {
	// WHAT: The denormalized map matches per-section weights after tuning.
	// WHY: External reporting reads the map; sections stay authoritative.
	doc := Tune(sampleDoc())
	for _, s := range doc.Sections {
		if doc.Weights[s.Title] != s.Weight {
			t.Errorf("weights[%q] = %f, want %f", s.Title, doc.Weights[s.Title], s.Weight)
		}
	}
}

func TestTune_Deterministic(t *testing.T) {
	// WHAT: Tuning identical input twice yields identical weights.
	// WHY: No hidden order dependence beyond the position signal.
	a := Tune(sampleDoc())
	b := Tune(sampleDoc())
	for i := range a.Sections {
		if a.Sections[i].Weight != b.Sections[i].Weight {
			t.Errorf("section %d: %f vs %f", i, a.Sections[i].Weight, b.Sections[i].Weight)
		}
	}
}

func TestTune_PositionSignal(t *testing.T) {
	// WHAT: With identical sections, the earlier one scores higher.
	// WHY: Earlier placement is a documented importance signal.
	doc := &document.Document{
		Sections: []document.Section{
			{Title: "A", Content: "same body text for both sections"},
			{Title: "B", Content: "same body text for both sections"},
		},
	}
	Tune(doc)
	if doc.Sections[0].Weight <= doc.Sections[1].Weight {
		t.Errorf("weights = %f vs %f, want first higher", doc.Sections[0].Weight, doc.Sections[1].Weight)
	}
}

func TestTune_EmptySectionDegrades(t *testing.T) {
	// WHAT: A section with no content lands at the low end, not in a crash.
	// WHY: Heuristic failures degrade gracefully.
	doc := &document.Document{
		Sections: []document.Section{
			{Title: "Body", Content: "real content that carries the document"},
			{Title: "Ghost", Content: "   "},
		},
	}
	Tune(doc)
	if doc.Sections[1].Tier != document.TierLow {
		t.Errorf("ghost tier = %s, want low", doc.Sections[1].Tier)
	}
	if doc.Sections[1].Weight >= doc.Sections[0].Weight {
		t.Errorf("ghost weight %f >= body weight %f", doc.Sections[1].Weight, doc.Sections[0].Weight)
	}
}

func TestTune_NoSections(t *testing.T) {
	// WHAT: A sectionless document gets an empty weights map, no panic.
	doc := &document.Document{ID: "empty"}
	Tune(doc)
	if doc.Weights == nil || len(doc.Weights) != 0 {
		t.Errorf("weights = %v, want empty map", doc.Weights)
	}
}
