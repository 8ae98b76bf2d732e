package structure

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hazyhaar/ctxserve/document"
)

func TestAnalyze_MarkdownHeadings(t *testing.T) {
	// WHAT: ATX headings become section titles with body content.
	// WHY: Markdown is the canonical structured input.
	content := "# Intro\nWelcome text.\n\n## Usage\nRun the tool.\n\n## License\nMIT.\n"
	rep := Analyze(content, Options{Format: document.FormatMarkdown})
	if !rep.HasHeadings {
		t.Fatal("expected HasHeadings")
	}
	if len(rep.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(rep.Sections))
	}
	if rep.Sections[0].Title != "Intro" || rep.Sections[1].Title != "Usage" || rep.Sections[2].Title != "License" {
		t.Errorf("titles = %q %q %q", rep.Sections[0].Title, rep.Sections[1].Title, rep.Sections[2].Title)
	}
	if rep.Sections[1].Content != "Run the tool." {
		t.Errorf("usage content = %q", rep.Sections[1].Content)
	}
}

func TestAnalyze_Offsets(t *testing.T) {
	// WHAT: Section offsets index the exact span in the source content.
	// WHY: Downstream consumers slice the original document by offset.
	content := "# A\nalpha\n\n# B\nbeta\n"
	rep := Analyze(content, Options{Format: document.FormatMarkdown})
	for _, s := range rep.Sections {
		if s.StartPos < 0 || s.EndPos > len(content) || s.StartPos > s.EndPos {
			t.Fatalf("invalid span [%d,%d) for %q", s.StartPos, s.EndPos, s.Title)
		}
		if content[s.StartPos:s.EndPos] != s.Content {
			t.Errorf("span mismatch for %q: %q != %q", s.Title, content[s.StartPos:s.EndPos], s.Content)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	// WHAT: Repeated analysis of the same text yields identical boundaries.
	// WHY: Ranking depends on stable section identity.
	content := "Section 1. Terms\nThe parties agree.\n\nSection 2. Payment\nNet 30.\n"
	a := Analyze(content, Options{})
	b := Analyze(content, Options{})
	if len(a.Sections) != len(b.Sections) {
		t.Fatalf("section counts differ: %d vs %d", len(a.Sections), len(b.Sections))
	}
	for i := range a.Sections {
		if a.Sections[i] != b.Sections[i] {
			t.Errorf("section %d differs across runs", i)
		}
	}
}

func TestAnalyze_NoStructure(t *testing.T) {
	// WHAT: Unstructured prose yields one synthetic section spanning all content.
	// WHY: Documents must never end up with zero sections.
	content := "just one flat run of prose with no breaks"
	rep := Analyze(content, Options{Title: "Flat"})
	if !rep.Synthetic {
		t.Fatal("expected synthetic report")
	}
	s := rep.Sections[0]
	if s.Title != "Flat" || s.StartPos != 0 || s.EndPos != len(content) {
		t.Errorf("synthetic section = %+v", s)
	}
}

func TestAnalyze_Paragraphs(t *testing.T) {
	// WHAT: Without headings, blank-line runs delimit sections.
	// WHY: Plain-text articles still need more than one ranking unit.
	content := "First paragraph here.\n\nSecond paragraph follows.\n\nThird one closes."
	rep := Analyze(content, Options{Format: document.FormatText})
	if rep.HasHeadings {
		t.Error("unexpected headings")
	}
	if len(rep.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(rep.Sections))
	}
	if !strings.HasPrefix(rep.Sections[0].Title, "First paragraph") {
		t.Errorf("synthetic title = %q", rep.Sections[0].Title)
	}
}

func TestAnalyze_Code(t *testing.T) {
	// WHAT: Code splits on top-level declarations.
	// WHY: Each function/type is its own ranking unit.
	content := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n\nfunc helper() int {\n\treturn 1\n}\n"
	rep := Analyze(content, Options{Format: document.FormatCode})
	if len(rep.Sections) != 3 {
		t.Fatalf("sections = %d, want 3 (preamble + 2 funcs)", len(rep.Sections))
	}
	if !strings.HasPrefix(rep.Sections[1].Title, "func main()") {
		t.Errorf("decl title = %q", rep.Sections[1].Title)
	}
}

func TestAnalyze_MultibyteParagraphTitles(t *testing.T) {
	// WHAT: Derived paragraph titles stay valid UTF-8 even when the
	// 80-byte cap lands inside a multibyte rune.
	// WHY: Truncation is byte-based; backing off to a rune boundary keeps
	// titles displayable.
	long := strings.Repeat("日", 40) // 120 bytes; byte 80 falls mid-rune
	content := long + "\n\nsecond paragraph to force the paragraph splitter"
	rep := Analyze(content, Options{Format: document.FormatText})
	if len(rep.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(rep.Sections))
	}
	for _, s := range rep.Sections {
		if !utf8.ValidString(s.Title) {
			t.Errorf("title %q is not valid UTF-8", s.Title)
		}
	}
}

func TestAnalyze_Empty(t *testing.T) {
	// WHAT: Empty content still yields exactly one section.
	// WHY: The non-empty-sections invariant holds even for degenerate input.
	rep := Analyze("", Options{Title: "Empty"})
	if len(rep.Sections) != 1 || !rep.Synthetic {
		t.Fatalf("report = %+v", rep)
	}
}
