// Package structure splits plain document text into titled sections with
// positional boundaries.
//
// Splitting is purely structural: markdown ATX headings, setext underlines,
// numbered/legal heading lines, blank-line paragraph runs, and top-level
// declarations for code. Identical input always yields identical
// boundaries. Text with no discoverable structure is represented as one
// synthetic section spanning the whole content.
package structure

import (
	"regexp"
	"strings"

	"github.com/hazyhaar/ctxserve/document"
)

// Options configures an analysis pass.
type Options struct {
	// Format selects the splitting strategy; FormatCode uses declaration
	// boundaries, everything else uses heading/paragraph cues.
	Format document.Format
	// Title seeds the synthetic section title when no structure is found.
	Title string
}

// Report is the structural view of one document.
type Report struct {
	Sections         []document.Section `json:"sections"`
	HasHeadings      bool               `json:"has_headings"`
	Synthetic        bool               `json:"synthetic"` // single fallback section
	AvgSectionLength float64            `json:"avg_section_length"`
}

var (
	atxHeading      = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	setextUnderline = regexp.MustCompile(`^(={3,}|-{3,})\s*$`)
	numberedHeading = regexp.MustCompile(`^(?:\d+(?:\.\d+)*\.?|Section\s+\d+|SECTION\s+\d+|Article\s+\d+|ARTICLE\s+[IVXLC\d]+)[.:)]?\s+\S.*$`)

	codeDeclaration = regexp.MustCompile(`^(?:func\s|type\s+\w+\s|class\s+\w|def\s+\w|(?:export\s+)?(?:async\s+)?function\s|(?:public|private|protected)\s+(?:static\s+)?\w)`)
)

// Analyze splits content into sections. It never fails on well-formed
// text; malformed or binary input is rejected upstream by ingestion.
func Analyze(content string, opts Options) *Report {
	if strings.TrimSpace(content) == "" {
		return synthetic(content, opts.Title)
	}

	var sections []document.Section
	hasHeadings := false

	if opts.Format == document.FormatCode {
		sections = splitCode(content)
	} else {
		sections, hasHeadings = splitHeadings(content)
		if !hasHeadings {
			sections = splitParagraphs(content)
			// A single paragraph covering the whole text is no structure
			// at all; represent it synthetically, titled from the document.
			if len(sections) == 1 && sections[0].Content == strings.TrimSpace(content) {
				return synthetic(content, opts.Title)
			}
		}
	}

	if len(sections) == 0 {
		return synthetic(content, opts.Title)
	}

	total := 0
	for _, s := range sections {
		total += len(s.Content)
	}
	return &Report{
		Sections:         sections,
		HasHeadings:      hasHeadings,
		AvgSectionLength: float64(total) / float64(len(sections)),
	}
}

func synthetic(content, title string) *Report {
	return &Report{
		Sections: []document.Section{{
			Title:    title,
			Content:  content,
			Weight:   1.0,
			StartPos: 0,
			EndPos:   len(content),
		}},
		Synthetic:        true,
		AvgSectionLength: float64(len(content)),
	}
}

// line is one physical line with its byte offset into the source.
type line struct {
	text  string
	start int
}

func splitLines(content string) []line {
	var lines []line
	off := 0
	for {
		idx := strings.IndexByte(content[off:], '\n')
		if idx < 0 {
			lines = append(lines, line{text: content[off:], start: off})
			break
		}
		lines = append(lines, line{text: content[off : off+idx], start: off})
		off += idx + 1
		if off >= len(content) {
			break
		}
	}
	return lines
}

// splitHeadings cuts content at heading lines. The heading text becomes the
// section title; the body runs until the next heading.
func splitHeadings(content string) ([]document.Section, bool) {
	lines := splitLines(content)
	type cut struct {
		title     string
		lineIdx   int
		bodyStart int // byte offset where the body begins
		start     int // byte offset of the heading line itself
	}
	var cuts []cut

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i].text)
		if m := atxHeading.FindStringSubmatch(trimmed); m != nil {
			cuts = append(cuts, cut{title: m[2], lineIdx: i, start: lines[i].start, bodyStart: lineEnd(content, lines, i)})
			continue
		}
		// Setext: a non-blank line followed by an underline run.
		if i+1 < len(lines) && trimmed != "" && !numberedHeading.MatchString(trimmed) &&
			setextUnderline.MatchString(strings.TrimSpace(lines[i+1].text)) {
			cuts = append(cuts, cut{title: trimmed, lineIdx: i, start: lines[i].start, bodyStart: lineEnd(content, lines, i+1)})
			i++
			continue
		}
		if numberedHeading.MatchString(trimmed) && len(trimmed) <= 120 {
			cuts = append(cuts, cut{title: trimmed, lineIdx: i, start: lines[i].start, bodyStart: lineEnd(content, lines, i)})
		}
	}

	if len(cuts) == 0 {
		return nil, false
	}

	var sections []document.Section

	// Preamble before the first heading.
	if pre := trimSpan(content, 0, cuts[0].start); pre.EndPos > pre.StartPos {
		pre.Title = firstWords(pre.Content)
		sections = append(sections, pre)
	}

	for ci, c := range cuts {
		bodyEnd := len(content)
		if ci+1 < len(cuts) {
			bodyEnd = cuts[ci+1].start
		}
		sec := trimSpan(content, c.bodyStart, bodyEnd)
		sec.Title = c.title
		if sec.EndPos <= sec.StartPos {
			// Heading with no body: the section spans the heading itself.
			sec = trimSpan(content, c.start, c.bodyStart)
			sec.Title = c.title
		}
		sections = append(sections, sec)
	}
	return sections, true
}

// splitParagraphs cuts on blank-line runs when no headings exist.
func splitParagraphs(content string) []document.Section {
	lines := splitLines(content)
	var sections []document.Section
	paraStart := -1

	flush := func(endOff int) {
		if paraStart < 0 {
			return
		}
		sec := trimSpan(content, paraStart, endOff)
		if sec.EndPos > sec.StartPos {
			sec.Title = firstWords(sec.Content)
			sections = append(sections, sec)
		}
		paraStart = -1
	}

	for _, ln := range lines {
		if strings.TrimSpace(ln.text) == "" {
			flush(ln.start)
			continue
		}
		if paraStart < 0 {
			paraStart = ln.start
		}
	}
	flush(len(content))
	return sections
}

// splitCode cuts on top-level declaration lines.
func splitCode(content string) []document.Section {
	lines := splitLines(content)
	var declIdx []int
	for i, ln := range lines {
		if codeDeclaration.MatchString(ln.text) {
			declIdx = append(declIdx, i)
		}
	}
	if len(declIdx) == 0 {
		return nil
	}

	var sections []document.Section
	if pre := trimSpan(content, 0, lines[declIdx[0]].start); pre.EndPos > pre.StartPos {
		pre.Title = firstWords(pre.Content)
		sections = append(sections, pre)
	}
	for di, li := range declIdx {
		end := len(content)
		if di+1 < len(declIdx) {
			end = lines[declIdx[di+1]].start
		}
		sec := trimSpan(content, lines[li].start, end)
		sec.Title = firstWords(strings.TrimSpace(lines[li].text))
		sections = append(sections, sec)
	}
	return sections
}

// lineEnd returns the offset just past line i (after its newline).
func lineEnd(content string, lines []line, i int) int {
	end := lines[i].start + len(lines[i].text)
	if end < len(content) && content[end] == '\n' {
		end++
	}
	return end
}

// trimSpan narrows [start,end) past surrounding whitespace and fills the
// section content from the exact span.
func trimSpan(content string, start, end int) document.Section {
	for start < end && isSpace(content[start]) {
		start++
	}
	for end > start && isSpace(content[end-1]) {
		end--
	}
	return document.Section{
		Content:  content[start:end],
		Weight:   1.0,
		StartPos: start,
		EndPos:   end,
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// firstWords derives a synthetic title from the opening of a span.
func firstWords(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if len(text) > 80 {
		end := 80
		// Back off to a rune boundary so the title stays valid UTF-8.
		for end > 0 && text[end]&0xC0 == 0x80 {
			end--
		}
		cut := text[:end]
		if sp := strings.LastIndexByte(cut, ' '); sp > 40 {
			cut = cut[:sp]
		}
		text = cut
	}
	return text
}
