package export

import (
	"sort"
	"strings"
	"time"
)

// Filename derives a download filename from a title: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, leading/trailing hyphens
// trimmed, ISO date appended.
func Filename(title string, format Format, now time.Time) string {
	slug := Slugify(title)
	if slug == "" {
		slug = "document"
	}
	return slug + "-" + now.Format("2006-01-02") + "." + format.Ext()
}

// Slugify lowercases a title and collapses every non-alphanumeric run to
// a single hyphen.
func Slugify(title string) string {
	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return sb.String()
}

// EstimateSize guesses the output size in bytes from the document's text
// volume, used for pre-flight UI hints only.
func EstimateSize(doc ProposalDocument, format Format) int {
	chars := len(doc.Title) + len(doc.Content)
	for _, s := range doc.Sections {
		chars += len(s.Title) + len(s.Content)
	}
	// Fixed container overhead plus per-character cost. DOCX zips its XML
	// so the ratio is lower than PDF's uncompressed text streams.
	if format == FormatDOCX {
		return 8*1024 + chars/2
	}
	return 4*1024 + chars*2
}

var summaryMarkers = []string{"executive summary", "summary", "overview"}

// isExecutiveSummary reports whether a section reads as the executive
// summary. Detection is a substring scan, not a structural marker.
func isExecutiveSummary(s Section) bool {
	title := strings.ToLower(s.Title)
	for _, marker := range summaryMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

// findExecutiveSummary returns the first section matching the summary
// heuristic, or -1. Sections are scanned in rendered (ascending) order.
func findExecutiveSummary(sections []Section) int {
	for i, s := range sections {
		if isExecutiveSummary(s) {
			return i
		}
	}
	return -1
}

// orderedSections returns the sections sorted ascending by Order without
// mutating the input slice.
func orderedSections(sections []Section) []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func statusGlyph(status ChecklistStatus) string {
	if status == StatusComplete {
		return "✓" // check mark
	}
	return "○" // open circle
}

func statusLabel(status ChecklistStatus) string {
	switch status {
	case StatusComplete:
		return "Complete"
	case StatusNotApplicable:
		return "Not applicable"
	default:
		return "Incomplete"
	}
}
