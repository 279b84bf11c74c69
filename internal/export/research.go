package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	docx "github.com/fumiama/go-docx"
)

// ResearchSession is an exportable query plus its ordered search results.
type ResearchSession struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Query     string         `json:"query"`
	Results   []SearchResult `json:"results"`
	CreatedAt *time.Time     `json:"createdAt,omitempty"`
}

// SearchResult is one hit inside a research session.
type SearchResult struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet"`
	Source         string  `json:"source,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ResearchOptions control a research-session export. ResultsLimit nil
// means unlimited; a supplied value must lie in [1, 1000].
type ResearchOptions struct {
	Format          Format `json:"format"`
	ResultsLimit    *int   `json:"resultsLimit,omitempty"`
	SortByRelevance bool   `json:"sortByRelevance"`
	GroupBySource   bool   `json:"groupBySource"`
	Watermark       string `json:"watermark,omitempty"`
}

// ResultGroup holds the results of a single source, in transform order.
type ResultGroup struct {
	Source  string
	Results []SearchResult
}

const maxResultsLimit = 1000

// ValidateResearchExport checks the preconditions that must hold before
// any generation work begins.
func ValidateResearchExport(session ResearchSession, opts ResearchOptions) error {
	if session.ID == "" {
		return validationErr("id", "session id is required")
	}
	if session.Title == "" {
		return validationErr("title", "session title is required")
	}
	if len(session.Results) == 0 {
		return validationErr("results", "cannot export a session with no results")
	}
	if opts.Format != FormatPDF && opts.Format != FormatDOCX {
		return validationErr("format", fmt.Sprintf("unsupported format %q", opts.Format))
	}
	if opts.ResultsLimit != nil {
		if limit := *opts.ResultsLimit; limit < 1 || limit > maxResultsLimit {
			return validationErr("resultsLimit", fmt.Sprintf("resultsLimit must be between 1 and %d", maxResultsLimit))
		}
	}
	return nil
}

// transformResults applies, in order: truncation to the limit, sort by
// descending relevance, grouping by source. Grouping runs last so it
// operates on the already truncated and sorted set.
func transformResults(results []SearchResult, opts ResearchOptions) []ResultGroup {
	out := make([]SearchResult, len(results))
	copy(out, results)

	if opts.ResultsLimit != nil && len(out) > *opts.ResultsLimit {
		out = out[:*opts.ResultsLimit]
	}

	if opts.SortByRelevance {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RelevanceScore > out[j].RelevanceScore
		})
	}

	if !opts.GroupBySource {
		return []ResultGroup{{Results: out}}
	}

	index := map[string]int{}
	var groups []ResultGroup
	for _, r := range out {
		i, ok := index[r.Source]
		if !ok {
			i = len(groups)
			index[r.Source] = i
			groups = append(groups, ResultGroup{Source: r.Source})
		}
		groups[i].Results = append(groups[i].Results, r)
	}
	return groups
}

// ExportResearchSession renders a research session in the requested
// format. Validation failures return a *ValidationError without invoking
// either generator.
func ExportResearchSession(session ResearchSession, opts ResearchOptions) (*FileData, error) {
	if err := ValidateResearchExport(session, opts); err != nil {
		return nil, err
	}

	groups := transformResults(session.Results, opts)

	if opts.Format == FormatDOCX {
		return researchDOCX(session, groups)
	}
	return researchPDF(session, groups, opts)
}

func researchFilename(title string, format Format, now time.Time) string {
	return "research-session-" + Filename(title, format, now)
}

func researchPDF(session ResearchSession, groups []ResultGroup, opts ResearchOptions) (data *FileData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GenerationError{Format: FormatPDF, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	b := newPDFBuilder(session.Title, Options{Watermark: opts.Watermark})
	pdf := b.pdf
	pdf.AddPage()
	pdf.SetY(pdfMarginTop)
	b.sectionHeading(session.Title)

	if session.Query != "" {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.SetTextColor(90, 90, 90)
		for _, line := range pdf.SplitText(b.tr("Query: "+session.Query), b.contentWidth()) {
			b.ensureSpace(pdfLineHeight)
			pdf.SetX(pdfMarginLeft)
			pdf.CellFormat(b.contentWidth(), pdfLineHeight, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	n := 0
	for _, group := range groups {
		if group.Source != "" {
			b.ensureSpace(pdfHeadingHeight)
			pdf.SetX(pdfMarginLeft)
			pdf.SetFont("Helvetica", "B", 13)
			pdf.SetTextColor(20, 40, 70)
			pdf.CellFormat(b.contentWidth(), pdfHeadingHeight-2, b.tr(group.Source), "", 1, "L", false, 0, "")
		}
		for _, r := range group.Results {
			n++
			b.researchResultPDF(n, r)
		}
	}

	return b.finalizeResearch(session.Title)
}

func (b *pdfBuilder) researchResultPDF(n int, r SearchResult) {
	pdf := b.pdf

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(40, 40, 40)
	for _, line := range pdf.SplitText(b.tr(fmt.Sprintf("%d. %s", n, r.Title)), b.contentWidth()) {
		b.ensureSpace(pdfLineHeight)
		pdf.SetX(pdfMarginLeft)
		pdf.CellFormat(b.contentWidth(), pdfLineHeight, line, "", 1, "L", false, 0, "")
	}

	if r.URL != "" {
		b.ensureSpace(pdfLineHeight)
		pdf.SetX(pdfMarginLeft)
		pdf.SetFont("Helvetica", "U", 9)
		pdf.SetTextColor(30, 80, 160)
		pdf.CellFormat(b.contentWidth(), pdfLineHeight-1, b.tr(r.URL), "", 1, "L", false, 0, r.URL)
	}

	if r.Snippet != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(70, 70, 70)
		for _, line := range pdf.SplitText(b.tr(r.Snippet), b.contentWidth()) {
			b.ensureSpace(pdfLineHeight)
			pdf.SetX(pdfMarginLeft)
			pdf.CellFormat(b.contentWidth(), pdfLineHeight-1, line, "", 1, "L", false, 0, "")
		}
	}

	if trailer := resultTrailer(r); trailer != "" {
		b.ensureSpace(pdfLineHeight)
		pdf.SetX(pdfMarginLeft)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(b.contentWidth(), pdfLineHeight-1, b.tr(trailer), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

// finalizeResearch mirrors finalize but uses the research filename
// pattern.
func (b *pdfBuilder) finalizeResearch(title string) (*FileData, error) {
	data, err := b.finalize(title)
	if err != nil {
		return nil, err
	}
	data.Filename = researchFilename(title, FormatPDF, time.Now())
	return data, nil
}

func researchDOCX(session ResearchSession, groups []ResultGroup) (data *FileData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GenerationError{Format: FormatDOCX, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	w := docx.New().WithDefaultTheme()
	writeDocxHeading(w, session.Title)
	if session.Query != "" {
		w.AddParagraph().AddText("Query: " + session.Query).Size(docxBodySize).Italic().Color(docxMutedColor)
	}

	n := 0
	for _, group := range groups {
		if group.Source != "" {
			w.AddParagraph().AddText(group.Source).Size(docxSubheadSize).Bold().Color(docxAccentColor)
		}
		for _, r := range group.Results {
			n++
			p := w.AddParagraph()
			p.AddText(fmt.Sprintf("%d. %s", n, r.Title)).Size(docxBodySize).Bold().Color(docxBodyColor)
			if r.URL != "" {
				w.AddParagraph().AddLink(r.URL, r.URL)
			}
			if r.Snippet != "" {
				w.AddParagraph().AddText(r.Snippet).Size(docxBodySize).Color(docxBodyColor)
			}
			if trailer := resultTrailer(r); trailer != "" {
				w.AddParagraph().AddText(trailer).Size("18").Italic().Color(docxMutedColor)
			}
			w.AddParagraph()
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, &GenerationError{Format: FormatDOCX, Cause: err}
	}
	blob := buf.Bytes()
	return &FileData{
		Blob:     blob,
		Filename: researchFilename(session.Title, FormatDOCX, time.Now()),
		Size:     len(blob),
	}, nil
}

// resultTrailer builds the "Source: X • Relevance: Y%" line, present when
// either field is.
func resultTrailer(r SearchResult) string {
	switch {
	case r.Source != "" && r.RelevanceScore > 0:
		return fmt.Sprintf("Source: %s • Relevance: %.0f%%", r.Source, r.RelevanceScore*100)
	case r.Source != "":
		return "Source: " + r.Source
	case r.RelevanceScore > 0:
		return fmt.Sprintf("Relevance: %.0f%%", r.RelevanceScore*100)
	}
	return ""
}
