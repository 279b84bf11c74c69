package export

import (
	"bytes"
	"fmt"
	"time"

	docx "github.com/fumiama/go-docx"
)

// Run colors (RRGGBB) and half-point sizes for the DOCX theme.
const (
	docxAccentColor = "14284A"
	docxBodyColor   = "282828"
	docxMutedColor  = "6E6E6E"
	docxGreen       = "167A3C"
	docxRed         = "AA2828"

	docxTitleSize    = "52"
	docxHeadingSize  = "30"
	docxSubheadSize  = "26"
	docxBodySize     = "22"
	docxTableWidthTw = 9000
)

// GenerateDOCX builds a Word document from a proposal. The document model
// defers layout to the consumer, so unlike the PDF path there is no
// manual pagination. Document order matches GeneratePDF; the metadata
// appendix diverges on purpose and renders as a two-column bordered
// table.
func GenerateDOCX(doc ProposalDocument, opts Options) (data *FileData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GenerationError{Format: FormatDOCX, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	w := docx.New().WithDefaultTheme()

	writeDocxTitlePage(w, doc)

	sections := orderedSections(doc.Sections)
	summary := doc.Content
	if len(sections) == 0 {
		summary = ""
	}
	skip := -1
	if summary == "" && len(sections) > 0 {
		if i := findExecutiveSummary(sections); i >= 0 {
			summary = sections[i].Content
			skip = i
		}
	}

	if opts.IncludeTOC {
		writeDocxTOC(w, sections, summary != "", opts, doc)
	}

	if summary != "" {
		writeDocxSection(w, "Executive Summary", summary)
	}

	if len(sections) == 0 && doc.Content != "" {
		writeDocxBlocks(w, doc.Content)
	}

	for i, s := range sections {
		if i == skip {
			continue
		}
		writeDocxSection(w, s.Title, s.Content)
	}

	if opts.IncludeCompliance && doc.Compliance != nil {
		writeDocxCompliance(w, *doc.Compliance)
	}

	if opts.IncludeMetadata && doc.Metadata != nil {
		writeDocxMetadata(w, *doc.Metadata)
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, &GenerationError{Format: FormatDOCX, Cause: err}
	}
	blob := buf.Bytes()
	return &FileData{
		Blob:     blob,
		Filename: Filename(doc.Title, FormatDOCX, time.Now()),
		Size:     len(blob),
	}, nil
}

func writeDocxTitlePage(w *docx.Docx, doc ProposalDocument) {
	title := w.AddParagraph().Justification("center")
	title.AddText(doc.Title).Size(docxTitleSize).Bold().Color(docxAccentColor)

	sub := w.AddParagraph().Justification("center")
	sub.AddText("Tender Proposal").Size(docxSubheadSize).Color(docxMutedColor)

	if m := doc.Metadata; m != nil {
		if m.Organization != "" {
			w.AddParagraph().Justification("center").AddText(m.Organization).Size(docxBodySize)
		}
		if m.Author != "" {
			w.AddParagraph().Justification("center").AddText("Prepared by " + m.Author).Size(docxBodySize)
		}
		if m.Version != "" {
			w.AddParagraph().Justification("center").AddText("Version " + m.Version).Size(docxBodySize)
		}
	}

	w.AddParagraph().AddPageBreaks()
}

func writeDocxTOC(w *docx.Docx, sections []Section, hasSummary bool, opts Options, doc ProposalDocument) {
	writeDocxHeading(w, "Table of Contents")

	entries := make([]string, 0, len(sections)+3)
	if hasSummary {
		entries = append(entries, "Executive Summary")
	}
	for _, s := range sections {
		if hasSummary && isExecutiveSummary(s) {
			continue
		}
		entries = append(entries, s.Title)
	}
	if opts.IncludeCompliance && doc.Compliance != nil {
		entries = append(entries, "Compliance Checklist")
	}
	if opts.IncludeMetadata && doc.Metadata != nil {
		entries = append(entries, "Document Information")
	}

	for i, title := range entries {
		w.AddParagraph().AddText(fmt.Sprintf("%d.  %s", i+1, title)).Size(docxBodySize).Color(docxBodyColor)
	}
	w.AddParagraph().AddPageBreaks()
}

func writeDocxHeading(w *docx.Docx, text string) {
	p := w.AddParagraph()
	p.AddText(text).Size(docxHeadingSize).Bold().Color(docxAccentColor)
}

func writeDocxSection(w *docx.Docx, title, content string) {
	writeDocxHeading(w, title)
	writeDocxBlocks(w, content)
	w.AddParagraph() // spacer
}

func writeDocxBlocks(w *docx.Docx, content string) {
	for _, block := range Blocks(content) {
		switch block.Kind {
		case BlockHeading:
			w.AddParagraph().AddText(block.Text).Size(docxSubheadSize).Bold().Color(docxBodyColor)
		case BlockListItem:
			w.AddParagraph().AddText("-  " + block.Text).Size(docxBodySize).Color(docxBodyColor)
		default:
			w.AddParagraph().AddText(block.Text).Size(docxBodySize).Color(docxBodyColor)
		}
	}
}

// writeDocxCompliance renders each checklist item as a status glyph with
// colored text, plus an italic notes line beneath when present.
func writeDocxCompliance(w *docx.Docx, c Compliance) {
	writeDocxHeading(w, "Compliance Checklist")

	for _, item := range c.Checklist {
		color := docxRed
		if item.Status == StatusComplete {
			color = docxGreen
		}
		p := w.AddParagraph()
		p.AddText(statusGlyph(item.Status) + "  ").Size(docxBodySize).Color(color)
		p.AddText(fmt.Sprintf("%s (%s)", item.Item, statusLabel(item.Status))).Size(docxBodySize).Color(color)

		if item.Notes != "" {
			w.AddParagraph().AddText("    " + item.Notes).Size(docxBodySize).Italic().Color(docxMutedColor)
		}
	}

	if len(c.Requirements) > 0 {
		w.AddParagraph().AddText("Requirements").Size(docxSubheadSize).Bold().Color(docxBodyColor)
		for _, req := range c.Requirements {
			w.AddParagraph().AddText("-  " + req).Size(docxBodySize).Color(docxBodyColor)
		}
	}
	w.AddParagraph()
}

func writeDocxMetadata(w *docx.Docx, m Metadata) {
	writeDocxHeading(w, "Document Information")

	rows := make([][2]string, 0, 5)
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, [2]string{label, value})
		}
	}
	add("Organization", m.Organization)
	add("Author", m.Author)
	if m.CreatedAt != nil {
		add("Created", m.CreatedAt.Format("2 January 2006"))
	}
	if m.LastModified != nil {
		add("Last modified", m.LastModified.Format("2 January 2006"))
	}
	add("Version", m.Version)
	if len(rows) == 0 {
		return
	}

	table := w.AddTable(len(rows), 2, docxTableWidthTw, nil)
	for i, row := range rows {
		cells := table.TableRows[i].TableCells
		cells[0].AddParagraph().AddText(row[0]).Size(docxBodySize).Bold().Color(docxBodyColor)
		cells[1].AddParagraph().AddText(row[1]).Size(docxBodySize).Color(docxBodyColor)
	}
}
