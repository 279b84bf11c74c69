package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres (portrait A4).
const (
	pdfMarginLeft   = 20.0
	pdfMarginTop    = 22.0
	pdfMarginRight  = 20.0
	pdfMarginBottom = 22.0

	pdfLineHeight    = 6.0
	pdfHeadingHeight = 9.0
)

// GeneratePDF builds a paginated PDF from a proposal document. Page order
// is fixed: title page, optional table of contents, optional executive
// summary, body sections ascending by Order, optional compliance
// checklist, optional metadata appendix. Any failure inside the builder
// is returned as a *GenerationError carrying the cause; partial output is
// never returned.
func GeneratePDF(doc ProposalDocument, opts Options) (data *FileData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GenerationError{Format: FormatPDF, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	b := newPDFBuilder(doc.Title, opts)

	b.titlePage(doc)

	sections := orderedSections(doc.Sections)

	// The top-level content field is the whole body when no sections
	// exist, and an executive-summary override otherwise. A detected
	// summary section is excluded from the body only when it is the one
	// actually rendered.
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
		b.tableOfContents(sections, summary != "", opts, doc)
	}

	if summary != "" {
		b.contentSection("Executive Summary", summary)
	}

	if len(sections) == 0 && doc.Content != "" {
		b.pdf.AddPage()
		b.pdf.SetY(pdfMarginTop)
		for _, block := range Blocks(doc.Content) {
			b.writeBlock(block)
		}
	}

	for i, s := range sections {
		if i == skip {
			continue
		}
		b.contentSection(s.Title, s.Content)
	}

	if opts.IncludeCompliance && doc.Compliance != nil {
		b.complianceSection(*doc.Compliance)
	}

	if opts.IncludeMetadata && doc.Metadata != nil {
		b.metadataSection(*doc.Metadata)
	}

	return b.finalize(doc.Title)
}

// pdfBuilder tracks the running vertical cursor. Automatic page breaks
// are disabled: every block checks remaining space itself so a single
// section can span as many pages as it needs.
type pdfBuilder struct {
	pdf       *fpdf.Fpdf
	tr        func(string) string
	title     string
	watermark string
	pageW     float64
	pageH     float64
}

func newPDFBuilder(title string, opts Options) *pdfBuilder {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginLeft, pdfMarginTop, pdfMarginRight)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("CareDraft", true)

	w, h := pdf.GetPageSize()
	watermark := opts.Watermark
	if watermark == "" {
		watermark = "CareDraft"
	}
	return &pdfBuilder{
		pdf:       pdf,
		tr:        pdf.UnicodeTranslatorFromDescriptor(""),
		title:     title,
		watermark: watermark,
		pageW:     w,
		pageH:     h,
	}
}

func (b *pdfBuilder) contentWidth() float64 {
	return b.pageW - pdfMarginLeft - pdfMarginRight
}

// ensureSpace inserts a page break when fewer than needed millimetres
// remain above the bottom margin. Called before every heading and every
// wrapped line, not once per section.
func (b *pdfBuilder) ensureSpace(needed float64) {
	if b.pdf.GetY()+needed > b.pageH-pdfMarginBottom {
		b.pdf.AddPage()
		b.pdf.SetY(pdfMarginTop)
	}
}

func (b *pdfBuilder) titlePage(doc ProposalDocument) {
	pdf := b.pdf
	pdf.AddPage()

	pdf.SetY(b.pageH / 3)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(20, 40, 70)
	for _, line := range pdf.SplitText(b.tr(doc.Title), b.contentWidth()) {
		pdf.CellFormat(b.contentWidth(), 12, line, "", 1, "C", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(b.contentWidth(), 8, "Tender Proposal", "", 1, "C", false, 0, "")

	if doc.Metadata != nil {
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "", 11)
		if doc.Metadata.Organization != "" {
			pdf.CellFormat(b.contentWidth(), 6, b.tr(doc.Metadata.Organization), "", 1, "C", false, 0, "")
		}
		if doc.Metadata.Author != "" {
			pdf.CellFormat(b.contentWidth(), 6, b.tr("Prepared by "+doc.Metadata.Author), "", 1, "C", false, 0, "")
		}
		if doc.Metadata.Version != "" {
			pdf.CellFormat(b.contentWidth(), 6, b.tr("Version "+doc.Metadata.Version), "", 1, "C", false, 0, "")
		}
	}
}

func (b *pdfBuilder) tableOfContents(sections []Section, hasSummary bool, opts Options, doc ProposalDocument) {
	b.pdf.AddPage()
	b.pdf.SetY(pdfMarginTop)
	b.sectionHeading("Table of Contents")

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

	b.pdf.SetFont("Helvetica", "", 11)
	b.pdf.SetTextColor(40, 40, 40)
	for i, title := range entries {
		b.ensureSpace(pdfLineHeight)
		b.pdf.SetX(pdfMarginLeft)
		b.pdf.CellFormat(b.contentWidth(), pdfLineHeight,
			b.tr(fmt.Sprintf("%d.  %s", i+1, title)), "", 1, "L", false, 0, "")
	}
}

func (b *pdfBuilder) sectionHeading(title string) {
	b.ensureSpace(pdfHeadingHeight + pdfLineHeight)
	b.pdf.SetX(pdfMarginLeft)
	b.pdf.SetFont("Helvetica", "B", 15)
	b.pdf.SetTextColor(20, 40, 70)
	b.pdf.CellFormat(b.contentWidth(), pdfHeadingHeight, b.tr(title), "", 1, "L", false, 0, "")
	b.pdf.SetDrawColor(20, 40, 70)
	b.pdf.Line(pdfMarginLeft, b.pdf.GetY(), pdfMarginLeft+b.contentWidth(), b.pdf.GetY())
	b.pdf.Ln(3)
}

func (b *pdfBuilder) contentSection(title, content string) {
	b.sectionHeading(title)
	for _, block := range Blocks(content) {
		b.writeBlock(block)
	}
	b.pdf.Ln(4)
}

func (b *pdfBuilder) writeBlock(block Block) {
	pdf := b.pdf
	switch block.Kind {
	case BlockHeading:
		size := 13.0
		if block.Level >= 3 {
			size = 12
		}
		b.ensureSpace(pdfHeadingHeight)
		pdf.SetX(pdfMarginLeft)
		pdf.SetFont("Helvetica", "B", size)
		pdf.SetTextColor(40, 40, 40)
		pdf.CellFormat(b.contentWidth(), pdfHeadingHeight-2, b.tr(block.Text), "", 1, "L", false, 0, "")
	case BlockListItem:
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(40, 40, 40)
		indent := 5.0
		lines := pdf.SplitText(b.tr(block.Text), b.contentWidth()-indent)
		for i, line := range lines {
			b.ensureSpace(pdfLineHeight)
			pdf.SetX(pdfMarginLeft)
			bullet := "   "
			if i == 0 {
				bullet = "-  "
			}
			pdf.CellFormat(indent, pdfLineHeight, bullet, "", 0, "L", false, 0, "")
			pdf.CellFormat(b.contentWidth()-indent, pdfLineHeight, line, "", 1, "L", false, 0, "")
		}
	default:
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(40, 40, 40)
		for _, line := range pdf.SplitText(b.tr(block.Text), b.contentWidth()) {
			b.ensureSpace(pdfLineHeight)
			pdf.SetX(pdfMarginLeft)
			pdf.CellFormat(b.contentWidth(), pdfLineHeight, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
}

func (b *pdfBuilder) complianceSection(c Compliance) {
	pdf := b.pdf
	b.sectionHeading("Compliance Checklist")

	for _, item := range c.Checklist {
		b.ensureSpace(pdfLineHeight)
		pdf.SetX(pdfMarginLeft)

		// ZapfDingbats carries the check glyph the core fonts lack.
		glyph := "m" // open circle
		if item.Status == StatusComplete {
			glyph = "4" // check mark
			pdf.SetTextColor(22, 120, 60)
		} else {
			pdf.SetTextColor(170, 40, 40)
		}
		pdf.SetFont("ZapfDingbats", "", 10)
		pdf.CellFormat(7, pdfLineHeight, glyph, "", 0, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		label := fmt.Sprintf("%s (%s)", item.Item, statusLabel(item.Status))
		lines := pdf.SplitText(b.tr(label), b.contentWidth()-7)
		for i, line := range lines {
			if i > 0 {
				b.ensureSpace(pdfLineHeight)
				pdf.SetX(pdfMarginLeft + 7)
			}
			pdf.CellFormat(b.contentWidth()-7, pdfLineHeight, line, "", 1, "L", false, 0, "")
		}

		if item.Notes != "" {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(110, 110, 110)
			for _, line := range pdf.SplitText(b.tr(item.Notes), b.contentWidth()-7) {
				b.ensureSpace(pdfLineHeight)
				pdf.SetX(pdfMarginLeft + 7)
				pdf.CellFormat(b.contentWidth()-7, pdfLineHeight-1, line, "", 1, "L", false, 0, "")
			}
		}
	}

	if len(c.Requirements) > 0 {
		pdf.Ln(3)
		b.ensureSpace(pdfHeadingHeight)
		pdf.SetX(pdfMarginLeft)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(40, 40, 40)
		pdf.CellFormat(b.contentWidth(), pdfHeadingHeight-2, "Requirements", "", 1, "L", false, 0, "")
		for _, req := range c.Requirements {
			b.writeBlock(Block{Kind: BlockListItem, Text: req})
		}
	}
	pdf.Ln(4)
}

// metadataSection renders the appendix as flat label/value lines. The
// DOCX generator uses a bordered table here instead; the divergence is
// intentional per format.
func (b *pdfBuilder) metadataSection(m Metadata) {
	pdf := b.pdf
	b.sectionHeading("Document Information")

	write := func(label, value string) {
		if value == "" {
			return
		}
		b.ensureSpace(pdfLineHeight)
		pdf.SetX(pdfMarginLeft)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(40, 40, 40)
		pdf.CellFormat(45, pdfLineHeight, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(b.contentWidth()-45, pdfLineHeight, b.tr(value), "", 1, "L", false, 0, "")
	}

	write("Organization", m.Organization)
	write("Author", m.Author)
	if m.CreatedAt != nil {
		write("Created", m.CreatedAt.Format("2 January 2006"))
	}
	if m.LastModified != nil {
		write("Last modified", m.LastModified.Format("2 January 2006"))
	}
	write("Version", m.Version)
}

// finalize stamps the header, footer and watermark across every page
// already generated, then renders the byte stream. Stamping has to run
// last: only then is the total page count known.
func (b *pdfBuilder) finalize(title string) (*FileData, error) {
	pdf := b.pdf
	total := pdf.PageCount()
	generated := time.Now()

	for i := 1; i <= total; i++ {
		pdf.SetPage(i)

		// Header
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.SetXY(pdfMarginLeft, 8)
		pdf.CellFormat(b.contentWidth()/2, 5, b.tr(title), "", 0, "L", false, 0, "")
		pdf.CellFormat(b.contentWidth()/2, 5, "CareDraft", "", 0, "R", false, 0, "")

		// Footer
		pdf.SetXY(pdfMarginLeft, b.pageH-14)
		pdf.CellFormat(b.contentWidth()/2, 5, generated.Format("2 Jan 2006"), "", 0, "L", false, 0, "")
		pdf.CellFormat(b.contentWidth()/2, 5, fmt.Sprintf("Page %d of %d", i, total), "", 0, "R", false, 0, "")

		// Diagonal semi-transparent watermark through the page centre.
		pdf.SetAlpha(0.08, "Normal")
		pdf.SetFont("Helvetica", "B", 54)
		pdf.SetTextColor(80, 80, 80)
		pdf.TransformBegin()
		pdf.TransformRotate(45, b.pageW/2, b.pageH/2)
		width := pdf.GetStringWidth(b.tr(b.watermark))
		pdf.Text(b.pageW/2-width/2, b.pageH/2, b.tr(b.watermark))
		pdf.TransformEnd()
		pdf.SetAlpha(1.0, "Normal")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &GenerationError{Format: FormatPDF, Cause: err}
	}
	blob := buf.Bytes()
	return &FileData{
		Blob:     blob,
		Filename: Filename(title, FormatPDF, generated),
		Size:     len(blob),
	}, nil
}
