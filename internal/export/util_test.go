package export

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^[a-z0-9-]+-\d{4}-\d{2}-\d{2}\.(pdf|docx)$`)

	tests := []struct {
		title    string
		format   Format
		expected string
	}{
		{"Elderly Care Proposal", FormatPDF, "elderly-care-proposal-2026-03-14.pdf"},
		{"Q3 Bid — Final (v2)", FormatDOCX, "q3-bid-final-v2-2026-03-14.docx"},
		{"   Domiciliary Care!!!", FormatPDF, "domiciliary-care-2026-03-14.pdf"},
		{"///", FormatPDF, "document-2026-03-14.pdf"},
		{"", FormatDOCX, "document-2026-03-14.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := Filename(tt.title, tt.format, now)
			if got != tt.expected {
				t.Errorf("Filename(%q) = %q, want %q", tt.title, got, tt.expected)
			}
			if !pattern.MatchString(got) {
				t.Errorf("Filename(%q) = %q does not match the download pattern", tt.title, got)
			}
			if strings.ContainsAny(got, `/\:*?"<>|`) {
				t.Errorf("Filename(%q) = %q contains illegal filesystem characters", tt.title, got)
			}
		})
	}
}

func TestSlugifyCollapsesRuns(t *testing.T) {
	if got := Slugify("A  --  B!!C"); got != "a-b-c" {
		t.Errorf("Slugify = %q, want a-b-c", got)
	}
}

func TestOrderedSections(t *testing.T) {
	input := []Section{
		{Title: "Third", Order: 2},
		{Title: "First", Order: 0},
		{Title: "Second", Order: 1},
	}
	got := orderedSections(input)
	want := []string{"First", "Second", "Third"}
	for i, title := range want {
		if got[i].Title != title {
			t.Fatalf("position %d = %q, want %q", i, got[i].Title, title)
		}
	}
	// Input must not be mutated.
	if input[0].Title != "Third" {
		t.Error("orderedSections mutated its input")
	}
}

func TestFindExecutiveSummary(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
		want     int
	}{
		{"exact", []Section{{Title: "Intro"}, {Title: "Executive Summary"}}, 1},
		{"substring", []Section{{Title: "Project Overview"}}, 0},
		{"case insensitive", []Section{{Title: "SUMMARY OF BID"}}, 0},
		{"none", []Section{{Title: "Staffing"}, {Title: "Pricing"}}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findExecutiveSummary(tt.sections); got != tt.want {
				t.Errorf("findExecutiveSummary = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateSize(t *testing.T) {
	doc := ProposalDocument{
		Title:    "Test",
		Sections: []Section{{Title: "A", Content: strings.Repeat("x", 10000)}},
	}
	pdf := EstimateSize(doc, FormatPDF)
	docxSize := EstimateSize(doc, FormatDOCX)
	if pdf <= 0 || docxSize <= 0 {
		t.Fatal("estimates must be positive")
	}
	if docxSize >= pdf {
		t.Errorf("docx estimate %d should be below pdf estimate %d for text-heavy content", docxSize, pdf)
	}
}
