// Package factcheck verifies selected proposal text against an AI
// backend, caching verdicts in Redis keyed by the text's content hash.
package factcheck

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// AISource selects where the verification model may draw evidence from.
type AISource string

const (
	SourceLibrary  AISource = "library"
	SourceCreative AISource = "creative"
	SourceInternet AISource = "internet"
)

// Confidence grades how strongly the evidence supports the claim.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CitationStyle formats the returned citations.
type CitationStyle string

const (
	StyleAPA     CitationStyle = "apa"
	StyleMLA     CitationStyle = "mla"
	StyleChicago CitationStyle = "chicago"
)

// Word limits the verdict may be asked to fit.
var wordLimits = map[int]bool{50: true, 100: true, 200: true}

// Source is a piece of supporting or contradicting evidence.
type Source struct {
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Year      int    `json:"year,omitempty"`
}

// FactCheck is a completed verification of one text span.
type FactCheck struct {
	ID               string        `json:"id"`
	TextHash         string        `json:"text_hash"`
	Text             string        `json:"text"`
	Verdict          string        `json:"verdict"`
	Confidence       Confidence    `json:"confidence"`
	AISource         AISource      `json:"ai_source"`
	Sources          []Source      `json:"sources,omitempty"`
	Citations        []string      `json:"citations,omitempty"`
	CitationStyle    CitationStyle `json:"citation_style,omitempty"`
	WordLimit        int           `json:"word_limit,omitempty"`
	IsCached         bool          `json:"is_cached"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Request asks for one text span to be verified.
type Request struct {
	Text          string        `json:"text"`
	AISource      AISource      `json:"ai_source,omitempty"`
	CitationStyle CitationStyle `json:"citation_style,omitempty"`
	WordLimit     int           `json:"word_limit,omitempty"`
}

// Validate checks the request and fills defaults in place.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("text is required")
	}
	if r.AISource == "" {
		r.AISource = SourceLibrary
	}
	switch r.AISource {
	case SourceLibrary, SourceCreative, SourceInternet:
	default:
		return fmt.Errorf("unknown ai_source %q", r.AISource)
	}
	if r.CitationStyle == "" {
		r.CitationStyle = StyleAPA
	}
	switch r.CitationStyle {
	case StyleAPA, StyleMLA, StyleChicago:
	default:
		return fmt.Errorf("unknown citation_style %q", r.CitationStyle)
	}
	if r.WordLimit == 0 {
		r.WordLimit = 100
	}
	if !wordLimits[r.WordLimit] {
		return fmt.Errorf("word_limit must be 50, 100 or 200")
	}
	return nil
}

// TextHash returns the blake2b content hash of a text span.
func TextHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CacheKey identifies the full request shape: the same text checked
// against a different source or style is a distinct cache entry.
func (r Request) CacheKey() string {
	shape := fmt.Sprintf("%s|%s|%s|%d", r.Text, r.AISource, r.CitationStyle, r.WordLimit)
	return TextHash(shape)
}
