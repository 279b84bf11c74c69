// Package export turns structured proposal and research-session data into
// downloadable PDF and DOCX documents.
package export

import (
	"fmt"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// MimeType returns the MIME type for the format.
func (f Format) MimeType() string {
	if f == FormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatDOCX {
		return "docx"
	}
	return "pdf"
}

// Section is one ordered unit of proposal content.
type Section struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// Metadata holds optional descriptive fields rendered in the appendix.
type Metadata struct {
	Organization string     `json:"organization,omitempty"`
	Author       string     `json:"author,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	Version      string     `json:"version,omitempty"`
}

// ChecklistStatus is the completion state of a compliance item.
type ChecklistStatus string

const (
	StatusComplete      ChecklistStatus = "complete"
	StatusIncomplete    ChecklistStatus = "incomplete"
	StatusNotApplicable ChecklistStatus = "not-applicable"
)

// ChecklistItem is one entry in the compliance checklist.
type ChecklistItem struct {
	Item   string          `json:"item"`
	Status ChecklistStatus `json:"status"`
	Notes  string          `json:"notes,omitempty"`
}

// Compliance carries the checklist and free-form requirements.
type Compliance struct {
	Checklist    []ChecklistItem `json:"checklist"`
	Requirements []string        `json:"requirements"`
}

// ProposalDocument is the exportable representation of a proposal.
// Sections, when present, render in ascending Order; Content is used only
// when no sections exist or as an executive-summary override.
type ProposalDocument struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content,omitempty"`
	Sections   []Section   `json:"sections,omitempty"`
	Metadata   *Metadata   `json:"metadata,omitempty"`
	Compliance *Compliance `json:"compliance,omitempty"`
}

// EmailDelivery requests that the finished export is mailed out.
type EmailDelivery struct {
	Enabled    bool     `json:"enabled"`
	Recipients []string `json:"recipients"`
	Message    string   `json:"message,omitempty"`
}

// Options control an export run. Format is the only contract; the other
// fields are generator hints and a generator may ignore hints it does not
// support.
type Options struct {
	Format            Format         `json:"format"`
	IncludeMetadata   bool           `json:"includeMetadata"`
	IncludeCompliance bool           `json:"includeCompliance"`
	IncludeTOC        bool           `json:"includeTOC"`
	Watermark         string         `json:"watermark,omitempty"`
	EmailDelivery     *EmailDelivery `json:"emailDelivery,omitempty"`
}

// FileData is the produced artifact. DownloadURL is set when the
// artifact was archived to object storage.
type FileData struct {
	Blob        []byte `json:"-"`
	Filename    string `json:"filename"`
	Size        int    `json:"size"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// ErrorInfo describes a failed export.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ResultMetadata is always populated, success or failure. ProcessingTime
// is owned by the facade: whatever a generator reports is overwritten.
type ResultMetadata struct {
	Format         Format        `json:"format"`
	GeneratedAt    time.Time     `json:"generatedAt"`
	ProcessingTime time.Duration `json:"processingTime"`
}

// Result is the single shape every export call site receives.
type Result struct {
	Success  bool           `json:"success"`
	Data     *FileData      `json:"data,omitempty"`
	Error    *ErrorInfo     `json:"error,omitempty"`
	Metadata ResultMetadata `json:"metadata"`
}

// Error codes used in ErrorInfo.Code.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodePDFGeneration  = "PDF_GENERATION_FAILED"
	CodeDOCXGeneration = "DOCX_GENERATION_FAILED"
)

// ValidationError is raised before any generation work begins.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// GenerationError wraps a failure raised mid-generation by a document
// builder, keeping the original cause attached.
type GenerationError struct {
	Format Format
	Cause  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Format, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
