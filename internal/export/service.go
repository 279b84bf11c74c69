package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Archiver stores finished export artifacts and returns a download URL.
type Archiver interface {
	Store(ctx context.Context, filename string, blob []byte, contentType string) (string, error)
}

// Mailer delivers a finished export to a list of recipients.
type Mailer interface {
	SendExport(recipients []string, filename, downloadURL, message string) error
}

// Generator indirection, swappable in tests.
var (
	generatePDF  = GeneratePDF
	generateDOCX = GenerateDOCX
)

// Service is the single entry point for exports. It selects the
// generator, validates options, and is the error boundary between
// generators and callers: every call returns a well-formed Result, never
// a raised error.
type Service struct {
	archiver Archiver
	mailer   Mailer
}

// NewService creates an export service. archiver and mailer may be nil;
// the matching post-steps are then skipped.
func NewService(archiver Archiver, mailer Mailer) *Service {
	return &Service{archiver: archiver, mailer: mailer}
}

// ExportDocument validates options, dispatches to the PDF or DOCX
// generator, and normalizes the outcome. Metadata.ProcessingTime is
// always the facade's own stopwatch measurement, overriding anything a
// generator reported.
func (s *Service) ExportDocument(ctx context.Context, doc ProposalDocument, opts Options) Result {
	started := time.Now()
	meta := ResultMetadata{Format: opts.Format, GeneratedAt: started}

	if err := validateOptions(opts); err != nil {
		return failure(meta, CodeValidation, err, started)
	}

	var (
		data *FileData
		err  error
	)
	switch opts.Format {
	case FormatPDF:
		data, err = generatePDF(doc, opts)
	case FormatDOCX:
		data, err = generateDOCX(doc, opts)
	}
	if err != nil {
		return failure(meta, codeFor(opts.Format, err), err, started)
	}

	s.deliver(ctx, data, opts)

	meta.ProcessingTime = time.Since(started)
	return Result{Success: true, Data: data, Metadata: meta}
}

// ExportResearchSession runs the research-session specialization behind
// the same error boundary and timing rules.
func (s *Service) ExportResearchSession(ctx context.Context, session ResearchSession, opts ResearchOptions) Result {
	started := time.Now()
	meta := ResultMetadata{Format: opts.Format, GeneratedAt: started}

	data, err := ExportResearchSession(session, opts)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return failure(meta, CodeValidation, err, started)
		}
		return failure(meta, codeFor(opts.Format, err), err, started)
	}

	meta.ProcessingTime = time.Since(started)
	return Result{Success: true, Data: data, Metadata: meta}
}

// deliver runs optional post-steps. They are hints: a failed archive or
// email never fails an export that already produced its artifact.
func (s *Service) deliver(ctx context.Context, data *FileData, opts Options) {
	delivery := opts.EmailDelivery
	wantEmail := delivery != nil && delivery.Enabled

	var url string
	if s.archiver != nil {
		var err error
		url, err = s.archiver.Store(ctx, data.Filename, data.Blob, opts.Format.MimeType())
		if err != nil {
			log.Printf("export: archive %s: %v", data.Filename, err)
			url = ""
		}
		data.DownloadURL = url
	}

	if wantEmail && s.mailer != nil {
		if err := s.mailer.SendExport(delivery.Recipients, data.Filename, url, delivery.Message); err != nil {
			log.Printf("export: email delivery %s: %v", data.Filename, err)
		}
	}
}

func validateOptions(opts Options) error {
	if opts.Format != FormatPDF && opts.Format != FormatDOCX {
		return validationErr("format", fmt.Sprintf("unsupported format %q", opts.Format))
	}
	if d := opts.EmailDelivery; d != nil && d.Enabled && len(d.Recipients) == 0 {
		return validationErr("emailDelivery.recipients", "email delivery requires at least one recipient")
	}
	return nil
}

func codeFor(format Format, err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return CodeValidation
	}
	if format == FormatDOCX {
		return CodeDOCXGeneration
	}
	return CodePDFGeneration
}

func failure(meta ResultMetadata, code string, err error, started time.Time) Result {
	meta.ProcessingTime = time.Since(started)
	info := &ErrorInfo{Code: code, Message: err.Error()}
	var genErr *GenerationError
	if errors.As(err, &genErr) && genErr.Cause != nil {
		info.Details = genErr.Cause.Error()
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.Field != "" {
		info.Details = map[string]string{"field": vErr.Field}
	}
	return Result{Success: false, Error: info, Metadata: meta}
}
