package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"

	"caredraft/api/internal/ai"
	"caredraft/api/internal/answers"
	"caredraft/api/internal/companies"
	"caredraft/api/internal/export"
	"caredraft/api/internal/factcheck"
	"caredraft/api/internal/revisions"
	"caredraft/api/internal/store"
)

// ProposalStore is the persistence the service needs for exports and
// the answer bank.
type ProposalStore interface {
	GetProposal(ctx context.Context, id string) (store.Proposal, error)
	ListSections(ctx context.Context, proposalID string) ([]store.Section, error)
	ListComplianceItems(ctx context.Context, proposalID string) ([]store.ComplianceItem, error)
	InsertExportRecord(ctx context.Context, rec store.ExportRecord) (store.ExportRecord, error)
	ListExportRecords(ctx context.Context, proposalID string) ([]store.ExportRecord, error)
	GetAnswer(ctx context.Context, id string) (store.Answer, error)
	IncrementAnswerUsage(ctx context.Context, id string) error
	DeleteAnswer(ctx context.Context, id string) error
}

// RevisionLog keeps versioned proposal content.
type RevisionLog interface {
	EnsureRepo(proposalID string, initial revisions.Content, author string) error
	SaveRevision(proposalID string, content revisions.Content, author, message string) (store.CommitInfo, error)
	GetContent(proposalID, revision string) (revisions.Content, store.CommitInfo, error)
	History(proposalID string, limit int) ([]store.CommitInfo, error)
}

// AnswerBank searches stored answers and keeps the search index in
// step with answer writes.
type AnswerBank interface {
	Search(q answers.Query) answers.Response
	Autocomplete(prefix string, limit int) []string
	IndexRecord(r answers.Record)
	DeleteRecord(id string)
}

// ArtifactStore retrieves archived export artifacts.
type ArtifactStore interface {
	Fetch(ctx context.Context, objectName string) ([]byte, error)
}

// FactChecker is the session fact-check state machine.
type FactChecker interface {
	PerformFactCheck(ctx context.Context, req factcheck.Request) (*factcheck.FactCheck, error)
	ClearFactCheck(ctx context.Context, req factcheck.Request) error
	State() (loading bool, current *factcheck.FactCheck, lastErr error)
}

// CompanyDirectory resolves company registration numbers.
type CompanyDirectory interface {
	Lookup(ctx context.Context, number string) (companies.Profile, error)
}

// Service wires the export pipeline, context actions, fact checking,
// the answer bank and company lookups behind one API surface.
type Service struct {
	db        *sql.DB
	store     ProposalStore
	exporter  *export.Service
	revisions RevisionLog
	answers   AnswerBank
	checker   FactChecker
	companies CompanyDirectory
	provider  ai.Provider
	artifacts ArtifactStore
}

// NewService assembles the application service. Optional collaborators
// may be nil; their endpoints then report unavailability.
func NewService(
	db *sql.DB,
	proposals ProposalStore,
	exporter *export.Service,
	revisionLog RevisionLog,
	answerBank AnswerBank,
	checker FactChecker,
	directory CompanyDirectory,
	provider ai.Provider,
	artifacts ArtifactStore,
) *Service {
	return &Service{
		db:        db,
		store:     proposals,
		exporter:  exporter,
		revisions: revisionLog,
		answers:   answerBank,
		checker:   checker,
		companies: directory,
		provider:  provider,
		artifacts: artifacts,
	}
}

// Ping checks database connectivity for readiness probes.
func (s *Service) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// revisionAuthor signs automatic snapshot commits.
const revisionAuthor = "CareDraft"

// ExportProposal loads a stored proposal and runs it through the
// export pipeline. The current content is snapshotted into the
// revision log first; a non-empty revision exports that stored
// snapshot instead of the live content.
func (s *Service) ExportProposal(ctx context.Context, proposalID, revision string, opts export.Options) (export.Result, error) {
	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return export.Result{}, err
	}
	sections, err := s.store.ListSections(ctx, proposalID)
	if err != nil {
		return export.Result{}, err
	}
	items, err := s.store.ListComplianceItems(ctx, proposalID)
	if err != nil {
		return export.Result{}, err
	}

	content := snapshotContent(proposal, sections)
	if s.revisions != nil {
		s.snapshotRevision(proposalID, content)
	}

	if revision != "" && revision != revisions.Latest {
		if s.revisions == nil {
			return export.Result{}, domainError(http.StatusServiceUnavailable, "REVISIONS_UNAVAILABLE", "Revision history not configured", nil)
		}
		stored, _, err := s.revisions.GetContent(proposalID, revision)
		if err != nil {
			return export.Result{}, domainError(http.StatusNotFound, "REVISION_NOT_FOUND",
				fmt.Sprintf("revision %q not found for proposal %s", revision, proposalID), nil)
		}
		content = stored
	}

	created := proposal.CreatedAt
	modified := proposal.UpdatedAt
	doc := export.ProposalDocument{
		ID:      proposal.ID,
		Title:   content.Title,
		Content: content.Body,
		Metadata: &export.Metadata{
			Organization: proposal.ClientName,
			Version:      proposal.Status,
			CreatedAt:    &created,
			LastModified: &modified,
		},
	}
	for _, sec := range content.Sections {
		doc.Sections = append(doc.Sections, export.Section{
			ID:      sec.ID,
			Title:   sec.Title,
			Content: sec.Content,
			Order:   sec.Order,
		})
	}
	if len(items) > 0 {
		compliance := &export.Compliance{}
		for _, item := range items {
			compliance.Checklist = append(compliance.Checklist, export.ChecklistItem{
				Item:   item.Requirement,
				Status: export.ChecklistStatus(item.Status),
				Notes:  item.Notes,
			})
		}
		doc.Compliance = compliance
	}

	result := s.exporter.ExportDocument(ctx, doc, opts)
	if result.Success && result.Data != nil {
		if _, err := s.store.InsertExportRecord(ctx, store.ExportRecord{
			ProposalID:  proposalID,
			Format:      string(opts.Format),
			Filename:    result.Data.Filename,
			SizeBytes:   int64(result.Data.Size),
			DownloadURL: result.Data.DownloadURL,
		}); err != nil {
			log.Printf("app: record export for %s: %v", proposalID, err)
		}
	}
	return result, nil
}

// snapshotRevision makes sure the proposal has a repository and commits
// the current content when it differs from the latest snapshot.
// Revision failures never block an export.
func (s *Service) snapshotRevision(proposalID string, content revisions.Content) {
	if err := s.revisions.EnsureRepo(proposalID, content, revisionAuthor); err != nil {
		log.Printf("app: ensure revisions for %s: %v", proposalID, err)
		return
	}
	latest, _, err := s.revisions.GetContent(proposalID, revisions.Latest)
	if err != nil {
		log.Printf("app: read latest revision for %s: %v", proposalID, err)
		return
	}
	if !revisions.HasChanges(latest, content) {
		return
	}
	if _, err := s.revisions.SaveRevision(proposalID, content, revisionAuthor, "Snapshot before export"); err != nil {
		log.Printf("app: save revision for %s: %v", proposalID, err)
	}
}

func snapshotContent(proposal store.Proposal, sections []store.Section) revisions.Content {
	content := revisions.Content{Title: proposal.Title, Body: proposal.Content}
	for _, sec := range sections {
		content.Sections = append(content.Sections, revisions.SectionContent{
			ID:      sec.ID,
			Title:   sec.Title,
			Content: sec.Content,
			Order:   sec.Position,
		})
	}
	return content
}

// ListProposalExports returns a proposal's export records, newest
// first.
func (s *Service) ListProposalExports(ctx context.Context, proposalID string) ([]store.ExportRecord, error) {
	if _, err := s.store.GetProposal(ctx, proposalID); err != nil {
		return nil, err
	}
	return s.store.ListExportRecords(ctx, proposalID)
}

// FetchExportArtifact retrieves an archived export from object
// storage by its object name.
func (s *Service) FetchExportArtifact(ctx context.Context, objectName string) ([]byte, error) {
	if s.artifacts == nil {
		return nil, domainError(http.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "Export archive not configured", nil)
	}
	return s.artifacts.Fetch(ctx, objectName)
}

// UseAnswer records that an answer was inserted into a proposal: its
// usage count goes up and the search index picks up the new ranking.
func (s *Service) UseAnswer(ctx context.Context, id string) (store.Answer, error) {
	if err := s.store.IncrementAnswerUsage(ctx, id); err != nil {
		return store.Answer{}, err
	}
	answer, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return store.Answer{}, err
	}
	if s.answers != nil {
		s.answers.IndexRecord(answerRecord(answer))
	}
	return answer, nil
}

// DeleteAnswer removes an answer from the bank and its search index.
func (s *Service) DeleteAnswer(ctx context.Context, id string) error {
	if err := s.store.DeleteAnswer(ctx, id); err != nil {
		return err
	}
	if s.answers != nil {
		s.answers.DeleteRecord(id)
	}
	return nil
}

func answerRecord(a store.Answer) answers.Record {
	return answers.Record{
		ID:         a.ID,
		Title:      a.Title,
		Question:   a.Question,
		Body:       a.Body,
		Category:   a.Category,
		Tags:       a.Tags,
		UsageCount: a.UsageCount,
		UpdatedAt:  a.UpdatedAt,
	}
}

// ExportDocument runs an ad-hoc document through the export pipeline.
func (s *Service) ExportDocument(ctx context.Context, doc export.ProposalDocument, opts export.Options) export.Result {
	return s.exporter.ExportDocument(ctx, doc, opts)
}

// ExportResearch exports a research session.
func (s *Service) ExportResearch(ctx context.Context, session export.ResearchSession, opts export.ResearchOptions) export.Result {
	return s.exporter.ExportResearchSession(ctx, session, opts)
}

// ContextAction runs a named text transformation through the AI
// provider and returns the replacement text.
func (s *Service) ContextAction(ctx context.Context, action, text string, params map[string]string) (string, error) {
	if s.provider == nil {
		return "", domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI provider not configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "text is required", nil)
	}

	var system, user string
	if action == "translate" {
		system, user = ai.TranslatePrompt(text, params["target_language"])
	} else {
		var err error
		system, user, err = ai.PromptFor(action, text)
		if err != nil {
			return "", domainError(http.StatusNotFound, "UNKNOWN_ACTION", fmt.Sprintf("unknown action %q", action), nil)
		}
	}

	result, err := s.provider.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("context action %s: %w", action, err)
	}
	return result, nil
}

// PerformFactCheck delegates to the fact-check session.
func (s *Service) PerformFactCheck(ctx context.Context, req factcheck.Request) (*factcheck.FactCheck, error) {
	if s.checker == nil {
		return nil, domainError(http.StatusServiceUnavailable, "FACTCHECK_UNAVAILABLE", "Fact checking not configured", nil)
	}
	return s.checker.PerformFactCheck(ctx, req)
}

// FactCheckState returns the current fact-check session state.
func (s *Service) FactCheckState() (bool, *factcheck.FactCheck, error) {
	if s.checker == nil {
		return false, nil, nil
	}
	return s.checker.State()
}

// ClearFactCheck drops the fact-check state and cached verdict.
func (s *Service) ClearFactCheck(ctx context.Context, req factcheck.Request) error {
	if s.checker == nil {
		return nil
	}
	return s.checker.ClearFactCheck(ctx, req)
}

// SearchAnswers queries the answer bank.
func (s *Service) SearchAnswers(q answers.Query) answers.Response {
	if s.answers == nil {
		return answers.Response{Results: []answers.Result{}, Query: q.Text}
	}
	return s.answers.Search(q)
}

// AutocompleteAnswers suggests answer titles for a prefix.
func (s *Service) AutocompleteAnswers(prefix string, limit int) []string {
	if s.answers == nil {
		return []string{}
	}
	return s.answers.Autocomplete(prefix, limit)
}

// LookupCompany resolves a company registration number.
func (s *Service) LookupCompany(ctx context.Context, number string) (companies.Profile, error) {
	if s.companies == nil {
		return companies.Profile{}, domainError(http.StatusServiceUnavailable, "DIRECTORY_UNAVAILABLE", "Company directory not configured", nil)
	}
	return s.companies.Lookup(ctx, number)
}

// ProposalHistory lists a proposal's revision history, newest first.
func (s *Service) ProposalHistory(ctx context.Context, proposalID string, limit int) ([]store.CommitInfo, error) {
	if s.revisions == nil {
		return []store.CommitInfo{}, nil
	}
	if _, err := s.store.GetProposal(ctx, proposalID); err != nil {
		return nil, err
	}
	return s.revisions.History(proposalID, limit)
}
