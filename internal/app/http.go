package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"caredraft/api/internal/answers"
	"caredraft/api/internal/export"
	"caredraft/api/internal/factcheck"
	"caredraft/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	parts := splitPath(r.URL.Path)

	// POST /api/proposals/{id}/export
	// GET  /api/proposals/{id}/exports
	// GET  /api/proposals/{id}/history
	if len(parts) == 4 && parts[0] == "api" && parts[1] == "proposals" {
		switch {
		case r.Method == http.MethodPost && parts[3] == "export":
			s.handleProposalExport(w, r, parts[2])
			return
		case r.Method == http.MethodGet && parts[3] == "exports":
			s.handleProposalExportList(w, r, parts[2])
			return
		case r.Method == http.MethodGet && parts[3] == "history":
			s.handleProposalHistory(w, r, parts[2])
			return
		}
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/exports" {
		s.handleDocumentExport(w, r)
		return
	}

	// GET /api/exports/{year}/{month}/{filename}
	if len(parts) == 5 && parts[0] == "api" && parts[1] == "exports" && r.Method == http.MethodGet {
		s.handleArchivedExport(w, r, parts[2]+"/"+parts[3]+"/"+parts[4])
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/research-sessions/export" {
		s.handleResearchExport(w, r)
		return
	}

	// POST /api/context-actions/{action}
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "context-actions" && r.Method == http.MethodPost {
		s.handleContextAction(w, r, parts[2])
		return
	}

	if r.URL.Path == "/api/fact-check" {
		switch r.Method {
		case http.MethodPost:
			s.handleFactCheck(w, r)
			return
		case http.MethodGet:
			s.handleFactCheckState(w, r)
			return
		case http.MethodDelete:
			s.handleFactCheckClear(w, r)
			return
		}
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/answers/search" {
		s.handleAnswerSearch(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/answers/autocomplete" {
		s.handleAnswerAutocomplete(w, r)
		return
	}

	// POST   /api/answers/{id}/use
	// DELETE /api/answers/{id}
	if len(parts) == 4 && parts[0] == "api" && parts[1] == "answers" && parts[3] == "use" && r.Method == http.MethodPost {
		s.handleAnswerUse(w, r, parts[2])
		return
	}
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "answers" && r.Method == http.MethodDelete {
		s.handleAnswerDelete(w, r, parts[2])
		return
	}

	// GET /api/companies/{number}
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "companies" && r.Method == http.MethodGet {
		s.handleCompanyLookup(w, r, parts[2])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleProposalExport(w http.ResponseWriter, r *http.Request, proposalID string) {
	var body struct {
		export.Options
		Revision string `json:"revision"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if body.Format == "" {
		body.Format = export.FormatPDF
	}

	result, err := s.service.ExportProposal(r.Context(), proposalID, body.Revision, body.Options)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeExportResult(w, result)
}

func (s *HTTPServer) handleProposalExportList(w http.ResponseWriter, r *http.Request, proposalID string) {
	records, err := s.service.ListProposalExports(r.Context(), proposalID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	if records == nil {
		records = []store.ExportRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": records})
}

func (s *HTTPServer) handleArchivedExport(w http.ResponseWriter, r *http.Request, objectName string) {
	blob, err := s.service.FetchExportArtifact(r.Context(), objectName)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}

	filename := objectName[strings.LastIndex(objectName, "/")+1:]
	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(filename, ".pdf"):
		contentType = export.FormatPDF.MimeType()
	case strings.HasSuffix(filename, ".docx"):
		contentType = export.FormatDOCX.MimeType()
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *HTTPServer) handleDocumentExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Document export.ProposalDocument `json:"document"`
		Options  export.Options          `json:"options"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	result := s.service.ExportDocument(r.Context(), body.Document, body.Options)
	writeExportResult(w, result)
}

func (s *HTTPServer) handleResearchExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Session export.ResearchSession `json:"session"`
		Options export.ResearchOptions `json:"options"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	result := s.service.ExportResearch(r.Context(), body.Session, body.Options)
	writeExportResult(w, result)
}

func (s *HTTPServer) handleContextAction(w http.ResponseWriter, r *http.Request, action string) {
	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	text, _ := raw["text"].(string)
	params := make(map[string]string)
	for key, value := range raw {
		if key == "text" {
			continue
		}
		if str, ok := value.(string); ok {
			params[key] = str
		}
	}

	result, err := s.service.ContextAction(r.Context(), action, text, params)
	if err != nil {
		status, code, message, details := mapError(err)
		writeJSON(w, status, map[string]any{
			"success": false,
			"error":   message,
			"code":    code,
			"details": details,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}

func (s *HTTPServer) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	var req factcheck.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	result, err := s.service.PerformFactCheck(r.Context(), req)
	if err != nil {
		status, code, message, details := mapError(err)
		if strings.Contains(err.Error(), "already in progress") {
			status, code, message = http.StatusConflict, "FACTCHECK_BUSY", err.Error()
		}
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "must be") || strings.Contains(err.Error(), "unknown") {
			status, code, message = http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error()
		}
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleFactCheckState(w http.ResponseWriter, r *http.Request) {
	loading, current, lastErr := s.service.FactCheckState()
	payload := map[string]any{
		"isLoading": loading,
		"factCheck": current,
	}
	if lastErr != nil {
		payload["error"] = lastErr.Error()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleFactCheckClear(w http.ResponseWriter, r *http.Request) {
	var req factcheck.Request
	_ = decodeBody(r, &req)
	if err := s.service.ClearFactCheck(r.Context(), req); err != nil {
		log.Printf("app: clear fact check: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleAnswerSearch(w http.ResponseWriter, r *http.Request) {
	q := answers.Query{
		Text:           strings.TrimSpace(r.URL.Query().Get("q")),
		FilterCategory: strings.TrimSpace(r.URL.Query().Get("category")),
		Limit:          queryInt(r, "limit", 20),
		Offset:         queryInt(r, "offset", 0),
	}
	writeJSON(w, http.StatusOK, s.service.SearchAnswers(q))
}

func (s *HTTPServer) handleAnswerAutocomplete(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := queryInt(r, "limit", 10)
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": s.service.AutocompleteAnswers(prefix, limit),
	})
}

func (s *HTTPServer) handleAnswerUse(w http.ResponseWriter, r *http.Request, id string) {
	answer, err := s.service.UseAnswer(r.Context(), id)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *HTTPServer) handleAnswerDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.service.DeleteAnswer(r.Context(), id); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleCompanyLookup(w http.ResponseWriter, r *http.Request, number string) {
	profile, err := s.service.LookupCompany(r.Context(), number)
	if err != nil {
		status, code, message, details := mapError(err)
		if strings.Contains(err.Error(), "not found") {
			status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
		}
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *HTTPServer) handleProposalHistory(w http.ResponseWriter, r *http.Request, proposalID string) {
	history, err := s.service.ProposalHistory(r.Context(), proposalID, queryInt(r, "limit", 50))
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	if history == nil {
		history = []store.CommitInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// writeExportResult sends a successful export as a file download and a
// failed one as the JSON error envelope the pipeline produced.
func writeExportResult(w http.ResponseWriter, result export.Result) {
	if !result.Success || result.Data == nil {
		status := http.StatusInternalServerError
		if result.Error != nil && result.Error.Code == export.CodeValidation {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, result)
		return
	}

	w.Header().Set("Content-Type", result.Metadata.Format.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Data.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(result.Data.Size))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data.Blob)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		// An absent body means "all defaults", not a client error.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
