package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"caredraft/api/internal/util"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) GetProposal(ctx context.Context, id string) (Proposal, error) {
	const query = `
		SELECT id, title, client_name, status, content, created_at, updated_at
		FROM proposals WHERE id = $1`
	var p Proposal
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.ClientName, &p.Status, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Proposal{}, ErrNotFound
	}
	if err != nil {
		return Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListSections(ctx context.Context, proposalID string) ([]Section, error) {
	const query = `
		SELECT id, proposal_id, title, content, position
		FROM sections WHERE proposal_id = $1
		ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	sections := make([]Section, 0)
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.ProposalID, &sec.Title, &sec.Content, &sec.Position); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

func (s *PostgresStore) ListComplianceItems(ctx context.Context, proposalID string) ([]ComplianceItem, error) {
	const query = `
		SELECT id, proposal_id, requirement, status, notes
		FROM compliance_items WHERE proposal_id = $1
		ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list compliance items: %w", err)
	}
	defer rows.Close()

	items := make([]ComplianceItem, 0)
	for rows.Next() {
		var item ComplianceItem
		if err := rows.Scan(&item.ID, &item.ProposalID, &item.Requirement, &item.Status, &item.Notes); err != nil {
			return nil, fmt.Errorf("scan compliance item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) InsertExportRecord(ctx context.Context, rec ExportRecord) (ExportRecord, error) {
	if rec.ID == "" {
		rec.ID = util.NewID("exp")
	}
	const query = `
		INSERT INTO export_records (id, proposal_id, format, filename, size_bytes, download_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := s.db.QueryRowContext(ctx, query,
		rec.ID, rec.ProposalID, rec.Format, rec.Filename, rec.SizeBytes, rec.DownloadURL,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return ExportRecord{}, fmt.Errorf("insert export record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListExportRecords(ctx context.Context, proposalID string) ([]ExportRecord, error) {
	const query = `
		SELECT id, proposal_id, format, filename, size_bytes, download_url, created_at
		FROM export_records WHERE proposal_id = $1
		ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list export records: %w", err)
	}
	defer rows.Close()

	records := make([]ExportRecord, 0)
	for rows.Next() {
		var rec ExportRecord
		if err := rows.Scan(&rec.ID, &rec.ProposalID, &rec.Format, &rec.Filename,
			&rec.SizeBytes, &rec.DownloadURL, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) GetAnswer(ctx context.Context, id string) (Answer, error) {
	const query = `
		SELECT id, title, question, body, category,
			array_to_string(tags, ','), usage_count, updated_at
		FROM answers WHERE id = $1`
	var a Answer
	var tags string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Question, &a.Body, &a.Category, &tags, &a.UsageCount, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Answer{}, ErrNotFound
	}
	if err != nil {
		return Answer{}, fmt.Errorf("get answer: %w", err)
	}
	if tags != "" {
		a.Tags = strings.Split(tags, ",")
	}
	return a, nil
}

func (s *PostgresStore) DeleteAnswer(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IncrementAnswerUsage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE answers SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment answer usage: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
