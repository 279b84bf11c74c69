package answers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a
// fallback when Meilisearch is unavailable.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is
// down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a ranked query over the answers table using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "a.fts @@ plainto_tsquery('english', $1)"
	args := []any{q.Text}
	if q.FilterCategory != "" {
		where += " AND a.category = $2"
		args = append(args, q.FilterCategory)
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM answers a WHERE %s", where)

	dataSQL := fmt.Sprintf(`
		SELECT a.id, a.title,
			ts_headline('english', coalesce(a.body, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			a.category, a.usage_count
		FROM answers a
		WHERE %s
		ORDER BY ts_rank(a.fts, plainto_tsquery('english', $1)) DESC, a.usage_count DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.Category, &r.UsageCount); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// Autocomplete returns titles with the given prefix, most used first.
func (p *PgFTS) Autocomplete(prefix string, limit int) ([]string, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := p.db.QueryContext(context.Background(), `
		SELECT title FROM answers
		WHERE title ILIKE $1 || '%'
		ORDER BY usage_count DESC, title
		LIMIT $2`, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("pgfts autocomplete: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("pgfts autocomplete scan: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// LoadAllRecords returns all answer records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, question, body, category,
			array_to_string(tags, ','), usage_count, updated_at
		FROM answers
	`)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		var tags string
		if err := rows.Scan(&r.ID, &r.Title, &r.Question, &r.Body, &r.Category, &tags, &r.UsageCount, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if tags != "" {
			r.Tags = strings.Split(tags, ",")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return records, nil
}
