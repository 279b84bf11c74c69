package answers

import (
	"context"
	"log"
)

// Service is the facade that tries the primary search index first and
// falls back to PG FTS.
type Service struct {
	primary SearchIndex
	pgfts   *PgFTS
}

// NewService creates an answer bank service. primary may be nil if no
// search index is configured.
func NewService(primary SearchIndex, pgfts *PgFTS) *Service {
	return &Service{primary: primary, pgfts: pgfts}
}

// Search tries the primary index if healthy, otherwise falls back to
// PG FTS.
func (s *Service) Search(q Query) Response {
	if s.primary != nil && s.primary.Healthy() {
		results, total, err := s.primary.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("answers: search index error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("answers: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Autocomplete suggests titles for a prefix, with the same fallback.
func (s *Service) Autocomplete(prefix string, limit int) []string {
	if s.primary != nil && s.primary.Healthy() {
		titles, err := s.primary.Autocomplete(prefix, limit)
		if err == nil {
			return nonNilStrings(titles)
		}
		log.Printf("answers: autocomplete error, falling back to pgfts: %v", err)
	}

	titles, err := s.pgfts.Autocomplete(prefix, limit)
	if err != nil {
		log.Printf("answers: pgfts autocomplete error: %v", err)
		return []string{}
	}
	return nonNilStrings(titles)
}

// IndexRecord pushes an answer into the search index
// (fire-and-forget).
func (s *Service) IndexRecord(r Record) {
	if s.primary == nil || !s.primary.Healthy() {
		return
	}
	go func() {
		if err := s.primary.IndexRecord(r); err != nil {
			log.Printf("answers: index record %s: %v", r.ID, err)
		}
	}()
}

// DeleteRecord removes an answer from the search index
// (fire-and-forget).
func (s *Service) DeleteRecord(id string) {
	if s.primary == nil || !s.primary.Healthy() {
		return
	}
	go func() {
		if err := s.primary.DeleteRecord(id); err != nil {
			log.Printf("answers: delete record %s: %v", id, err)
		}
	}()
}

// ReindexAllFromPG reindexes the whole answer bank from PostgreSQL
// into the search index. Called during bootstrap when the index is
// healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.primary == nil || !s.primary.Healthy() || s.pgfts == nil {
		return
	}
	records, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("answers: reindex load failed: %v", err)
		return
	}
	if len(records) > 0 {
		if err := s.primary.IndexRecords(records); err != nil {
			log.Printf("answers: reindex: %v", err)
		}
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
