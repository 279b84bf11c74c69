// Package answers is the reusable answer bank: stored responses to
// recurring tender questions, searchable by full text with
// autocomplete over titles.
package answers

import "time"

// Record is an answer bank entry as indexed.
type Record struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Question   string    `json:"question"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags,omitempty"`
	UsageCount int       `json:"usageCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Result is a single search hit returned to the caller.
type Result struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	Category   string `json:"category"`
	UsageCount int    `json:"usageCount"`
}

// Query describes a search request.
type Query struct {
	Text           string
	FilterCategory string // empty = all categories
	Limit          int
	Offset         int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over the answer bank.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Autocomplete(prefix string, limit int) ([]string, error)
	Healthy() bool
}

// Indexer can push answer records into a search index.
type Indexer interface {
	IndexRecord(r Record) error
	IndexRecords(records []Record) error
	DeleteRecord(id string) error
}

// SearchIndex is a search backend that serves queries and accepts
// index writes. *Meili implements it.
type SearchIndex interface {
	Searcher
	Indexer
}
