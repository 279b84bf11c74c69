package store

import "time"

type Proposal struct {
	ID         string
	Title      string
	ClientName string
	Status     string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Section struct {
	ID         string
	ProposalID string
	Title      string
	Content    string
	Position   int
}

type ComplianceItem struct {
	ID          string
	ProposalID  string
	Requirement string
	Status      string
	Notes       string
}

type Answer struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Question   string    `json:"question"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags,omitempty"`
	UsageCount int       `json:"usageCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ExportRecord struct {
	ID          string    `json:"id"`
	ProposalID  string    `json:"proposalId"`
	Format      string    `json:"format"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"sizeBytes"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CommitInfo describes one revision of a proposal's content.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}
