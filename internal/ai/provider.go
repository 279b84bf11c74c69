// Package ai abstracts the language-model backend behind a small
// completion interface so the action and fact-check services never
// depend on a specific vendor SDK.
package ai

import "context"

// Provider is a chat-completion backend.
type Provider interface {
	// Name returns the provider name for logs and diagnostics.
	Name() string

	// Complete sends a system and user message pair and returns the
	// assistant's text response.
	Complete(ctx context.Context, system, user string) (string, error)

	// IsAvailable reports whether the provider is configured and
	// reachable.
	IsAvailable(ctx context.Context) bool
}

// Config holds provider configuration.
type Config struct {
	// APIKey authenticates against the provider.
	APIKey string

	// Model is the model name. Empty picks the provider default.
	Model string

	// BaseURL overrides the API endpoint, e.g. for a proxy or a
	// compatible self-hosted backend.
	BaseURL string

	// Timeout for a single completion, in seconds.
	Timeout int

	// MaxTokens limits the response length.
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 1200,
	}
}
