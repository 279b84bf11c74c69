package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"caredraft/api/internal/ai"
	"caredraft/api/internal/util"
)

// Checker runs fact checks through an AI provider with a read-through
// cache. A nil cache disables caching.
type Checker struct {
	provider ai.Provider
	cache    *Cache
}

// NewChecker creates a checker.
func NewChecker(provider ai.Provider, cache *Cache) *Checker {
	return &Checker{provider: provider, cache: cache}
}

// verdictPayload is the JSON shape the model is asked to produce.
type verdictPayload struct {
	Verdict    string   `json:"verdict"`
	Confidence string   `json:"confidence"`
	Sources    []Source `json:"sources"`
	Citations  []string `json:"citations"`
}

// Check verifies the request text, serving from cache when the same
// text has been checked with the same source, style and limit.
func (c *Checker) Check(ctx context.Context, req Request) (*FactCheck, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	cacheKey := req.CacheKey()

	if c.cache != nil {
		if cached, ok, err := c.cache.Get(ctx, cacheKey); err != nil {
			log.Printf("factcheck: cache lookup: %v", err)
		} else if ok {
			cached.IsCached = true
			cached.ProcessingTimeMs = time.Since(started).Milliseconds()
			return cached, nil
		}
	}

	system, user := c.buildPrompt(req)
	raw, err := c.provider.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("fact check completion: %w", err)
	}

	fc := &FactCheck{
		ID:            util.NewID("fc"),
		TextHash:      TextHash(req.Text),
		Text:          req.Text,
		AISource:      req.AISource,
		CitationStyle: req.CitationStyle,
		WordLimit:     req.WordLimit,
		CreatedAt:     time.Now().UTC(),
	}
	c.applyVerdict(fc, raw)
	fc.ProcessingTimeMs = time.Since(started).Milliseconds()

	if c.cache != nil {
		if err := c.cache.Put(ctx, cacheKey, fc); err != nil {
			log.Printf("factcheck: cache store: %v", err)
		}
	}
	return fc, nil
}

// Clear drops the cached verdict for a request shape.
func (c *Checker) Clear(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, req.CacheKey())
}

func (c *Checker) buildPrompt(req Request) (system, user string) {
	var evidence string
	switch req.AISource {
	case SourceInternet:
		evidence = "Draw on current public sources and name them."
	case SourceCreative:
		evidence = "Reason from general knowledge; flag anything you cannot ground."
	default:
		evidence = "Use only established reference material, regulations and published research."
	}

	system = fmt.Sprintf("You verify factual claims in UK care-sector tender proposals. %s "+
		"Respond with a single JSON object: {\"verdict\": string of at most %d words, "+
		"\"confidence\": \"high\"|\"medium\"|\"low\", "+
		"\"sources\": [{\"title\", \"url\", \"publisher\", \"year\"}], "+
		"\"citations\": [strings formatted in %s style]}. No other text.",
		evidence, req.WordLimit, strings.ToUpper(string(req.CitationStyle)))
	user = fmt.Sprintf("Verify the claims in this passage:\n\n%s", req.Text)
	return system, user
}

// applyVerdict parses the model output. Models occasionally wrap JSON
// in fences or return prose; both degrade to a medium-confidence
// verdict carrying the raw text.
func (c *Checker) applyVerdict(fc *FactCheck, raw string) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil || payload.Verdict == "" {
		fc.Verdict = cleaned
		fc.Confidence = ConfidenceMedium
		return
	}

	fc.Verdict = payload.Verdict
	fc.Sources = payload.Sources
	fc.Citations = payload.Citations
	switch Confidence(payload.Confidence) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		fc.Confidence = Confidence(payload.Confidence)
	default:
		fc.Confidence = ConfidenceMedium
	}
}
