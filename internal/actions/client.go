package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client posts selected text to the per-action endpoints under the
// /context-actions namespace. All requests share one rate limiter so a
// burst of menu clicks cannot flood the AI backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates an endpoint client. baseURL is the prefix owning the
// /context-actions routes, e.g. "http://localhost:8788/api".
func NewClient(baseURL string, requestsPerSecond float64, burst int) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if burst <= 0 {
		burst = 3
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

type actionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`

	// One of these carries the transformed text, depending on the action
	// family.
	Result       string `json:"result"`
	Text         string `json:"text"`
	Expanded     string `json:"expanded_text"`
	Summarized   string `json:"summarized_text"`
	Improved     string `json:"improved_text"`
	Rephrased    string `json:"rephrased_text"`
	Translated   string `json:"translated_text"`
	Corrected    string `json:"corrected_text"`
	Statistics   string `json:"statistics_text"`
	CaseStudy    string `json:"case_study_text"`
}

func (r actionResponse) text() string {
	for _, candidate := range []string{
		r.Result, r.Expanded, r.Summarized, r.Improved, r.Rephrased,
		r.Translated, r.Corrected, r.Statistics, r.CaseStudy, r.Text,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Transform posts {text, ...params} to /context-actions/{action} and
// returns the replacement text. A non-2xx status or success:false is an
// error carrying the server-provided message when available.
func (c *Client) Transform(ctx context.Context, action, text string, params map[string]any) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	payload := map[string]any{"text": text}
	for k, v := range params {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/context-actions/%s", c.baseURL, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded actionResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if json.Unmarshal(respBody, &decoded) == nil && decoded.Error != "" {
			return "", fmt.Errorf("%s endpoint (%d): %s", action, resp.StatusCode, decoded.Error)
		}
		return "", fmt.Errorf("%s endpoint returned status %d", action, resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if !decoded.Success {
		message := decoded.Error
		if message == "" {
			message = "action failed"
		}
		return "", fmt.Errorf("%s endpoint: %s", action, message)
	}
	result := decoded.text()
	if result == "" {
		return "", fmt.Errorf("%s endpoint returned no text", action)
	}
	return result, nil
}
