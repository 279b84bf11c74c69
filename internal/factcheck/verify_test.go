package factcheck

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (p *fakeProvider) Name() string                        { return "fake" }
func (p *fakeProvider) IsAvailable(ctx context.Context) bool { return true }
func (p *fakeProvider) Complete(ctx context.Context, system, user string) (string, error) {
	p.calls++
	return p.response, p.err
}

func TestCheckParsesStructuredVerdict(t *testing.T) {
	provider := &fakeProvider{response: `{
		"verdict": "Supported by CQC publications",
		"confidence": "high",
		"sources": [{"title": "State of Care", "publisher": "CQC", "year": 2024}],
		"citations": ["Care Quality Commission. (2024). State of Care."]
	}`}
	checker := NewChecker(provider, nil)

	fc, err := checker.Check(context.Background(), Request{Text: "CQC rates most providers good"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if fc.Verdict != "Supported by CQC publications" {
		t.Errorf("verdict = %q", fc.Verdict)
	}
	if fc.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %q", fc.Confidence)
	}
	if len(fc.Sources) != 1 || fc.Sources[0].Publisher != "CQC" {
		t.Errorf("sources = %+v", fc.Sources)
	}
	if len(fc.Citations) != 1 {
		t.Errorf("citations = %+v", fc.Citations)
	}
	if fc.IsCached {
		t.Error("first check must not report cached")
	}
	if fc.TextHash != TextHash("CQC rates most providers good") {
		t.Error("text hash mismatch")
	}
}

func TestCheckHandlesFencedJSON(t *testing.T) {
	provider := &fakeProvider{response: "```json\n{\"verdict\": \"plausible\", \"confidence\": \"medium\"}\n```"}
	checker := NewChecker(provider, nil)

	fc, err := checker.Check(context.Background(), Request{Text: "claim"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if fc.Verdict != "plausible" {
		t.Errorf("verdict = %q", fc.Verdict)
	}
}

func TestCheckFallsBackToProse(t *testing.T) {
	provider := &fakeProvider{response: "This claim is broadly accurate per sector reporting."}
	checker := NewChecker(provider, nil)

	fc, err := checker.Check(context.Background(), Request{Text: "claim"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !strings.Contains(fc.Verdict, "broadly accurate") {
		t.Errorf("verdict = %q, want the raw prose", fc.Verdict)
	}
	if fc.Confidence != ConfidenceMedium {
		t.Errorf("prose fallback confidence = %q, want medium", fc.Confidence)
	}
}

func TestCheckServesFromCache(t *testing.T) {
	s := miniredis.RunT(t)
	cache, err := NewCache("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	defer cache.Close()

	provider := &fakeProvider{response: `{"verdict": "supported", "confidence": "high"}`}
	checker := NewChecker(provider, cache)
	req := Request{Text: "cached claim"}

	first, err := checker.Check(context.Background(), req)
	if err != nil {
		t.Fatalf("first Check: %v", err)
	}
	if first.IsCached {
		t.Error("first result should not be cached")
	}

	second, err := checker.Check(context.Background(), req)
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if !second.IsCached {
		t.Error("second result should come from cache")
	}
	if second.Verdict != first.Verdict {
		t.Errorf("cached verdict = %q, want %q", second.Verdict, first.Verdict)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestClearInvalidatesCache(t *testing.T) {
	s := miniredis.RunT(t)
	cache, err := NewCache("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	defer cache.Close()

	provider := &fakeProvider{response: `{"verdict": "supported", "confidence": "high"}`}
	checker := NewChecker(provider, cache)
	req := Request{Text: "claim"}

	if _, err := checker.Check(context.Background(), req); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := checker.Clear(context.Background(), req); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	fc, err := checker.Check(context.Background(), req)
	if err != nil {
		t.Fatalf("re-Check: %v", err)
	}
	if fc.IsCached {
		t.Error("cleared entry should force a fresh check")
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestCheckRejectsInvalidRequest(t *testing.T) {
	checker := NewChecker(&fakeProvider{}, nil)
	if _, err := checker.Check(context.Background(), Request{Text: ""}); err == nil {
		t.Error("empty text should be rejected before calling the provider")
	}
}
