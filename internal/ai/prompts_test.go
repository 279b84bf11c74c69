package ai

import (
	"strings"
	"testing"
)

func TestPromptForKnownActions(t *testing.T) {
	for action := range actionPrompts {
		system, user, err := PromptFor(action, "the selected text")
		if err != nil {
			t.Errorf("PromptFor(%q): %v", action, err)
			continue
		}
		if system == "" {
			t.Errorf("PromptFor(%q) returned empty system message", action)
		}
		if !strings.Contains(user, "the selected text") {
			t.Errorf("PromptFor(%q) user message does not embed the selection", action)
		}
	}
}

func TestPromptForUnknownAction(t *testing.T) {
	if _, _, err := PromptFor("nonexistent", "text"); err == nil {
		t.Error("unknown action should return an error")
	}
}

func TestTranslatePromptDefaultsToEnglish(t *testing.T) {
	_, user := TranslatePrompt("bonjour", "")
	if !strings.Contains(user, "into en") {
		t.Errorf("user message = %q, want default target language", user)
	}
	_, user = TranslatePrompt("hola", "French")
	if !strings.Contains(user, "into French") {
		t.Errorf("user message = %q, want explicit target language", user)
	}
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("missing API key should be rejected")
	}
	p, err := NewOpenAIProvider(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Name = %q", p.Name())
	}
}
