package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTransformSuccess(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"expanded_text": "a much longer passage",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 10)
	result, err := c.Transform(context.Background(), "expand", "short", map[string]any{"tone": "formal"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if result != "a much longer passage" {
		t.Errorf("result = %q", result)
	}
	if gotPath != "/context-actions/expand" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["text"] != "short" || gotPayload["tone"] != "formal" {
		t.Errorf("payload = %v", gotPayload)
	}
}

func TestTransformServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "model overloaded"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 10)
	_, err := c.Transform(context.Background(), "summarize", "text", nil)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error should carry the server message, got %v", err)
	}
}

func TestTransformSuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "selection too long"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 10)
	_, err := c.Transform(context.Background(), "improve", "text", nil)
	if err == nil {
		t.Fatal("expected error for success:false response")
	}
	if !strings.Contains(err.Error(), "selection too long") {
		t.Errorf("error = %v", err)
	}
}

func TestTransformEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 10)
	if _, err := c.Transform(context.Background(), "rephrase", "text", nil); err == nil {
		t.Fatal("a success response without text should be an error")
	}
}

func TestEndpointActionReplacesSelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "result": "fixed text"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 10)
	handler := endpointAction(c, "grammar", nil)

	var replaced string
	sel := Selection{Text: "teh text", Replace: func(s string) { replaced = s }}
	if err := handler(context.Background(), sel); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if replaced != "fixed text" {
		t.Errorf("replaced = %q", replaced)
	}
}

func TestEndpointActionLeavesSelectionOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 10)
	handler := endpointAction(c, "expand", nil)

	called := false
	sel := Selection{Text: "original", Replace: func(string) { called = true }}
	if err := handler(context.Background(), sel); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
	if called {
		t.Error("Replace must not run when the endpoint fails")
	}
}

func TestRegisterDefaults(t *testing.T) {
	registry := NewRegistry()
	ids := RegisterDefaults(registry, NewClient("http://localhost:1", 100, 10))
	if len(ids) != registry.Len() {
		t.Errorf("returned %d ids for %d registered actions", len(ids), registry.Len())
	}
	for _, id := range []string{"evidencing.fact-check", "editing.expand", "editing.grammar", "inputs.translate"} {
		if _, ok := registry.Lookup(id); !ok {
			t.Errorf("default action %q missing", id)
		}
	}
	if got := registry.List(CategoryEditing); len(got) != 5 {
		t.Errorf("List(editing) = %d actions, want 5", len(got))
	}
}
