package actions

import (
	"context"
	"sync"
	"testing"
)

func noopHandler(ctx context.Context, sel Selection) error { return nil }

func TestRegisterLastWriteWins(t *testing.T) {
	r := NewRegistry()

	first := false
	second := false
	r.Register(Action{ID: "editing.expand", Handler: func(ctx context.Context, sel Selection) error {
		first = true
		return nil
	}})
	r.Register(Action{ID: "editing.expand", Label: "Expand v2", Handler: func(ctx context.Context, sel Selection) error {
		second = true
		return nil
	}})

	if r.Len() != 1 {
		t.Fatalf("registry holds %d entries for one id, want 1", r.Len())
	}
	a, ok := r.Lookup("editing.expand")
	if !ok {
		t.Fatal("action missing after re-registration")
	}
	if a.Label != "Expand v2" {
		t.Errorf("label = %q, want the second registration", a.Label)
	}
	_ = a.Handler(context.Background(), Selection{})
	if first || !second {
		t.Error("second registration's handler should be the active one")
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(Action{ID: "a", Handler: noopHandler})
	r.Unregister("a")
	if _, ok := r.Lookup("a"); ok {
		t.Error("action still present after unregister")
	}
	// Unregistering an unknown id is a no-op.
	r.Unregister("missing")
}

func TestListFiltersByCategory(t *testing.T) {
	r := NewRegistry()
	r.Register(Action{ID: "b", Category: CategoryEditing, Handler: noopHandler})
	r.Register(Action{ID: "a", Category: CategoryEditing, Handler: noopHandler})
	r.Register(Action{ID: "c", Category: CategoryEvidencing, Handler: noopHandler})

	editing := r.List(CategoryEditing)
	if len(editing) != 2 {
		t.Fatalf("List(editing) = %d entries, want 2", len(editing))
	}
	if editing[0].ID != "a" || editing[1].ID != "b" {
		t.Errorf("List should sort by id, got %q then %q", editing[0].ID, editing[1].ID)
	}
	if all := r.List(""); len(all) != 3 {
		t.Errorf("List(\"\") = %d entries, want 3", len(all))
	}
}

func TestRegistryConcurrentMutation(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Register(Action{ID: "shared", Handler: noopHandler})
				r.Lookup("shared")
				r.List("")
				r.Unregister("shared")
			}
		}()
	}
	wg.Wait()
}
