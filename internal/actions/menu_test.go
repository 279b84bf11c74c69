package actions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openMenu(t *testing.T, m *Menu, text string) {
	t.Helper()
	m.ShowMenu(Position{X: 10, Y: 20}, Selection{Text: text, Replace: func(string) {}}, TriggerRightClick)
}

func TestMenuShowHide(t *testing.T) {
	m := NewMenu(NewRegistry())

	if open, _, _, _ := m.State(); open {
		t.Fatal("new menu should start closed")
	}

	openMenu(t, m, "some selected text")
	open, pos, trigger, category := m.State()
	if !open {
		t.Fatal("menu should be open after ShowMenu")
	}
	if pos.X != 10 || pos.Y != 20 {
		t.Errorf("position = %+v, want {10 20}", pos)
	}
	if trigger != TriggerRightClick {
		t.Errorf("trigger = %q, want right-click", trigger)
	}
	if category != "" {
		t.Errorf("active category = %q, want empty on open", category)
	}
	if got := m.SelectedText(); got != "some selected text" {
		t.Errorf("SelectedText = %q", got)
	}

	m.HideMenu()
	if open, _, _, _ := m.State(); open {
		t.Error("menu should be closed after HideMenu")
	}
	if got := m.SelectedText(); got != "" {
		t.Errorf("SelectedText after hide = %q, want empty", got)
	}
}

func TestShowMenuReplacesOpenMenu(t *testing.T) {
	m := NewMenu(NewRegistry())
	openMenu(t, m, "first")
	m.SetActiveCategory(CategoryEditing)

	m.ShowMenu(Position{X: 99, Y: 1}, Selection{Text: "second", Replace: func(string) {}}, TriggerShortcut)
	open, pos, trigger, category := m.State()
	if !open || pos.X != 99 || trigger != TriggerShortcut {
		t.Errorf("reopened state = open=%v pos=%+v trigger=%q", open, pos, trigger)
	}
	if category != "" {
		t.Errorf("category should reset on reopen, got %q", category)
	}
	if got := m.SelectedText(); got != "second" {
		t.Errorf("SelectedText = %q, want the new selection", got)
	}
}

func TestSetActiveCategoryOnlyWhileOpen(t *testing.T) {
	m := NewMenu(NewRegistry())

	m.SetActiveCategory(CategoryEditing)
	if _, _, _, category := m.State(); category != "" {
		t.Error("SetActiveCategory on a closed menu should be a no-op")
	}

	openMenu(t, m, "selection")
	m.SetActiveCategory(CategoryEvidencing)
	if _, _, _, category := m.State(); category != CategoryEvidencing {
		t.Errorf("category = %q, want evidencing", category)
	}
}

func TestExecuteActionRunsHandlerAndCloses(t *testing.T) {
	registry := NewRegistry()
	var got string
	registry.Register(Action{ID: "editing.expand", Handler: func(ctx context.Context, sel Selection) error {
		got = sel.Text
		return nil
	}})
	m := NewMenu(registry)
	openMenu(t, m, "grow this")

	out := m.ExecuteAction(context.Background(), "editing.expand")
	if out.Err != nil {
		t.Fatalf("ExecuteAction error: %v", out.Err)
	}
	if got != "grow this" {
		t.Errorf("handler saw selection %q", got)
	}
	if open, _, _, _ := m.State(); open {
		t.Error("menu should close after a successful action")
	}
}

func TestExecuteActionClosesOnFailure(t *testing.T) {
	sentinel := errors.New("backend unavailable")
	registry := NewRegistry()
	registry.Register(Action{ID: "failing", Handler: func(ctx context.Context, sel Selection) error {
		return sentinel
	}})
	m := NewMenu(registry)
	openMenu(t, m, "selection")

	out := m.ExecuteAction(context.Background(), "failing")
	if !errors.Is(out.Err, sentinel) {
		t.Errorf("Outcome.Err = %v, want the handler error", out.Err)
	}
	if open, _, _, _ := m.State(); open {
		t.Error("menu should close even when the handler fails")
	}
}

func TestExecuteActionRecoversPanic(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Action{ID: "panicky", Handler: func(ctx context.Context, sel Selection) error {
		panic("handler blew up")
	}})
	m := NewMenu(registry)
	openMenu(t, m, "selection")

	out := m.ExecuteAction(context.Background(), "panicky")
	if out.Err == nil {
		t.Fatal("panicking handler should surface as an Outcome error")
	}
	if open, _, _, _ := m.State(); open {
		t.Error("menu should close after a panicking handler")
	}
}

func TestExecuteActionUnknownID(t *testing.T) {
	m := NewMenu(NewRegistry())
	openMenu(t, m, "selection")

	out := m.ExecuteAction(context.Background(), "missing")
	if out.Err == nil {
		t.Error("unknown action should return an error outcome")
	}
	if open, _, _, _ := m.State(); open {
		t.Error("menu should close even for an unknown action")
	}
}

func TestSelectionTrackerDebounce(t *testing.T) {
	m := NewMenu(NewRegistry())
	tracker := NewSelectionTracker(m)
	defer tracker.Stop()

	tracker.SelectionChanged(Position{}, Selection{Text: "a long enough selection", Replace: func(string) {}})
	if open, _, _, _ := m.State(); open {
		t.Fatal("menu must not open before the debounce window elapses")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		open, _, trigger, _ := m.State()
		if open {
			if trigger != TriggerAuto {
				t.Errorf("trigger = %q, want auto", trigger)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("menu never auto-opened")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSelectionTrackerIgnoresShortSelections(t *testing.T) {
	m := NewMenu(NewRegistry())
	tracker := NewSelectionTracker(m)
	defer tracker.Stop()

	tracker.SelectionChanged(Position{}, Selection{Text: "hey", Replace: func(string) {}})
	time.Sleep(autoTriggerDelay + 150*time.Millisecond)
	if open, _, _, _ := m.State(); open {
		t.Error("selections below the minimum length must not auto-open the menu")
	}
}

func TestSelectionTrackerRestartCancelsPending(t *testing.T) {
	m := NewMenu(NewRegistry())
	tracker := NewSelectionTracker(m)
	defer tracker.Stop()

	tracker.SelectionChanged(Position{}, Selection{Text: "first substantial selection", Replace: func(string) {}})
	time.Sleep(autoTriggerDelay / 2)
	// A shrink below the minimum cancels the pending trigger.
	tracker.SelectionChanged(Position{}, Selection{Text: "hi", Replace: func(string) {}})
	time.Sleep(autoTriggerDelay + 150*time.Millisecond)
	if open, _, _, _ := m.State(); open {
		t.Error("restarted tracker should have cancelled the first trigger")
	}
}
