package actions

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// TriggerType identifies how the menu was opened. Every trigger
// normalizes to the same ShowMenu call.
type TriggerType string

const (
	TriggerRightClick TriggerType = "right-click"
	TriggerAuto       TriggerType = "auto"
	TriggerShortcut   TriggerType = "shortcut"
	TriggerLongPress  TriggerType = "long-press"
)

// Position is the menu anchor point in viewport coordinates.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Outcome reports the result of a dispatched action. Handler failures are
// carried here as data instead of being swallowed into a log line.
type Outcome struct {
	ActionID string
	Err      error
}

// Menu is the context-menu state machine: closed, or open with a
// position, captured selection, trigger type and active category.
type Menu struct {
	registry *Registry

	mu             sync.Mutex
	open           bool
	position       Position
	selection      *Selection
	trigger        TriggerType
	activeCategory Category
}

// NewMenu creates a closed menu bound to a registry.
func NewMenu(registry *Registry) *Menu {
	return &Menu{registry: registry}
}

// ShowMenu opens the menu or replaces an already-open menu's content.
func (m *Menu) ShowMenu(pos Position, sel Selection, trigger TriggerType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	m.position = pos
	m.selection = &sel
	m.trigger = trigger
	m.activeCategory = ""
}

// HideMenu closes the menu unconditionally.
func (m *Menu) HideMenu() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Menu) reset() {
	m.open = false
	m.selection = nil
	m.trigger = ""
	m.activeCategory = ""
}

// SetActiveCategory filters the visible actions. Only valid while open;
// it never changes the open/closed state.
func (m *Menu) SetActiveCategory(category Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return
	}
	m.activeCategory = category
}

// State returns a snapshot for rendering.
func (m *Menu) State() (open bool, pos Position, trigger TriggerType, category Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open, m.position, m.trigger, m.activeCategory
}

// SelectedText returns the captured selection text while open.
func (m *Menu) SelectedText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selection == nil {
		return ""
	}
	return m.selection.Text
}

// ExecuteAction looks up the action and, when both the action and a
// current selection exist, invokes the handler with the captured
// selection. The menu closes unconditionally afterwards, success or
// failure, and a failing or panicking handler never propagates to the
// caller: the failure travels in the returned Outcome.
func (m *Menu) ExecuteAction(ctx context.Context, actionID string) Outcome {
	m.mu.Lock()
	action, found := m.registry.Lookup(actionID)
	sel := m.selection
	m.reset()
	m.mu.Unlock()

	out := Outcome{ActionID: actionID}
	switch {
	case !found:
		out.Err = fmt.Errorf("action %q not registered", actionID)
	case sel == nil:
		out.Err = fmt.Errorf("action %q dispatched without a selection", actionID)
	default:
		out.Err = runHandler(ctx, action, *sel)
	}
	if out.Err != nil {
		log.Printf("actions: %s: %v", actionID, out.Err)
	}
	return out
}

func runHandler(ctx context.Context, action Action, sel Selection) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return action.Handler(ctx, sel)
}

// Auto-trigger tuning: a selection must persist unchanged this long and
// be at least this many characters before the menu opens on its own.
const (
	autoTriggerDelay   = 500 * time.Millisecond
	autoTriggerMinimum = 5
)

// SelectionTracker debounces selection changes into auto-trigger
// ShowMenu calls.
type SelectionTracker struct {
	menu *Menu

	mu    sync.Mutex
	timer *time.Timer
}

// NewSelectionTracker creates a tracker driving the given menu.
func NewSelectionTracker(menu *Menu) *SelectionTracker {
	return &SelectionTracker{menu: menu}
}

// SelectionChanged restarts the debounce window. When a substantial
// selection survives the full window unchanged, the menu opens with the
// auto trigger.
func (t *SelectionTracker) SelectionChanged(pos Position, sel Selection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if len(sel.Text) < autoTriggerMinimum {
		return
	}
	t.timer = time.AfterFunc(autoTriggerDelay, func() {
		t.menu.ShowMenu(pos, sel, TriggerAuto)
	})
}

// Stop cancels any pending auto-trigger, typically on teardown.
func (t *SelectionTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
