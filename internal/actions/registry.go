// Package actions implements the context-menu action system: a registry
// of named text transformations, the menu state machine that dispatches
// them, and the HTTP client that talks to the per-action endpoints.
package actions

import (
	"context"
	"sort"
	"sync"
)

// Category groups actions in the menu.
type Category string

const (
	CategoryEvidencing Category = "EVIDENCING"
	CategoryEditing    Category = "EDITING"
	CategoryInputs     Category = "INPUTS"
	CategoryCustom     Category = "CUSTOM"
	CategoryOther      Category = "OTHER"
)

// Selection is the text span an action operates on. Replace splices new
// text into the live range; it is only valid at the moment of capture and
// must not be retained past the dispatch that delivered it.
type Selection struct {
	Text    string
	Replace func(newText string)
}

// Handler performs the action against the captured selection. A nil error
// means the selection was (or will be) replaced; on error the original
// text is left untouched.
type Handler func(ctx context.Context, sel Selection) error

// Action is a named, independently registered text transformation.
type Action struct {
	ID          string
	Label       string
	Category    Category
	Icon        string
	Description string
	Shortcut    string
	Handler     Handler
}

// Registry holds the registered actions. It is an explicit object owned
// by the editor session, not package-global state; mutation is guarded
// because handlers register and unregister from multiple goroutines.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action. Re-registering an ID replaces the previous
// entry: last write wins.
func (r *Registry) Register(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.ID] = a
}

// Unregister removes an action. Callers must unregister on teardown or
// stale handlers keep referencing dead state.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, id)
}

// Lookup returns the action for id, if registered.
func (r *Registry) Lookup(id string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[id]
	return a, ok
}

// List returns all actions, optionally filtered by category, sorted by ID
// for stable menu rendering.
func (r *Registry) List(category Category) []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		if category != "" && a.Category != category {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}
