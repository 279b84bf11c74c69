package actions

import (
	"context"
)

// endpointAction builds the uniform handler shape every built-in action
// follows: post the selected text plus action parameters to the action's
// endpoint and splice the returned text over the live selection. On any
// failure the selection is untouched; the edit is all-or-nothing.
func endpointAction(client *Client, endpoint string, params map[string]any) Handler {
	return func(ctx context.Context, sel Selection) error {
		result, err := client.Transform(ctx, endpoint, sel.Text, params)
		if err != nil {
			return err
		}
		sel.Replace(result)
		return nil
	}
}

// RegisterDefaults installs the built-in action set against the given
// endpoint client. Callers owning a session should unregister these on
// teardown via the returned IDs.
func RegisterDefaults(registry *Registry, client *Client) []string {
	defaults := []Action{
		{
			ID:          "evidencing.fact-check",
			Label:       "Fact Check",
			Category:    CategoryEvidencing,
			Icon:        "shield-check",
			Description: "Verify the selected claim against known sources",
			Handler:     endpointAction(client, "fact-check", nil),
		},
		{
			ID:          "evidencing.statistics",
			Label:       "Add Statistics",
			Category:    CategoryEvidencing,
			Icon:        "chart-bar",
			Description: "Support the selection with sector statistics",
			Handler:     endpointAction(client, "statistics", nil),
		},
		{
			ID:          "evidencing.case-study",
			Label:       "Add Case Study",
			Category:    CategoryEvidencing,
			Icon:        "book-open",
			Description: "Illustrate the selection with a relevant case study",
			Handler:     endpointAction(client, "case-study", nil),
		},
		{
			ID:          "editing.expand",
			Label:       "Expand",
			Category:    CategoryEditing,
			Icon:        "arrows-out",
			Shortcut:    "mod+shift+e",
			Description: "Develop the selection into fuller prose",
			Handler:     endpointAction(client, "expand", nil),
		},
		{
			ID:          "editing.summarize",
			Label:       "Summarize",
			Category:    CategoryEditing,
			Icon:        "list-collapse",
			Shortcut:    "mod+shift+s",
			Description: "Condense the selection",
			Handler:     endpointAction(client, "summarize", nil),
		},
		{
			ID:          "editing.improve",
			Label:       "Improve Writing",
			Category:    CategoryEditing,
			Icon:        "sparkles",
			Description: "Tighten tone and clarity",
			Handler:     endpointAction(client, "improve", nil),
		},
		{
			ID:          "editing.rephrase",
			Label:       "Rephrase",
			Category:    CategoryEditing,
			Icon:        "refresh",
			Description: "Say the same thing differently",
			Handler:     endpointAction(client, "rephrase", nil),
		},
		{
			ID:          "editing.grammar",
			Label:       "Fix Grammar",
			Category:    CategoryEditing,
			Icon:        "check",
			Description: "Correct grammar and spelling only",
			Handler:     endpointAction(client, "grammar", nil),
		},
		{
			ID:          "inputs.translate",
			Label:       "Translate",
			Category:    CategoryInputs,
			Icon:        "globe",
			Description: "Translate the selection to English",
			Handler:     endpointAction(client, "translate", map[string]any{"target_language": "en"}),
		},
	}

	ids := make([]string, 0, len(defaults))
	for _, a := range defaults {
		registry.Register(a)
		ids = append(ids, a.ID)
	}
	return ids
}
