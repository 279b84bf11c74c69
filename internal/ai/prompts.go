package ai

import "fmt"

const careSectorSystem = "You are a writing assistant for UK care-sector tender proposals. " +
	"Respond with the transformed text only, no preamble, no commentary. " +
	"Keep the register professional and suitable for a formal bid document."

// actionPrompts maps context-action names to their user-message
// templates. %s receives the selected text.
var actionPrompts = map[string]string{
	"expand": "Expand the following passage into fuller prose. Preserve every factual " +
		"claim and add connective detail rather than new claims:\n\n%s",
	"summarize": "Condense the following passage to roughly a third of its length, " +
		"keeping the key commitments and figures:\n\n%s",
	"improve": "Rewrite the following passage for clarity and tone. Do not add or " +
		"remove information:\n\n%s",
	"rephrase": "Rephrase the following passage with different wording but identical " +
		"meaning:\n\n%s",
	"grammar": "Correct grammar, spelling and punctuation in the following passage. " +
		"Change nothing else:\n\n%s",
	"statistics": "Strengthen the following passage by weaving in relevant UK care-sector " +
		"statistics with their sources named inline:\n\n%s",
	"case-study": "Illustrate the following passage with a short anonymised case study " +
		"from a care setting:\n\n%s",
	"fact-check": "Assess the factual claims in the following passage. For each claim " +
		"state whether it is well established, contested, or unverifiable, and name the " +
		"kind of source that would support it:\n\n%s",
}

// PromptFor builds the system and user messages for a context action.
// Unknown actions get an error rather than a generic fallback so typos
// in route wiring fail loudly.
func PromptFor(action, text string) (system, user string, err error) {
	tmpl, ok := actionPrompts[action]
	if !ok {
		return "", "", fmt.Errorf("no prompt for action %q", action)
	}
	return careSectorSystem, fmt.Sprintf(tmpl, text), nil
}

// TranslatePrompt builds the messages for the translate action, which
// carries a target language parameter the other actions do not.
func TranslatePrompt(text, targetLanguage string) (system, user string) {
	if targetLanguage == "" {
		targetLanguage = "en"
	}
	user = fmt.Sprintf("Translate the following passage into %s. Return only the translation:\n\n%s",
		targetLanguage, text)
	return careSectorSystem, user
}
