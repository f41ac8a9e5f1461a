package llm

import (
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

// PromptData is what persona system-prompt templates can reference.
type PromptData struct {
	Persona string
	// Knowledge is the full text of the persona's prompt knowledge base, or "" when not loaded.
	Knowledge string
}

// RenderSystemPrompt executes a persona system-prompt template.
func RenderSystemPrompt(name, tmpl string, data PromptData) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse system prompt template", goerr.V("persona", name))
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", goerr.Wrap(err, "failed to render system prompt", goerr.V("persona", name))
	}
	return strings.TrimSpace(b.String()), nil
}
