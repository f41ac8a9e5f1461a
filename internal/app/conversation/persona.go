package conversation

import (
	"github.com/PabloGalante/persona-relay/internal/adapters/llm"
	"github.com/PabloGalante/persona-relay/internal/app/knowledge"
	"github.com/PabloGalante/persona-relay/internal/config"
)

// Persona is one parameterized chat backend.
type Persona struct {
	Name         string
	DisplayName  string
	Route        string
	Status       string
	Note         string
	SystemPrompt string // rendered, ready to seed new sessions
	UserSuffix   string
	EmptyReply   string

	// Fallback bases are tried in order when the model has no answer.
	Fallback []*knowledge.Base
}

// BuildPersona renders the persona prompt and resolves its knowledge bases.
func BuildPersona(cfg config.PersonaConfig, lib *knowledge.Library) (Persona, error) {
	display := cfg.DisplayName
	if display == "" {
		display = cfg.Name
	}

	var promptKnowledge string
	if b, ok := lib.Get(cfg.PromptKnowledge); ok && b.Corpus.Loaded() {
		promptKnowledge = b.Corpus.Text()
	}

	system, err := llm.RenderSystemPrompt(cfg.Name, cfg.SystemPrompt, llm.PromptData{
		Persona:   display,
		Knowledge: promptKnowledge,
	})
	if err != nil {
		return Persona{}, err
	}

	p := Persona{
		Name:         cfg.Name,
		DisplayName:  display,
		Route:        cfg.Route,
		Status:       cfg.Status,
		Note:         cfg.Note,
		SystemPrompt: system,
		UserSuffix:   cfg.UserSuffix,
		EmptyReply:   cfg.EmptyReply,
	}
	if p.EmptyReply == "" {
		p.EmptyReply = "Sorry, " + display + " did not respond."
	}
	if p.Status == "" {
		p.Status = display + " backend is live"
	}

	for _, name := range cfg.Fallback {
		if b, ok := lib.Get(name); ok {
			p.Fallback = append(p.Fallback, b)
		}
	}
	return p, nil
}
