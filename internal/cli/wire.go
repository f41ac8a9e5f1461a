package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/PabloGalante/persona-relay/internal/adapters/llm"
	"github.com/PabloGalante/persona-relay/internal/adapters/storage/memory"
	"github.com/PabloGalante/persona-relay/internal/app/conversation"
	"github.com/PabloGalante/persona-relay/internal/app/knowledge"
	"github.com/PabloGalante/persona-relay/internal/config"
	"github.com/PabloGalante/persona-relay/internal/domain"
	"github.com/PabloGalante/persona-relay/internal/observability"
)

func newInferenceClient(ctx context.Context, cfg config.InferenceConfig) (domain.InferenceClient, error) {
	log := observability.LoggerFromContext(ctx)

	switch cfg.Backend {
	case config.BackendMock:
		log.Info("using mock inference client")
		return llm.NewMockLLM(), nil

	case config.BackendVertex:
		log.Info("using Vertex inference client",
			"project", cfg.VertexProject,
			"location", cfg.VertexLocation)
		return llm.NewVertexClient(ctx, cfg.VertexProject, cfg.VertexLocation)

	case config.BackendOllama, "":
		log.Info("using Ollama inference client", "base_url", cfg.BaseURL, "model", cfg.Model)
		return llm.NewOllamaClient(cfg.BaseURL, llm.WithTimeouts(cfg.ChatTimeout, cfg.ListTimeout)), nil

	default:
		return nil, goerr.New("unknown inference backend", goerr.V("backend", cfg.Backend))
	}
}

func loadLibrary(ctx context.Context, cfg *config.Config) (*knowledge.Library, error) {
	sources := make([]knowledge.Source, 0, len(cfg.Knowledge))
	for _, k := range cfg.Knowledge {
		sources = append(sources, knowledge.Source{
			Name:     k.Name,
			Path:     k.Path,
			Intro:    k.Intro,
			Keywords: k.Keywords,
		})
	}
	return knowledge.LoadLibrary(ctx, sources)
}

func searchOptions(cfg config.RetrievalConfig) knowledge.SearchOptions {
	return knowledge.SearchOptions{
		MinTokenLength:   cfg.MinTokenLength,
		TopSections:      cfg.TopSections,
		CharBudget:       cfg.CharBudget,
		NoTermsSections:  cfg.NoTermsSections,
		NoMatchSections:  cfg.NoMatchSections,
		RawFallbackChars: cfg.RawFallbackChars,
	}
}

// buildServices creates one conversation service, with its own session
// store, per configured persona.
func buildServices(
	cfg *config.Config,
	lib *knowledge.Library,
	client domain.InferenceClient,
) ([]*conversation.Service, error) {
	services := make([]*conversation.Service, 0, len(cfg.Personas))
	for _, pc := range cfg.Personas {
		persona, err := conversation.BuildPersona(pc, lib)
		if err != nil {
			return nil, err
		}

		services = append(services, conversation.NewService(
			persona,
			client,
			memory.NewSessionStore(),
			conversation.WithModel(cfg.Inference.Model),
			conversation.WithGenerationOptions(domain.GenerationOptions{
				Temperature: cfg.Inference.Temperature,
				NumPredict:  cfg.Inference.NumPredict,
				NumCtx:      cfg.Inference.NumCtx,
			}),
			conversation.WithSearchOptions(searchOptions(cfg.Retrieval)),
			conversation.WithNoKnowledgePhrases(cfg.NoKnowledgePhrases),
		))
	}
	return services, nil
}
