package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/PabloGalante/persona-relay/internal/domain"
)

type VertexClient struct {
	client   *genai.Client
	project  string
	location string
}

// NewVertexClient creates an InferenceClient backed by Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, projectID, location string) (*VertexClient, error) {
	if projectID == "" || location == "" {
		return nil, goerr.New("vertex project and location must be set",
			goerr.V("project", projectID), goerr.V("location", location))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "creating Vertex AI client")
	}

	return &VertexClient{
		client:   client,
		project:  projectID,
		location: location,
	}, nil
}

func (v *VertexClient) Name() string { return "Vertex AI" }

func (v *VertexClient) Endpoint() string {
	return fmt.Sprintf("vertex://%s/%s", v.project, v.location)
}

// Chat implements domain.InferenceClient using Vertex AI.
func (v *VertexClient) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	// System messages go to the system instruction, the rest is the conversation.
	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	temp := float32(req.Options.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.Options.NumPredict),
	}
	if len(system) > 0 {
		// genai has no system role; the instruction is carried as user content
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	res, err := v.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		if isTimeout(err) {
			return "", classifyTransportError(err, v.Endpoint())
		}
		return "", goerr.Wrap(err, "vertex generate content", goerr.V("model", req.Model))
	}

	return res.Text(), nil
}

func (v *VertexClient) UnreachableHint(string) string {
	return fmt.Sprintf("Please:\n1. Run: gcloud auth application-default login\n2. Check that Vertex AI is enabled for project %s in %s", v.project, v.location)
}

func (v *VertexClient) TimeoutHint(string) string {
	return "Try again in a moment or pick a faster model."
}

func (v *VertexClient) ListModels(ctx context.Context) ([]string, error) {
	page, err := v.client.Models.List(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "vertex list models")
	}

	names := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		names = append(names, m.Name)
	}
	return names, nil
}
