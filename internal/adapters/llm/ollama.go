package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/PabloGalante/persona-relay/internal/domain"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	defaultChatTimeout = 300 * time.Second
	defaultListTimeout = 5 * time.Second
	maxErrorBody       = 4 << 10
)

// OllamaClient talks to a local Ollama server over its native REST API.
type OllamaClient struct {
	baseURL     string
	client      *http.Client
	chatTimeout time.Duration
	listTimeout time.Duration
}

type OllamaOption func(*OllamaClient)

func WithHTTPClient(c *http.Client) OllamaOption {
	return func(o *OllamaClient) { o.client = c }
}

// WithTimeouts overrides the chat and model-listing timeouts. Zero keeps the default.
func WithTimeouts(chat, list time.Duration) OllamaOption {
	return func(o *OllamaClient) {
		if chat > 0 {
			o.chatTimeout = chat
		}
		if list > 0 {
			o.listTimeout = list
		}
	}
}

func NewOllamaClient(baseURL string, opts ...OllamaOption) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	c := &OllamaClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{},
		chatTimeout: defaultChatTimeout,
		listTimeout: defaultListTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (o *OllamaClient) Name() string { return "Ollama" }

func (o *OllamaClient) Endpoint() string { return o.baseURL }

// UnreachableHint lists the setup steps for a local Ollama install.
func (o *OllamaClient) UnreachableHint(model string) string {
	return fmt.Sprintf("Please:\n1. Install Ollama from https://ollama.com\n2. Run: ollama pull %s\n3. Make sure Ollama is running", model)
}

func (o *OllamaClient) TimeoutHint(string) string {
	return "1. Run: ollama pull llama3.2:1b\n2. Set RELAY_INFERENCE_MODEL=llama3.2:1b\n3. Restart the relay"
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChatResponse struct {
	Message *ollamaMessage `json:"message"`
	Done    bool           `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Chat implements domain.InferenceClient. An empty string with a nil error
// means the server answered without message content.
func (o *OllamaClient) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	body := ollamaChatRequest{
		Model:    req.Model,
		Messages: make([]ollamaMessage, 0, len(req.Messages)),
		Stream:   false,
		Options: ollamaOptions{
			Temperature: req.Options.Temperature,
			NumPredict:  req.Options.NumPredict,
			NumCtx:      req.Options.NumCtx,
		},
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal chat request")
	}

	ctx, cancel := context.WithTimeout(ctx, o.chatTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err, o.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", o.statusError(resp)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if isTimeout(err) {
			return "", classifyTransportError(err, o.baseURL)
		}
		return "", goerr.Wrap(err, "failed to decode chat response", goerr.V("model", req.Model))
	}
	if out.Message == nil {
		return "", nil
	}
	return out.Message.Content, nil
}

// ListModels returns the names of locally available models.
func (o *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.listTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build tags request")
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, o.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.statusError(resp)
	}

	var out ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, goerr.Wrap(err, "failed to decode tags response")
	}

	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *OllamaClient) statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return goerr.Wrap(&StatusError{
		StatusCode: resp.StatusCode,
		Body:       truncate(strings.TrimSpace(string(b)), 200),
	}, "inference server returned error status", goerr.V("endpoint", o.baseURL))
}
