package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/persona-relay/internal/adapters/http"
	"github.com/PabloGalante/persona-relay/internal/adapters/llm"
	"github.com/PabloGalante/persona-relay/internal/adapters/storage/memory"
	"github.com/PabloGalante/persona-relay/internal/app/conversation"
	"github.com/PabloGalante/persona-relay/internal/domain"
)

type downLLM struct{}

func (downLLM) Name() string     { return "Ollama" }
func (downLLM) Endpoint() string { return "http://localhost:11434" }
func (downLLM) Chat(context.Context, domain.ChatRequest) (string, error) {
	return "", llm.ErrUnreachable
}
func (downLLM) ListModels(context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

func newServices(client domain.InferenceClient) []*conversation.Service {
	ahmed := conversation.Persona{
		Name:         "ahmed",
		Route:        "/chat",
		Status:       "Ahmed backend is live",
		Note:         "local",
		SystemPrompt: "You are Ahmed.",
		EmptyReply:   "Sorry, Ahmed did not respond.",
	}
	aasho := conversation.Persona{
		Name:         "aasho",
		Route:        "/aasho_chat",
		Status:       "Aasho backend is live",
		SystemPrompt: "You are Aasho.",
		EmptyReply:   "Sorry, Aasho did not respond.",
	}
	return []*conversation.Service{
		conversation.NewService(ahmed, client, memory.NewSessionStore(), conversation.WithModel("llama3.2:1b")),
		conversation.NewService(aasho, client, memory.NewSessionStore(), conversation.WithModel("llama3.2:1b")),
	}
}

func newTestServer(t *testing.T, opts ...httpadapter.ServerOption) http.Handler {
	t.Helper()
	return httpadapter.NewServer(newServices(llm.NewMockLLM()), opts...)
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body=%s", w.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodOptions, "/chat", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRootStatus(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Ahmed backend is live", body["status"])
	assert.Equal(t, "Mock", body["backend"])
	assert.Equal(t, "mock://local", body["inference_url"])
	assert.Equal(t, "llama3.2:1b", body["model"])
	assert.Equal(t, []any{"ahmed", "aasho"}, body["personas"])

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/nope", "").Code)
}

func TestChat(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/chat", `{"text":"hello","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["reply"], "hello")

	w = do(t, srv, http.MethodPost, "/aasho_chat", `{"text":"hey there"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["reply"], "hey there")
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, `{"text":`, http.StatusBadRequest},
		{"missing text", http.MethodPost, `{"user_id":"u1"}`, http.StatusBadRequest},
		{"blank text", http.MethodPost, `{"text":"   "}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, "/chat", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestChatInferenceDownStillOK(t *testing.T) {
	srv := httpadapter.NewServer(newServices(downLLM{}))

	w := do(t, srv, http.MethodPost, "/chat", `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["reply"], "Cannot connect to Ollama at http://localhost:11434")
}

func TestModels(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/models", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"mock"}, decode(t, w)["models"])

	w = do(t, httpadapter.NewServer(newServices(downLLM{})), http.MethodGet, "/models", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{}, body["models"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestHistoryAndClear(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/history?user_id=u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/chat", `{"text":"hi","user_id":"u1"}`).Code)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/aasho_chat", `{"text":"hi","user_id":"u1"}`).Code)

	w = do(t, srv, http.MethodGet, "/history?user_id=u1&persona=aasho", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "aasho", body["persona"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 3)

	// persona-scoped clear leaves the other persona alone
	w = do(t, srv, http.MethodPost, "/clear?user_id=u1&persona=ahmed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Conversation history cleared", decode(t, w)["status"])
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/history?user_id=u1", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/history?user_id=u1&persona=aasho", "").Code)

	// body form, all personas
	w = do(t, srv, http.MethodPost, "/clear", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/history?user_id=u1&persona=aasho", "").Code)
}

func TestClearValidation(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodGet, "/clear", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/clear?persona=nobody", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/clear", `{bad`).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/clear", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/history?persona=nobody", "").Code)
}

func TestStaticAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte(`{"ok":true}`), 0o644))

	srv := newTestServer(t, httpadapter.WithStatic("/hiyori/", dir))
	w := do(t, srv, http.MethodGet, "/hiyori/model.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	srv = newTestServer(t, httpadapter.WithStatic("/hiyori/", filepath.Join(dir, "missing")))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/hiyori/model.json", "").Code)
}

type clearOnStartStore struct {
	*memory.SessionStore
}

func (c clearOnStartStore) BeginTurn(userID domain.UserID, seed []domain.Message, msg domain.Message) (*domain.Session, bool, error) {
	sess, created, err := c.SessionStore.BeginTurn(userID, seed, msg)
	_, _ = c.DeleteSession(userID)
	return sess, created, err
}

func TestChatClearedMidTurnStillOK(t *testing.T) {
	persona := conversation.Persona{Name: "ahmed", Route: "/chat", SystemPrompt: "You are Ahmed."}
	svc := conversation.NewService(persona, llm.NewMockLLM(), clearOnStartStore{memory.NewSessionStore()})
	srv := httpadapter.NewServer([]*conversation.Service{svc})

	w := do(t, srv, http.MethodPost, "/chat", `{"text":"hello","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["reply"], "hello")
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/history?user_id=u1", "").Code)
}
