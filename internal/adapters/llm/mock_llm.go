package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/persona-relay/internal/domain"
)

type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Name() string { return "Mock" }

func (m *MockLLM) Endpoint() string { return "mock://local" }

func (m *MockLLM) Chat(_ context.Context, req domain.ChatRequest) (string, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return fmt.Sprintf("Wow, you said %q! Tell me more!", last), nil
}

func (m *MockLLM) ListModels(context.Context) ([]string, error) {
	return []string{"mock"}, nil
}
