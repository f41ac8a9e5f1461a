package domain

import "context"

// GenerationOptions are the fixed sampling parameters sent with every chat call.
type GenerationOptions struct {
	Temperature float64
	NumPredict  int
	NumCtx      int
}

// ChatRequest is a full transcript to be completed by the inference server.
type ChatRequest struct {
	Model    string
	Messages []Message
	Options  GenerationOptions
}

// InferenceClient defines how the relay talks to a model server.
type InferenceClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	ListModels(ctx context.Context) ([]string, error)

	// Name is a human readable backend name used in replies ("Ollama").
	Name() string
	// Endpoint is where the backend lives, for status and error replies.
	Endpoint() string
}

// Troubleshooter is optionally implemented by inference clients that can
// tell the user how to fix an unreachable or slow server.
type Troubleshooter interface {
	UnreachableHint(model string) string
	TimeoutHint(model string) string
}

// SessionStore keeps one transcript per user id.
type SessionStore interface {
	// LockUser serializes turns for a user. The returned func releases it.
	LockUser(userID UserID) (unlock func())

	// BeginTurn creates the session with seed messages if it is absent and
	// appends msg in one step. It returns a copy of the resulting transcript.
	BeginTurn(userID UserID, seed []Message, msg Message) (sess *Session, created bool, err error)
	AppendMessages(userID UserID, msgs ...Message) error
	GetSession(userID UserID) (*Session, error)
	DeleteSession(userID UserID) (bool, error)
	CountSessions() int
}
