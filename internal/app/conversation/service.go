package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/persona-relay/internal/adapters/llm"
	"github.com/PabloGalante/persona-relay/internal/app/knowledge"
	"github.com/PabloGalante/persona-relay/internal/domain"
	"github.com/PabloGalante/persona-relay/internal/observability"
)

type Service struct {
	persona Persona
	llm     domain.InferenceClient
	store   domain.SessionStore

	model         string
	options       domain.GenerationOptions
	searchOptions knowledge.SearchOptions
	noKnowledge   []string
	now           func() time.Time
}

type Option func(*Service)

func WithModel(model string) Option {
	return func(s *Service) { s.model = model }
}

func WithGenerationOptions(opts domain.GenerationOptions) Option {
	return func(s *Service) { s.options = opts }
}

func WithSearchOptions(opts knowledge.SearchOptions) Option {
	return func(s *Service) { s.searchOptions = opts }
}

// WithNoKnowledgePhrases replaces the phrases that mark a reply as "I don't know".
func WithNoKnowledgePhrases(phrases []string) Option {
	return func(s *Service) { s.noKnowledge = phrases }
}

func NewService(
	persona Persona,
	llmClient domain.InferenceClient,
	store domain.SessionStore,
	opts ...Option,
) *Service {
	s := &Service{
		persona: persona,
		llm:     llmClient,
		store:   store,
		options: domain.GenerationOptions{
			Temperature: 0.7,
			NumPredict:  256,
			NumCtx:      2048,
		},
		searchOptions: knowledge.DefaultSearchOptions(),
		noKnowledge:   knowledge.DefaultNoKnowledgePhrases,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Persona() Persona { return s.persona }

type SendMessageInput struct {
	UserID domain.UserID
	Text   string
}

type SendMessageOutput struct {
	Reply string

	// FallbackBase is the knowledge base whose text replaced the reply, if any.
	FallbackBase string
	// InferenceErr is set when the inference server failed; Reply then explains it.
	InferenceErr error
}

// SendMessage runs one chat turn. Inference failures do not return an error:
// they are turned into a user-facing reply.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	userID := in.UserID
	if userID == "" {
		userID = domain.DefaultUserID
	}

	log := observability.LoggerFromContext(ctx).With(
		"persona", s.persona.Name,
		"user_id", userID,
	)

	unlock := s.store.LockUser(userID)
	defer unlock()

	userMsg := domain.Message{
		Role:      domain.RoleUser,
		Content:   strings.TrimSpace(in.Text) + s.persona.UserSuffix,
		CreatedAt: s.now(),
	}
	session, created, err := s.store.BeginTurn(userID, []domain.Message{
		{Role: domain.RoleSystem, Content: s.persona.SystemPrompt},
	}, userMsg)
	if err != nil {
		log.Error("failed to start turn", "error", err)
		return nil, err
	}
	if created {
		log.Info("session started")
	}

	start := time.Now()
	reply, err := s.llm.Chat(ctx, domain.ChatRequest{
		Model:    s.model,
		Messages: session.Messages,
		Options:  s.options,
	})
	elapsed := time.Since(start)

	if err != nil {
		log.Error("inference failed",
			"backend", s.llm.Name(),
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err)

		out := &SendMessageOutput{
			Reply:        s.failureReply(err),
			InferenceErr: err,
		}
		if base, text := s.fallback(in.Text, preferLastBase(err)); text != "" {
			out.Reply = text
			out.FallbackBase = base
			log.Info("replaced failure reply with knowledge", "knowledge", base)
		}
		return out, nil
	}

	if reply == "" {
		reply = s.persona.EmptyReply
	}

	out := &SendMessageOutput{Reply: reply}
	if knowledge.IndicatesNoKnowledge(reply, s.noKnowledge) {
		if base, text := s.fallback(in.Text, false); text != "" {
			out.Reply = text
			out.FallbackBase = base
			log.Info("model had no answer, replied from knowledge", "knowledge", base)
		}
	}

	err = s.store.AppendMessages(userID, domain.Message{
		Role:      domain.RoleAssistant,
		Content:   out.Reply,
		CreatedAt: s.now(),
	})
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		// cleared while the model was answering
		log.Warn("session cleared during turn, reply not recorded")
	case err != nil:
		log.Error("failed to append assistant message", "error", err)
		return nil, err
	}

	log.Info("send message completed", "elapsed_ms", elapsed.Milliseconds(), "fallback", out.FallbackBase)
	return out, nil
}

// fallback returns a relevant knowledge base answer for query. Bases are
// tried in persona order; the first answer wins unless last is set, in which
// case later bases override earlier ones.
func (s *Service) fallback(query string, last bool) (string, string) {
	var name, answer string
	for _, b := range s.persona.Fallback {
		if !b.Matches(query) {
			continue
		}
		text := b.Answer(query, s.searchOptions)
		if text == "" {
			continue
		}
		if !last {
			return b.Name, text
		}
		name, answer = b.Name, text
	}
	return name, answer
}

// preferLastBase reports whether later fallback bases override earlier ones
// after a failed call. Only an error status from the server keeps the first match.
func preferLastBase(err error) bool {
	var se *llm.StatusError
	return !errors.As(err, &se)
}

func (s *Service) failureReply(err error) string {
	name, endpoint := s.llm.Name(), s.llm.Endpoint()
	hints, _ := s.llm.(domain.Troubleshooter)

	var se *llm.StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("❌ Error connecting to %s. Please make sure %s is running on %s", name, name, endpoint)
	case errors.Is(err, llm.ErrUnreachable):
		msg := fmt.Sprintf("❌ Cannot connect to %s at %s. Is %s running?", name, endpoint, name)
		if hints != nil {
			msg = withHint(msg, hints.UnreachableHint(s.model))
		}
		return msg
	case errors.Is(err, llm.ErrTimeout):
		msg := fmt.Sprintf("⏳ %s request timed out. The model might be too slow.", name)
		if hints != nil {
			msg = withHint(msg, hints.TimeoutHint(s.model))
		}
		return msg
	default:
		return fmt.Sprintf("❌ Error: %s", err.Error())
	}
}

func withHint(msg, hint string) string {
	if hint == "" {
		return msg
	}
	return msg + "\n\n" + hint
}

// ClearSession drops the user's transcript. It reports whether one existed.
func (s *Service) ClearSession(ctx context.Context, userID domain.UserID) (bool, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	deleted, err := s.store.DeleteSession(userID)
	if err != nil {
		return false, err
	}
	observability.LoggerFromContext(ctx).Info("session cleared",
		"persona", s.persona.Name,
		"user_id", userID,
		"existed", deleted)
	return deleted, nil
}

// GetTranscript returns a copy of the user's session.
func (s *Service) GetTranscript(ctx context.Context, userID domain.UserID) (*domain.Session, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	sess, err := s.store.GetSession(userID)
	if err != nil {
		return nil, err
	}
	observability.LoggerFromContext(ctx).Debug("fetched transcript",
		"persona", s.persona.Name,
		"user_id", userID,
		"message_count", len(sess.Messages))
	return sess, nil
}

func (s *Service) ListModels(ctx context.Context) ([]string, error) {
	return s.llm.ListModels(ctx)
}

type StatusInfo struct {
	Status   string
	Backend  string
	Endpoint string
	Model    string
	Note     string
	Sessions int
}

func (s *Service) Status() StatusInfo {
	return StatusInfo{
		Status:   s.persona.Status,
		Backend:  s.llm.Name(),
		Endpoint: s.llm.Endpoint(),
		Model:    s.model,
		Note:     s.persona.Note,
		Sessions: s.store.CountSessions(),
	}
}
