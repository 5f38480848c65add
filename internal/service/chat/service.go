package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/model/persona"
	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrSessionNotFound = errors.New("session not found")
	ErrPersonaNotFound = errors.New("persona not found")
)

// Option customizes a Service.
type Option func(*Service)

// WithTimeout bounds every model call made by sessions of the service.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger handed to sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service tracks the live sessions. Each connection or REST client gets its
// own Session; sessions are dropped with DiscardSession and never persisted.
type Service struct {
	generator   ai.Generator
	personas    persona.Store
	prompts     *ai.PersonaPromptManager
	timeout     time.Duration
	logger      *slog.Logger
	submissions metric.Int64Counter

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates the session registry.
func NewService(generator ai.Generator, personas persona.Store, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		personas:  personas,
		prompts:   ai.NewPersonaPromptManager(),
		logger:    slog.Default(),
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chat")

	counter, err := otel.Meter("github.com/zhouzirui/code-mentor/backend/internal/service/chat").Int64Counter(
		"chat.submissions",
		metric.WithDescription("Chat submissions by outcome"),
	)
	if err != nil {
		s.logger.Warn("failed to create submissions counter", "error", err)
		counter = noop.Int64Counter{}
	}
	s.submissions = counter

	return s
}

// CreateSession provisions an empty session bound to a persona. An empty
// personaID selects the mentor persona.
func (s *Service) CreateSession(_ context.Context, personaID string) (*Session, error) {
	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return nil, ErrPersonaNotFound
	}

	info := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: p.ID,
		CreatedAt: time.Now().UTC(),
	}
	session := NewSession(info, s.prompts.BuildSystemPrompt(p), s.generator, s.timeout, s.logger)
	session.submissions = s.submissions

	s.mu.Lock()
	s.sessions[info.ID] = session
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", info.ID, "persona", p.ID)
	return session, nil
}

// GetSession retrieves a live session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DiscardSession forgets a session and its turns.
func (s *Service) DiscardSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.logger.Info("session discarded", "session_id", sessionID, "turns", session.Len())
	return nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
