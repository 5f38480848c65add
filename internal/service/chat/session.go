package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
)

// Session owns the ordered turns of one conversation and mediates every
// exchange with the model.
//
// Submissions are serialized: a second Submit waits until the first one has
// appended its reply. Render never blocks on a pending model call.
type Session struct {
	info        chat.Session
	system      string
	generator   ai.Generator
	timeout     time.Duration
	logger      *slog.Logger
	submissions metric.Int64Counter

	submitMu sync.Mutex

	mu    sync.RWMutex
	turns []chat.Turn
}

// NewSession creates an empty session. system is the instruction sent with
// every request; timeout bounds each model call (0 means no timeout).
func NewSession(info chat.Session, system string, generator ai.Generator, timeout time.Duration, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		info:        info,
		system:      system,
		generator:   generator,
		timeout:     timeout,
		logger:      logger.With("session_id", info.ID),
		submissions: noop.Int64Counter{},
		turns:       make([]chat.Turn, 0, 16),
	}
}

// Info returns the session record.
func (s *Session) Info() chat.Session {
	return s.info
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.info.ID
}

// SubmitOption customizes a single Submit call.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	onPending func([]chat.Turn)
}

// WithPending registers fn to receive the rendered turns once the user turn
// is appended, before the model is called.
func WithPending(fn func([]chat.Turn)) SubmitOption {
	return func(o *submitOptions) { o.onPending = fn }
}

// Submit appends userText as a user turn, replays the conversation to the
// model and appends the reply.
//
// Whitespace-only input leaves the session untouched and returns
// ErrEmptyInput. When the model call fails a notice turn is appended in
// place of the reply and the classified *ai.Error is returned alongside the
// updated turns; the session stays usable.
func (s *Session) Submit(ctx context.Context, userText string, opts ...SubmitOption) ([]chat.Turn, error) {
	if strings.TrimSpace(userText) == "" {
		return s.Render(), ErrEmptyInput
	}

	var o submitOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	outbound := s.append(chat.UserTurn(userText))
	if o.onPending != nil {
		o.onPending(s.Render())
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.generator.GenerateReply(callCtx, s.system, outbound)
	if err != nil {
		aiErr := ai.Classify(err)
		s.append(chat.NoticeTurn(string(aiErr.Kind), aiErr.UserMessage()))
		s.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(aiErr.Kind))))
		s.logger.Warn("model call failed", "kind", aiErr.Kind, "error", aiErr.Err)
		return s.Render(), aiErr
	}

	s.append(chat.AssistantTurn(reply))
	s.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	s.logger.Info("reply appended", "context_turns", len(outbound), "reply_length", len(reply))
	return s.Render(), nil
}

// Render returns a copy of the turns in insertion order.
func (s *Session) Render() []chat.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Turn, len(s.turns))
	copy(copied, s.turns)
	return copied
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// append adds turn and returns the replayable context: every non-notice
// turn up to and including the new one.
func (s *Session) append(turn chat.Turn) []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn)

	outbound := make([]chat.Turn, 0, len(s.turns))
	for _, t := range s.turns {
		if !t.IsNotice() {
			outbound = append(outbound, t)
		}
	}
	return outbound
}
