package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
)

var (
	ErrInvalidCode      = errors.New("'code' must be a non-empty string")
	ErrInvalidLanguages = errors.New("'translateTo' must be an array of non-empty strings")
)

// Request asks for a review of Code, optionally translated to each language
// in TranslateTo.
type Request struct {
	Code        string   `json:"code"`
	TranslateTo []string `json:"translateTo,omitempty"`
}

// Validate checks the request shape.
func (r Request) Validate() error {
	// 只拒绝空串, 仅含空白的代码仍交给模型审查
	if r.Code == "" {
		return ErrInvalidCode
	}
	for _, lang := range r.TranslateTo {
		if strings.TrimSpace(lang) == "" {
			return ErrInvalidLanguages
		}
	}
	return nil
}

// Service produces one-shot code reviews. Reviews are independent of chat
// sessions: every request is a single user turn.
type Service struct {
	generator ai.Generator
	system    string
	cache     Cache
	logger    *slog.Logger
}

// NewService creates a review service. cache may be nil.
func NewService(generator ai.Generator, system string, cache Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		generator: generator,
		system:    system,
		cache:     cache,
		logger:    logger.With("component", "review"),
	}
}

// Review returns the model's review for req.
func (s *Service) Review(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	prompt := BuildPrompt(req)
	key := CacheKey(s.system, prompt)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("cache read failed", "error", err)
		} else if ok {
			s.logger.Info("cache hit", "key", key[:16])
			return cached, nil
		}
	}

	response, err := s.generator.GenerateReply(ctx, s.system, []chat.Turn{chat.UserTurn(prompt)})
	if err != nil {
		return "", fmt.Errorf("generate review: %w", ai.Classify(err))
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, response); err != nil {
			s.logger.Warn("cache write failed", "error", err)
		}
	}

	s.logger.Info("review generated", "targets", len(req.TranslateTo), "length", len(response))
	return response, nil
}
