package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}, KindRejection},
		{"quota", fmt.Errorf("wrapped: %w", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}), KindRejection},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, KindTransport},
		{"request error forbidden", &openai.RequestError{HTTPStatusCode: http.StatusForbidden, Err: errors.New("denied")}, KindRejection},
		{"ark unauthorized", fmt.Errorf("failed to run AI chain: %w", &arkmodel.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "invalid api key"}), KindRejection},
		{"ark rate limited", fmt.Errorf("failed to run AI chain: %w", &arkmodel.RequestError{HTTPStatusCode: http.StatusTooManyRequests, Err: errors.New("rate limited")}), KindRejection},
		{"ark server error", &arkmodel.APIError{HTTPStatusCode: http.StatusInternalServerError}, KindTransport},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTransport},
		{"canceled", context.Canceled, KindTransport},
		{"empty reply", ErrEmptyReply, KindMalformed},
		{"unknown", errors.New("boom"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.want {
				t.Fatalf("Classify(%v) kind = %s, want %s", tt.err, got.Kind, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Fatalf("classified error should wrap the original")
			}
		})
	}
}

func TestClassifyKeepsExistingKind(t *testing.T) {
	original := &Error{Kind: KindRejection, Err: errors.New("quota")}
	wrapped := fmt.Errorf("outer: %w", original)

	if got := Classify(wrapped); got != original {
		t.Fatalf("expected the already classified error back, got %v", got)
	}
	if Classify(nil) != nil {
		t.Fatal("nil should classify to nil")
	}
}

func TestUserMessageDiffersByKind(t *testing.T) {
	transport := (&Error{Kind: KindTransport}).UserMessage()
	rejection := (&Error{Kind: KindRejection}).UserMessage()
	malformed := (&Error{Kind: KindMalformed}).UserMessage()

	if transport == rejection || transport == malformed || rejection == malformed {
		t.Fatal("each kind should have its own user message")
	}
}
