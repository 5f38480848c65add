package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

// Kind classifies a failed model call.
type Kind string

const (
	// KindTransport covers network failures, timeouts and cancellation.
	KindTransport Kind = "transport"
	// KindRejection covers authentication, permission and quota failures
	// reported by the remote service.
	KindRejection Kind = "rejection"
	// KindMalformed covers replies that could not be decoded or were empty.
	KindMalformed Kind = "malformed"
)

// ErrEmptyReply is returned when the model answered without any text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Error is the tagged failure produced at the model client boundary.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ai %s failure: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user in place of the missing reply.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindRejection:
		return "The model service rejected the request (authentication or quota). Please check the configuration or try again later."
	case KindMalformed:
		return "The model returned a response that could not be read. Please retry."
	default:
		return "Failed to get a response, please retry."
	}
}

// Classify wraps err into an *Error. Errors that are already classified are
// returned unchanged; nil stays nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	return &Error{Kind: classifyKind(err), Err: err}
}

func classifyKind(err error) Kind {
	if errors.Is(err, ErrEmptyReply) {
		return KindMalformed
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return kindForStatus(reqErr.HTTPStatusCode)
	}

	// ark 的错误经 eino chain 包装后仍可 Unwrap
	var arkAPIErr *arkmodel.APIError
	if errors.As(err, &arkAPIErr) {
		return kindForStatus(arkAPIErr.HTTPStatusCode)
	}

	var arkReqErr *arkmodel.RequestError
	if errors.As(err, &arkReqErr) {
		return kindForStatus(arkReqErr.HTTPStatusCode)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindMalformed
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}

	return KindTransport
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return KindRejection
	case status >= 400 && status < 500:
		return KindRejection
	default:
		return KindTransport
	}
}
