package review

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
	reviewService "github.com/zhouzirui/code-mentor/backend/internal/service/review"
)

func setupRouter(gen ai.GeneratorFunc) *chi.Mux {
	svc := reviewService.NewService(gen, "review code", reviewService.NewMemoryCache(0), nil)
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func post(r http.Handler, body string) (*httptest.ResponseRecorder, response) {
	req := httptest.NewRequest(http.MethodPost, "/review", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp response
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	return rec, resp
}

func TestReviewSuccess(t *testing.T) {
	r := setupRouter(func(_ context.Context, _ string, turns []chat.Turn) (string, error) {
		return "looks good", nil
	})

	rec, resp := post(r, `{"code":"print(1)","translateTo":["Go"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !resp.Success || resp.Response != "looks good" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestReviewValidation(t *testing.T) {
	r := setupRouter(func(context.Context, string, []chat.Turn) (string, error) {
		t.Fatal("model must not be called")
		return "", nil
	})

	cases := []string{
		`{"code":""}`,
		`{"code":"x","translateTo":[""]}`,
		`{"code":123}`,
		`not json`,
	}
	for _, body := range cases {
		rec, resp := post(r, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
		if resp.Success {
			t.Fatalf("body %s: expected success=false", body)
		}
	}
}

func TestReviewModelFailure(t *testing.T) {
	r := setupRouter(func(context.Context, string, []chat.Turn) (string, error) {
		return "", errors.New("connection refused")
	})

	rec, resp := post(r, `{"code":"print(1)"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
