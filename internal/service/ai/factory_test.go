package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/zhouzirui/code-mentor/backend/internal/config"
	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
)

func TestNewGeneratorRecordsWindowedContext(t *testing.T) {
	var sent atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		var turns int64
		for _, m := range req.Messages {
			if m.Role != openai.ChatMessageRoleSystem {
				turns++
			}
		}
		sent.Store(turns)
		writeCompletion(w, "ok")
	}))
	defer srv.Close()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	gen, err := NewGenerator(context.Background(), config.AIConfig{
		Provider:          config.ProviderOpenAI,
		APIKey:            "test-key",
		BaseURL:           srv.URL + "/v1/",
		Model:             "test-model",
		HistoryTokenLimit: 40,
	}, WithInstrumentation(tracenoop.NewTracerProvider().Tracer("test"), meter))
	if err != nil {
		t.Fatalf("NewGenerator err: %v", err)
	}

	long := strings.Repeat("explain goroutines and channels in detail ", 3)
	turns := []chat.Turn{
		chat.UserTurn(long), chat.AssistantTurn(long),
		chat.UserTurn(long), chat.AssistantTurn(long),
		chat.UserTurn("and mutexes?"),
	}
	if _, err := gen.GenerateReply(context.Background(), "sys", turns); err != nil {
		t.Fatalf("GenerateReply err: %v", err)
	}

	if sent.Load() >= int64(len(turns)) {
		t.Fatalf("expected the window to trim history, sent %d turns", sent.Load())
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect err: %v", err)
	}

	recorded := int64(-1)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "llm.context.turns" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[int64])
			if !ok || len(hist.DataPoints) != 1 {
				t.Fatalf("unexpected histogram data %#v", m.Data)
			}
			recorded = hist.DataPoints[0].Sum
		}
	}
	if recorded != sent.Load() {
		t.Fatalf("llm.context.turns = %d, want the %d turns actually sent", recorded, sent.Load())
	}
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	if _, err := NewGenerator(context.Background(), config.AIConfig{Provider: "nope"}); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
