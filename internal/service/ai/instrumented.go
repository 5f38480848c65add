package ai

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
)

// Instrumented records a span and metrics around every model call.
type Instrumented struct {
	next     Generator
	provider string
	tracer   trace.Tracer
	duration metric.Float64Histogram
	failures metric.Int64Counter
	context  metric.Int64Histogram
}

// NewInstrumented wraps next with tracing and metrics from tracer and meter.
func NewInstrumented(next Generator, provider string, tracer trace.Tracer, meter metric.Meter) (*Instrumented, error) {
	duration, err := meter.Float64Histogram(
		"llm.request.duration",
		metric.WithDescription("Model request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	failures, err := meter.Int64Counter(
		"llm.failures",
		metric.WithDescription("Failed model requests by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("create failure counter: %w", err)
	}

	contextTurns, err := meter.Int64Histogram(
		"llm.context.turns",
		metric.WithDescription("Number of turns replayed to the model per request"),
	)
	if err != nil {
		return nil, fmt.Errorf("create context histogram: %w", err)
	}

	return &Instrumented{
		next:     next,
		provider: provider,
		tracer:   tracer,
		duration: duration,
		failures: failures,
		context:  contextTurns,
	}, nil
}

// GenerateReply implements Generator.
func (i *Instrumented) GenerateReply(ctx context.Context, system string, turns []chat.Turn) (string, error) {
	providerAttr := attribute.String("llm.provider", i.provider)

	ctx, span := i.tracer.Start(ctx, "llm.generate_reply", trace.WithAttributes(
		providerAttr,
		attribute.Int("llm.context.turns", len(turns)),
	))
	defer span.End()

	start := time.Now()
	reply, err := i.next.GenerateReply(ctx, system, turns)
	elapsed := float64(time.Since(start).Milliseconds())

	i.duration.Record(ctx, elapsed, metric.WithAttributes(providerAttr))
	i.context.Record(ctx, int64(len(turns)), metric.WithAttributes(providerAttr))

	if err != nil {
		classified := Classify(err)
		i.failures.Add(ctx, 1, metric.WithAttributes(providerAttr, attribute.String("kind", string(classified.Kind))))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(classified.Kind))
		return "", classified
	}

	span.SetAttributes(attribute.Int("llm.reply.length", len(reply)))
	return reply, nil
}
