package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"success-hq/backend/internal/telemetry"
)

// NewEventEmitter returns an EventEmitter that sends pipeline events as OTel
// log records via the given LoggerProvider. If provider is nil, returns a
// no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("successhq.pipeline")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.PipelineEvent) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the pipeline event to an OTel log record and emits it.
// Best-effort; the record body is the event JSON.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.PipelineEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if body, err := json.Marshal(event); err == nil {
		rec.SetBody(otellog.BytesValue(body))
	}
	if event.RunID != "" {
		rec.AddAttributes(otellog.String("run_id", event.RunID))
	}
	if event.Stage != "" {
		rec.AddAttributes(otellog.String("stage", event.Stage))
	}
	if event.Status != "" {
		rec.AddAttributes(otellog.String("status", event.Status))
	}
	if event.Count > 0 {
		rec.AddAttributes(otellog.Int("count", event.Count))
	}
	if event.Error != "" {
		rec.AddAttributes(otellog.String("error", event.Error))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
