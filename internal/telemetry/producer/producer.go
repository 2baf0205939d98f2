// Package producer emits pipeline events to a message broker for downstream
// consumers such as the log-shipping worker.
package producer

import (
	"context"

	"success-hq/backend/internal/telemetry"
)

// Producer emits pipeline events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single pipeline event. Implementations may block briefly; call from a goroutine if needed.
	Emit(ctx context.Context, event *telemetry.PipelineEvent) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
