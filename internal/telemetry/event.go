// Package telemetry emits dataset pipeline run events. Events flow to OTel
// logs for the collector and to Kafka for the log-shipping worker; both paths
// are best-effort and never fail a pipeline run.
package telemetry

import (
	"context"
	"time"
)

// Pipeline event statuses.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// PipelineEvent describes one stage transition of a dataset generation run.
// Count carries the number of records the stage produced, when it completed.
type PipelineEvent struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Count     int       `json:"count,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventEmitter emits pipeline events (e.g. to OTel Logs or Kafka).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *PipelineEvent) error
}

// Multi returns an emitter that fans out to every non-nil emitter in order
// and reports the first error after trying them all.
func Multi(emitters ...EventEmitter) EventEmitter {
	var active []EventEmitter
	for _, e := range emitters {
		if e != nil {
			active = append(active, e)
		}
	}
	return multiEmitter(active)
}

type multiEmitter []EventEmitter

func (m multiEmitter) Emit(ctx context.Context, event *PipelineEvent) error {
	var firstErr error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
