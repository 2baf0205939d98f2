package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []*PipelineEvent
	err    error
	done   chan struct{}
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{done: make(chan struct{}, 16)}
}

func (r *recordingEmitter) Emit(_ context.Context, event *PipelineEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.done <- struct{}{}
	return r.err
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestEmitAsync_DeliversEvent(t *testing.T) {
	rec := newRecordingEmitter()
	event := &PipelineEvent{RunID: "r1", Stage: "users", Status: StatusCompleted, Count: 10}

	EmitAsync(rec, context.Background(), event)

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit never ran")
	}
	if rec.count() != 1 {
		t.Fatalf("events = %d, want 1", rec.count())
	}
}

func TestEmitAsync_NilEmitterAndEvent(t *testing.T) {
	// Must not panic or spawn goroutines.
	EmitAsync(nil, context.Background(), &PipelineEvent{})
	rec := newRecordingEmitter()
	EmitAsync(rec, context.Background(), nil)

	select {
	case <-rec.done:
		t.Fatal("emit ran for nil event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMulti_FansOut(t *testing.T) {
	a := newRecordingEmitter()
	b := newRecordingEmitter()
	m := Multi(a, nil, b)

	event := &PipelineEvent{RunID: "r1", Stage: "companies", Status: StatusStarted}
	if err := m.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("counts = %d/%d, want 1/1", a.count(), b.count())
	}
}

func TestMulti_ReportsFirstErrorAfterTryingAll(t *testing.T) {
	failed := newRecordingEmitter()
	failed.err = errors.New("broker down")
	after := newRecordingEmitter()
	m := Multi(failed, after)

	err := m.Emit(context.Background(), &PipelineEvent{RunID: "r1"})
	if !errors.Is(err, failed.err) {
		t.Fatalf("err = %v, want %v", err, failed.err)
	}
	if after.count() != 1 {
		t.Error("later emitter skipped after error")
	}
}
