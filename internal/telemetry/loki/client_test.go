package loki

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestPushEvent_SendsStreamWithLabels(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ts := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	err := PushEvent(context.Background(), srv.URL, ts, `{"stage":"users"}`, map[string]string{
		"stage":  "users",
		"status": "completed",
	})
	if err != nil {
		t.Fatalf("PushEvent: %v", err)
	}

	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	stream := got.Streams[0]
	if stream.Stream["job"] != "successhq" {
		t.Errorf("job label = %q", stream.Stream["job"])
	}
	if stream.Stream["stage"] != "users" || stream.Stream["status"] != "completed" {
		t.Errorf("labels = %v", stream.Stream)
	}
	if len(stream.Values) != 1 || stream.Values[0][1] != `{"stage":"users"}` {
		t.Errorf("values = %v", stream.Values)
	}
}

func TestPushEvent_SanitizesLabelValues(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := PushEvent(context.Background(), srv.URL, time.Now(), "line", map[string]string{
		"stage": "user events!",
	})
	if err != nil {
		t.Fatalf("PushEvent: %v", err)
	}
	if got.Streams[0].Stream["stage"] != "user_events_" {
		t.Errorf("stage label = %q", got.Streams[0].Stream["stage"])
	}
}

func TestPushEvent_EmptyBaseURL(t *testing.T) {
	if err := PushEvent(context.Background(), "", time.Now(), "line", nil); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestPushEvent_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := PushEvent(context.Background(), srv.URL, time.Now(), "line", nil); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestPushEventJSON_ExtractsLabelsAndTimestamp(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	raw := []byte(`{"run_id":"run-1","stage":"renewals","status":"completed","created_at":"2026-02-01T10:00:00Z"}`)
	if err := PushEventJSON(context.Background(), srv.URL, raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}

	stream := got.Streams[0]
	if stream.Stream["run_id"] != "run-1" || stream.Stream["stage"] != "renewals" {
		t.Errorf("labels = %v", stream.Stream)
	}
	wantNS := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC).UnixNano()
	if stream.Values[0][0] != strconv.FormatInt(wantNS, 10) {
		t.Errorf("timestamp = %s, want %d", stream.Values[0][0], wantNS)
	}
}
