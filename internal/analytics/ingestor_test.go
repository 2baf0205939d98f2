package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeTable scripts InsertRows outcomes and records calls.
type fakeTable struct {
	truncated []string
	inserts   []int // rows per InsertRows call
	// transientUntil: calls numbered <= this (1-based) fail with ErrTableMissing.
	transientUntil int
	insertErr      error // non-transient error for every call when set
	calls          int
}

func (f *fakeTable) Truncate(ctx context.Context, table string) error {
	f.truncated = append(f.truncated, table)
	return nil
}

func (f *fakeTable) InsertRows(ctx context.Context, table string, rows []Row) (int, error) {
	f.calls++
	f.inserts = append(f.inserts, len(rows))
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	if f.calls <= f.transientUntil {
		return 0, fmt.Errorf("%w: %s", ErrTableMissing, table)
	}
	return len(rows), nil
}

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"company": "Acme", "type": "purchased", "purchased": i}
	}
	return rows
}

func newTestIngestor(table Table, cfg IngestorConfig) (*Ingestor, *[]time.Duration) {
	ing := NewIngestor(table, cfg)
	var slept []time.Duration
	ing.sleep = func(d time.Duration) { slept = append(slept, d) }
	return ing, &slept
}

func TestInsert_Chunks(t *testing.T) {
	table := &fakeTable{}
	ing, _ := newTestIngestor(table, IngestorConfig{ChunkSize: 10})

	n, err := ing.Insert(context.Background(), "company_events", makeRows(25))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n != 25 {
		t.Errorf("inserted = %d, want 25", n)
	}
	want := []int{10, 10, 5}
	if len(table.inserts) != len(want) {
		t.Fatalf("InsertRows calls = %v, want %v", table.inserts, want)
	}
	for i, w := range want {
		if table.inserts[i] != w {
			t.Errorf("call %d size = %d, want %d", i, table.inserts[i], w)
		}
	}
}

func TestInsert_TransientTwiceThenSucceeds(t *testing.T) {
	table := &fakeTable{transientUntil: 2}
	ing, slept := newTestIngestor(table, IngestorConfig{ChunkSize: 100, RetryBase: time.Second})

	n, err := ing.Insert(context.Background(), "company_events", makeRows(40))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n != 40 {
		t.Errorf("inserted = %d, want 40", n)
	}
	if table.calls != 3 {
		t.Errorf("InsertRows calls = %d, want 3", table.calls)
	}
	if len(*slept) != 2 {
		t.Fatalf("retry sleeps = %d, want 2", len(*slept))
	}
	if (*slept)[0] != time.Second || (*slept)[1] != 2*time.Second {
		t.Errorf("sleeps = %v, want [1s 2s]", *slept)
	}
}

func TestInsert_TransientExhaustsAttempts(t *testing.T) {
	table := &fakeTable{transientUntil: 1 << 30}
	ing, slept := newTestIngestor(table, IngestorConfig{ChunkSize: 100, MaxAttempts: 3, RetryBase: time.Second})

	n, err := ing.Insert(context.Background(), "user_events", makeRows(10))
	if err == nil {
		t.Fatal("Insert should fail when the table never appears")
	}
	if !errors.Is(err, ErrTableMissing) {
		t.Errorf("err = %v, want ErrTableMissing in chain", err)
	}
	if table.calls != 3 {
		t.Errorf("InsertRows calls = %d, want exactly 3 attempts", table.calls)
	}
	if len(*slept) != 2 {
		t.Errorf("retry sleeps = %d, want 2 (no sleep after the final attempt)", len(*slept))
	}
	if n != 0 {
		t.Errorf("inserted = %d, want 0", n)
	}
}

func TestInsert_NonTransientFailsImmediately(t *testing.T) {
	table := &fakeTable{insertErr: errors.New("permission denied")}
	ing, slept := newTestIngestor(table, IngestorConfig{ChunkSize: 100})

	_, err := ing.Insert(context.Background(), "user_events", makeRows(10))
	if err == nil {
		t.Fatal("Insert should fail")
	}
	if errors.Is(err, ErrTableMissing) {
		t.Error("non-transient error must not be classified as table-missing")
	}
	if table.calls != 1 {
		t.Errorf("InsertRows calls = %d, want 1 (no retry)", table.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("retry sleeps = %d, want 0", len(*slept))
	}
}

func TestInsert_LaterChunkFailureReportsPartialCount(t *testing.T) {
	// First chunk succeeds; every later call fails non-transiently.
	table := &failFromTable{failFrom: 2, err: errors.New("stream closed")}
	ing, _ := newTestIngestor(table, IngestorConfig{ChunkSize: 10})

	n, err := ing.Insert(context.Background(), "user_events", makeRows(25))
	if err == nil {
		t.Fatal("Insert should fail on second chunk")
	}
	if n != 10 {
		t.Errorf("inserted = %d, want 10 (first chunk only)", n)
	}
}

// failFromTable succeeds until call number failFrom, then fails every call.
type failFromTable struct {
	calls    int
	failFrom int
	err      error
}

func (f *failFromTable) Truncate(ctx context.Context, table string) error { return nil }

func (f *failFromTable) InsertRows(ctx context.Context, table string, rows []Row) (int, error) {
	f.calls++
	if f.calls >= f.failFrom {
		return 0, f.err
	}
	return len(rows), nil
}

func TestTruncate_Passthrough(t *testing.T) {
	table := &fakeTable{}
	ing, _ := newTestIngestor(table, IngestorConfig{})
	if err := ing.Truncate(context.Background(), "company_events"); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if len(table.truncated) != 1 || table.truncated[0] != "company_events" {
		t.Errorf("truncated = %v, want [company_events]", table.truncated)
	}
}
