package docstore

import (
	"context"
	"sync"
	"sync/atomic"
)

// ReplacerConfig bounds the replacement work.
type ReplacerConfig struct {
	// DeleteBatchSize is how many refs are deleted per batch.
	DeleteBatchSize int
	// Concurrency is the deletion worker pool size. At most 2x this many
	// submitted batches may be unresolved at once.
	Concurrency int
	// InsertBatchSize is how many documents are written per multi-set.
	InsertBatchSize int
}

// DefaultReplacerConfig mirrors the store's batch limits.
var DefaultReplacerConfig = ReplacerConfig{
	DeleteBatchSize: 500,
	Concurrency:     10,
	InsertBatchSize: 500,
}

// Replacer rebuilds a collection: delete everything, then bulk-insert the new
// record set. Deletion is the only concurrent phase; inserts are sequential.
type Replacer struct {
	store Store
	cfg   ReplacerConfig
}

// NewReplacer returns a Replacer over store. Non-positive config fields fall
// back to DefaultReplacerConfig.
func NewReplacer(store Store, cfg ReplacerConfig) *Replacer {
	if cfg.DeleteBatchSize <= 0 {
		cfg.DeleteBatchSize = DefaultReplacerConfig.DeleteBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultReplacerConfig.Concurrency
	}
	if cfg.InsertBatchSize <= 0 {
		cfg.InsertBatchSize = DefaultReplacerConfig.InsertBatchSize
	}
	return &Replacer{store: store, cfg: cfg}
}

// ReplaceResult reports how much work a Replace performed.
type ReplaceResult struct {
	Deleted  int
	Inserted int
}

// Replace deletes every document in collection, then writes records in batches.
// On failure it returns a *StoreError preserving the deletion count achieved so
// far. Delete-then-insert is not atomic across the two phases; a crash
// mid-replace leaves the collection empty or partially populated.
func (r *Replacer) Replace(ctx context.Context, collection string, records []any) (ReplaceResult, error) {
	deleted, err := r.deleteAll(ctx, collection)
	res := ReplaceResult{Deleted: deleted}
	if err != nil {
		return res, &StoreError{Op: "delete", Collection: collection, Deleted: deleted, Err: err}
	}

	for start := 0; start < len(records); start += r.cfg.InsertBatchSize {
		end := min(start+r.cfg.InsertBatchSize, len(records))
		if err := r.store.InsertBatch(ctx, collection, records[start:end]); err != nil {
			return res, &StoreError{Op: "insert", Collection: collection, Deleted: deleted, Err: err}
		}
		res.Inserted = end
	}
	return res, nil
}

type deleteJob struct {
	refs []Ref
	done chan error
}

// deleteAll streams refs, batches them, and deletes batches on a bounded worker
// pool. At most 2x Concurrency submitted batches may be unresolved; when the cap
// is hit, submission blocks on the oldest outstanding batch. A batch failure
// stops further submission, but batches already in flight run to completion.
func (r *Replacer) deleteAll(ctx context.Context, collection string) (int, error) {
	it, err := r.store.StreamRefs(ctx, collection)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var (
		deleted atomic.Int64
		wg      sync.WaitGroup
		jobs    = make(chan deleteJob)
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				err := r.store.DeleteBatch(ctx, j.refs)
				if err == nil {
					deleted.Add(int64(len(j.refs)))
				}
				j.done <- err
			}
		}()
	}

	var (
		pending  []chan error // FIFO of unresolved batches
		firstErr error
		batch    = make([]Ref, 0, r.cfg.DeleteBatchSize)
	)
	submit := func(refs []Ref) {
		done := make(chan error, 1)
		jobs <- deleteJob{refs: refs, done: done}
		pending = append(pending, done)
	}
	awaitOldest := func() {
		err := <-pending[0]
		pending = pending[1:]
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for it.Next() {
		batch = append(batch, it.Ref())
		if len(batch) >= r.cfg.DeleteBatchSize {
			submit(batch)
			batch = make([]Ref, 0, r.cfg.DeleteBatchSize)
			if len(pending) >= 2*r.cfg.Concurrency {
				awaitOldest()
				if firstErr != nil {
					break
				}
			}
		}
	}
	if firstErr == nil {
		if err := it.Err(); err != nil {
			firstErr = err
		}
	}
	if firstErr == nil && len(batch) > 0 {
		submit(batch)
	}
	close(jobs)

	for len(pending) > 0 {
		awaitOldest()
	}
	wg.Wait()

	return int(deleted.Load()), firstErr
}

// UpdateByMatch merges patch into the single document in collection whose field
// equals value. Returns ErrNotFound (wrapped in a *StoreError) when no document
// matches, leaving other documents untouched.
func (r *Replacer) UpdateByMatch(ctx context.Context, collection, field, value string, patch map[string]any) error {
	ref, _, err := r.store.FindOne(ctx, collection, field, value)
	if err != nil {
		return &StoreError{Op: "find", Collection: collection, Err: err}
	}
	if err := r.store.Merge(ctx, ref, patch); err != nil {
		return &StoreError{Op: "merge", Collection: collection, Err: err}
	}
	return nil
}

// Upsert merges patch into the document with the given id, creating it when absent.
func (r *Replacer) Upsert(ctx context.Context, collection, id string, patch map[string]any) error {
	if err := r.store.Upsert(ctx, collection, id, patch); err != nil {
		return &StoreError{Op: "upsert", Collection: collection, Err: err}
	}
	return nil
}
