package analytics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IngestorConfig bounds chunking and retries.
type IngestorConfig struct {
	// ChunkSize is how many rows go into one InsertRows call.
	ChunkSize int
	// MaxAttempts is how many times a chunk is attempted when the table is
	// transiently missing. Other errors are never retried.
	MaxAttempts int
	// RetryBase is the first retry delay; it doubles on each further attempt.
	RetryBase time.Duration
}

// DefaultIngestorConfig matches the store's streaming limits.
var DefaultIngestorConfig = IngestorConfig{
	ChunkSize:   10000,
	MaxAttempts: 3,
	RetryBase:   time.Second,
}

// Ingestor chunks row sets into a Table, retrying chunks that hit the
// post-truncation table-missing race.
type Ingestor struct {
	table Table
	cfg   IngestorConfig

	// sleep is swapped in tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// NewIngestor returns an Ingestor over table. Non-positive config fields fall
// back to DefaultIngestorConfig.
func NewIngestor(table Table, cfg IngestorConfig) *Ingestor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultIngestorConfig.ChunkSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultIngestorConfig.MaxAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultIngestorConfig.RetryBase
	}
	return &Ingestor{table: table, cfg: cfg, sleep: time.Sleep}
}

// Truncate clears all rows from table.
func (i *Ingestor) Truncate(ctx context.Context, table string) error {
	return i.table.Truncate(ctx, table)
}

// Insert writes rows to table in chunks. A chunk failing with ErrTableMissing
// is retried up to MaxAttempts times with exponential backoff; any other error,
// or retry exhaustion, aborts the ingest. The first return value is how many
// rows were inserted before the failure, for diagnostics.
func (i *Ingestor) Insert(ctx context.Context, table string, rows []Row) (int, error) {
	total := 0
	for start := 0; start < len(rows); start += i.cfg.ChunkSize {
		end := min(start+i.cfg.ChunkSize, len(rows))
		n, err := i.insertChunk(ctx, table, rows[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (i *Ingestor) insertChunk(ctx context.Context, table string, chunk []Row) (int, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = i.cfg.RetryBase
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Reset()

	for attempt := 1; ; attempt++ {
		n, err := i.table.InsertRows(ctx, table, chunk)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, ErrTableMissing) {
			return 0, err
		}
		if attempt >= i.cfg.MaxAttempts {
			return 0, fmt.Errorf("analytics: insert %s: %d attempts exhausted: %w", table, attempt, err)
		}
		delay := b.NextBackOff()
		log.Printf("analytics: table %s missing on attempt %d, retrying in %s", table, attempt, delay)
		i.sleep(delay)
	}
}
