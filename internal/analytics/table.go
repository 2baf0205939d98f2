// Package analytics defines the append-only event table store and the chunked,
// retrying ingestor that loads synthesized event rows into it.
package analytics

import (
	"context"
	"errors"
)

// Row is one event row keyed by column name. Columns missing from a row are
// written as NULL.
type Row map[string]any

// ErrTableMissing classifies an insert failure as "table transiently missing",
// the race seen immediately after truncation in eventually-consistent stores.
// Implementations must wrap this sentinel so callers never match on error text.
var ErrTableMissing = errors.New("analytics: table missing")

// Table is the analytics store collaborator.
type Table interface {
	// Truncate removes every row from table.
	Truncate(ctx context.Context, table string) error
	// InsertRows appends rows to table, returning how many were inserted.
	// A transiently-missing table is reported via ErrTableMissing.
	InsertRows(ctx context.Context, table string, rows []Row) (int, error)
}
