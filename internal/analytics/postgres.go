package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Column lists per known table. Insert order is fixed so statements are stable.
var tableColumns = map[string][]string{
	"company_events": {
		"ts", "type", "company", "purchased", "provisioned", "serial_number", "box_name",
	},
	"user_events": {
		"ts", "type", "user", "company", "call_duration", "call_type", "call_num_users",
		"call_os", "rating", "comment", "session_id", "dialin_duration",
		"ticket_number", "ticket_driver",
	},
}

// statementRows caps rows per INSERT statement so parameter counts stay under
// the Postgres limit; one InsertRows call is still a single transaction.
const statementRows = 1000

// PostgresTable implements Table on typed Postgres event tables.
type PostgresTable struct {
	db *sql.DB
}

// NewPostgresTable returns an analytics table store backed by the given db.
func NewPostgresTable(db *sql.DB) *PostgresTable {
	return &PostgresTable{db: db}
}

// Truncate removes every row from table.
func (t *PostgresTable) Truncate(ctx context.Context, table string) error {
	if _, ok := tableColumns[table]; !ok {
		return fmt.Errorf("analytics: unknown table %q", table)
	}
	_, err := t.db.ExecContext(ctx, fmt.Sprintf(`TRUNCATE TABLE %q`, table))
	return classify(table, err)
}

// InsertRows appends rows to table inside one transaction. Missing columns are
// written as NULL. Returns how many rows were inserted (0 or len(rows)).
func (t *PostgresTable) InsertRows(ctx context.Context, table string, rows []Row) (int, error) {
	cols, ok := tableColumns[table]
	if !ok {
		return 0, fmt.Errorf("analytics: unknown table %q", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(table, err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(rows); start += statementRows {
		end := min(start+statementRows, len(rows))
		stmt, args := buildInsert(table, cols, rows[start:end])
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return 0, classify(table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, classify(table, err)
	}
	return len(rows), nil
}

func buildInsert(table string, cols []string, rows []Row) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO ` + fmt.Sprintf("%q", table) + ` (`)
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", c)
	}
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	n := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, c := range cols {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", n)
			n++
			args = append(args, row[c])
		}
		sb.WriteByte(')')
	}
	return sb.String(), args
}

// classify maps Postgres undefined_table (SQLSTATE 42P01) onto ErrTableMissing
// so the ingestor can retry on structure, not on error text.
func classify(table string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w: %s: %v", ErrTableMissing, table, err)
	}
	return fmt.Errorf("analytics: %s: %w", table, err)
}
