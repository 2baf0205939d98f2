package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PostgresStore implements Store on a single JSONB documents table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a document store backed by the given db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// StreamRefs streams document ids for collection. Only ids are selected, never payloads.
func (s *PostgresStore) StreamRefs(ctx context.Context, collection string) (RefIter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, err
	}
	return &rowsIter{rows: rows}, nil
}

type rowsIter struct {
	rows *sql.Rows
	cur  Ref
	err  error
}

func (it *rowsIter) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	var id string
	if err := it.rows.Scan(&id); err != nil {
		it.err = err
		return false
	}
	it.cur = Ref(id)
	return true
}

func (it *rowsIter) Ref() Ref { return it.cur }

func (it *rowsIter) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *rowsIter) Close() error { return it.rows.Close() }

// DeleteBatch removes the referenced documents in one statement.
func (s *PostgresStore) DeleteBatch(ctx context.Context, refs []Ref) error {
	if len(refs) == 0 {
		return nil
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = string(r)
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ANY($1::text[])`, textArray(ids))
	return err
}

// InsertBatch writes docs as one multi-row insert, assigning a fresh id per document.
func (s *PostgresStore) InsertBatch(ctx context.Context, collection string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args = make([]any, 0, len(docs)*3)
	)
	sb.WriteString(`INSERT INTO documents (id, collection, doc) VALUES `)
	for i, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("docstore: marshal document for %s: %w", collection, err)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, uuid.NewString(), collection, payload)
	}
	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// FindOne returns the single document whose top-level field equals value.
func (s *PostgresStore) FindOne(ctx context.Context, collection, field, value string) (Ref, map[string]any, error) {
	var (
		id      string
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, doc FROM documents WHERE collection = $1 AND doc->>$2 = $3 LIMIT 1`,
		collection, field, value).Scan(&id, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", nil, err
	}
	return Ref(id), doc, nil
}

// Merge shallow-merges patch into the referenced document via jsonb concatenation.
func (s *PostgresStore) Merge(ctx context.Context, ref Ref, patch map[string]any) error {
	payload, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET doc = doc || $2::jsonb WHERE id = $1`, string(ref), payload)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert merges patch into the document with the given id, creating it when absent.
func (s *PostgresStore) Upsert(ctx context.Context, collection, id string, patch map[string]any) error {
	payload, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, doc) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (id) DO UPDATE SET doc = documents.doc || EXCLUDED.doc`,
		id, collection, payload)
	return err
}

// textArray renders ids as a Postgres text[] array literal with each element
// quoted and escaped.
func textArray(ids []string) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(id))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}
