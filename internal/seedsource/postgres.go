package seedsource

import (
	"context"
	"database/sql"
)

// PostgresSource reads seed users from the seed_users table.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource returns a seed-user source backed by the given db.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// FetchUsers returns seed users ordered by email, capped at limit when positive.
func (s *PostgresSource) FetchUsers(ctx context.Context, limit int) ([]SeedUser, error) {
	query := `SELECT email, company, offset_days FROM seed_users ORDER BY email`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []SeedUser
	for rows.Next() {
		var u SeedUser
		if err := rows.Scan(&u.Email, &u.Company, &u.OffsetDays); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
