package seedsource

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestFetchUsers_NoLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT email, company, offset_days FROM seed_users ORDER BY email`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "company", "offset_days"}).
			AddRow("a@acme.com", "Acme", 120).
			AddRow("b@globex.com", "Globex", 30))

	src := NewPostgresSource(db)
	users, err := src.FetchUsers(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	if users[0].Email != "a@acme.com" || users[0].Company != "Acme" || users[0].OffsetDays != 120 {
		t.Errorf("users[0] = %+v", users[0])
	}
}

func TestFetchUsers_Limit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT email, company, offset_days FROM seed_users ORDER BY email LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"email", "company", "offset_days"}))

	src := NewPostgresSource(db)
	users, err := src.FetchUsers(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("users = %d, want 0", len(users))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
