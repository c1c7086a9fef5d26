package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMockPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresStoreColumn(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM subscribers ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("jane@example.com").AddRow("john@example.com"))

	col, err := s.Column(context.Background(), ColEmail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(col) != 3 || col[0] != "Email" || col[2] != "john@example.com" {
		t.Errorf("unexpected column: %v", col)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStoreRow(t *testing.T) {
	s, mock := newMockPostgres(t)
	cols := []string{"name", "email", "subscribed_at", "ip_address", "country", "region", "city", "latitude", "longitude"}
	mock.ExpectQuery("SELECT .* FROM subscribers ORDER BY id OFFSET \\$1 LIMIT 1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("John", "john@example.com", "2024-02-01 08:00:00", "", "CA", "ON", "Toronto", 43.7, -79.4))
	mock.ExpectQuery("SELECT .* FROM subscribers ORDER BY id OFFSET \\$1 LIMIT 1").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(cols))

	rec, err := s.Row(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Email != "john@example.com" || rec.Timestamp != "2024-02-01 08:00:00" || rec.Latitude != 43.7 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if _, err := s.Row(context.Background(), 7); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
	if _, err := s.Row(context.Background(), 1); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("header row: expected ErrRowOutOfRange, got %v", err)
	}
}

func TestPostgresStoreAppendDuplicate(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectExec("INSERT INTO subscribers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO subscribers").
		WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectExec("INSERT INTO subscribers").
		WillReturnError(errors.New("connection reset"))

	ctx := context.Background()
	rec := Record{Name: "Jane", Email: "jane@example.com"}
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Append(ctx, rec); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := s.Append(ctx, rec); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestPostgresStoreDeleteRow(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectExec("DELETE FROM subscribers").WithArgs(0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM subscribers").WithArgs(8).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteRow(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.DeleteRow(context.Background(), 10); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStoreInitialize(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS subscribers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("TRUNCATE subscribers").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
