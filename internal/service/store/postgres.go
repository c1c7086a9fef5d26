package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS subscribers (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	subscribed_at TEXT NOT NULL,
	ip_address    TEXT NOT NULL,
	country       TEXT NOT NULL,
	region        TEXT NOT NULL,
	city          TEXT NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude     DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS subscribers_email_key ON subscribers (email);`

const selectColumns = `name, email, subscribed_at, ip_address, country, region, city, latitude, longitude`

// columnNames maps schema positions to table columns.
var columnNames = map[int]string{
	ColName:      "name",
	ColEmail:     "email",
	ColTimestamp: "subscribed_at",
	ColIPAddress: "ip_address",
	ColCountry:   "country",
	ColRegion:    "region",
	ColCity:      "city",
	ColLatitude:  "latitude::text",
	ColLongitude: "longitude::text",
}

type pgRecord struct {
	Name         string  `db:"name"`
	Email        string  `db:"email"`
	SubscribedAt string  `db:"subscribed_at"`
	IPAddress    string  `db:"ip_address"`
	Country      string  `db:"country"`
	Region       string  `db:"region"`
	City         string  `db:"city"`
	Latitude     float64 `db:"latitude"`
	Longitude    float64 `db:"longitude"`
}

func (p pgRecord) record() Record {
	return Record{
		Name:      p.Name,
		Email:     p.Email,
		Timestamp: p.SubscribedAt,
		IPAddress: p.IPAddress,
		Country:   p.Country,
		Region:    p.Region,
		City:      p.City,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}
}

// PostgresStore implements RecordStore on a subscribers table. Row positions
// follow insertion order (id) offset by the virtual header row, and a unique
// index on email rejects duplicate inserts that race past the scan.
type PostgresStore struct {
	db *sqlx.DB
}

// OpenPostgres connects with the lib/pq driver.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an existing handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Column(ctx context.Context, col int) ([]string, error) {
	name, ok := columnNames[col]
	if !ok {
		return nil, fmt.Errorf("column %d outside schema", col)
	}
	var values []string
	if err := s.db.SelectContext(ctx, &values, "SELECT "+name+" FROM subscribers ORDER BY id"); err != nil {
		return nil, unavailable("read column", err)
	}
	return append([]string{Header[col-1]}, values...), nil
}

func (s *PostgresStore) Row(ctx context.Context, pos int) (Record, error) {
	if pos < FirstDataRow {
		return Record{}, ErrRowOutOfRange
	}
	var row pgRecord
	err := s.db.GetContext(ctx, &row,
		"SELECT "+selectColumns+" FROM subscribers ORDER BY id OFFSET $1 LIMIT 1", pos-FirstDataRow)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrRowOutOfRange
	}
	if err != nil {
		return Record{}, unavailable("read row", err)
	}
	return row.record(), nil
}

func (s *PostgresStore) Rows(ctx context.Context) ([]Record, error) {
	var rows []pgRecord
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+selectColumns+" FROM subscribers ORDER BY id"); err != nil {
		return nil, unavailable("read rows", err)
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (`+selectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.Name, rec.Email, rec.Timestamp, rec.IPAddress, rec.Country, rec.Region, rec.City, rec.Latitude, rec.Longitude)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return unavailable("append row", err)
	}
	return nil
}

func (s *PostgresStore) DeleteRow(ctx context.Context, pos int) error {
	if pos < FirstDataRow {
		return ErrRowOutOfRange
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscribers WHERE id = (SELECT id FROM subscribers ORDER BY id OFFSET $1 LIMIT 1)`,
		pos-FirstDataRow)
	if err != nil {
		return unavailable("delete row", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete row", err)
	}
	if n == 0 {
		return ErrRowOutOfRange
	}
	return nil
}

// Initialize creates the table and unique index, then removes every row.
func (s *PostgresStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return unavailable("create schema", err)
	}
	if _, err := s.db.ExecContext(ctx, "TRUNCATE subscribers RESTART IDENTITY"); err != nil {
		return unavailable("truncate", err)
	}
	return nil
}

// Compile-time interface checks
var (
	_ RecordStore = (*PostgresStore)(nil)
	_ Initializer = (*PostgresStore)(nil)
)
