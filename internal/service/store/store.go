// Package store holds the Record Store adapters. A store is an ordered table
// whose first row is the header; data rows start at position 2 and positions
// are 1-based, like spreadsheet rows.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Header is the fixed column schema.
var Header = []string{"Name", "Email", "Timestamp", "IP Address", "Country", "Region", "City", "Latitude", "Longitude"}

// Column positions (1-based).
const (
	ColName = iota + 1
	ColEmail
	ColTimestamp
	ColIPAddress
	ColCountry
	ColRegion
	ColCity
	ColLatitude
	ColLongitude
)

// FirstDataRow is the position of the first subscriber row.
const FirstDataRow = 2

// Store errors
var (
	ErrUnavailable         = errors.New("record store unavailable")
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrRowOutOfRange       = errors.New("row position out of range")
	ErrDuplicate           = errors.New("email already stored")
)

// Record is one subscriber row.
type Record struct {
	Name      string
	Email     string
	Timestamp string
	IPAddress string
	Country   string
	Region    string
	City      string
	Latitude  float64
	Longitude float64
}

// Cells returns the record in header order.
func (r Record) Cells() []any {
	return []any{r.Name, r.Email, r.Timestamp, r.IPAddress, r.Country, r.Region, r.City, r.Latitude, r.Longitude}
}

// Strings returns the record in header order as display strings.
func (r Record) Strings() []string {
	return []string{
		r.Name, r.Email, r.Timestamp, r.IPAddress, r.Country, r.Region, r.City,
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
	}
}

// Field returns the value of column col (1-based) as a string.
func (r Record) Field(col int) string {
	s := r.Strings()
	if col < 1 || col > len(s) {
		return ""
	}
	return s[col-1]
}

// RecordFromCells builds a record from a raw row. Missing trailing cells are
// zero values and coordinates accept numbers or numeric strings.
func RecordFromCells(cells []any) Record {
	str := func(i int) string {
		if i >= len(cells) || cells[i] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(cells[i]))
	}
	num := func(i int) float64 {
		if i >= len(cells) {
			return 0
		}
		switch v := cells[i].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		default:
			f, _ := strconv.ParseFloat(str(i), 64)
			return f
		}
	}
	return Record{
		Name:      str(ColName - 1),
		Email:     str(ColEmail - 1),
		Timestamp: str(ColTimestamp - 1),
		IPAddress: str(ColIPAddress - 1),
		Country:   str(ColCountry - 1),
		Region:    str(ColRegion - 1),
		City:      str(ColCity - 1),
		Latitude:  num(ColLatitude - 1),
		Longitude: num(ColLongitude - 1),
	}
}

// RecordStore is the table the subscriber pipeline reads and mutates.
type RecordStore interface {
	// Column returns every value of column col, header included at index 0.
	Column(ctx context.Context, col int) ([]string, error)
	// Row reads the record at a 1-based position.
	Row(ctx context.Context, pos int) (Record, error)
	// Rows returns every data row in order, header excluded.
	Rows(ctx context.Context) ([]Record, error)
	// Append adds a record after the last row.
	Append(ctx context.Context, rec Record) error
	// DeleteRow removes the row at pos; later rows shift up by one.
	DeleteRow(ctx context.Context, pos int) error
}

// Initializer prepares an empty table with the header row.
type Initializer interface {
	Initialize(ctx context.Context) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
