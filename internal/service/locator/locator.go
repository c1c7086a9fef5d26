// Package locator resolves client IP addresses to approximate locations.
// Lookups are best effort: callers substitute Unknown on any error.
package locator

import (
	"context"
	"errors"
)

// UnknownValue fills text fields when a lookup fails.
const UnknownValue = "unknown"

// ErrLookupFailed marks a lookup that produced no usable location.
var ErrLookupFailed = errors.New("location lookup failed")

// Location is the enrichment attached to a subscriber row.
type Location struct {
	Country   string
	Region    string
	City      string
	Latitude  float64
	Longitude float64
}

// Unknown returns the placeholder used when enrichment is unavailable.
func Unknown() Location {
	return Location{Country: UnknownValue, Region: UnknownValue, City: UnknownValue}
}

// Locator looks up an IP address.
type Locator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}

// Nop never resolves anything.
type Nop struct{}

func (Nop) Locate(context.Context, string) (Location, error) {
	return Unknown(), ErrLookupFailed
}

// orUnknown replaces empty text fields with UnknownValue.
func (l Location) orUnknown() Location {
	if l.Country == "" {
		l.Country = UnknownValue
	}
	if l.Region == "" {
		l.Region = UnknownValue
	}
	if l.City == "" {
		l.City = UnknownValue
	}
	return l
}
