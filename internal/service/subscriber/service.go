// Package subscriber implements the subscribe and unsubscribe protocols over
// a Record Store, plus filtered listing.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/janisto/subscriber-pipeline/internal/service/store"
)

// Service errors
var (
	ErrValidation    = errors.New("validation failed")
	ErrEmailRequired = fmt.Errorf("%w: email is required", ErrValidation)
)

// AnonymousName replaces an empty subscriber name.
const AnonymousName = "anonymous"

// Subscriber is one stored row as seen by callers.
type Subscriber struct {
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

func fromRecord(r store.Record) Subscriber {
	return Subscriber(r)
}

func (s Subscriber) record() store.Record {
	return store.Record(s)
}

// SubscribeParams for subscribing. IPAddress comes from request metadata.
type SubscribeParams struct {
	Name      string
	Email     string
	IPAddress string
}

// SubscribeResult reports the stored row. Created is false when the email was
// already present, in which case Subscriber holds the existing row.
type SubscribeResult struct {
	Subscriber Subscriber
	Created    bool
}

// UnsubscribeResult reports the removed row. Found is false when no row
// matched; that is a normal outcome, not an error.
type UnsubscribeResult struct {
	Subscriber Subscriber
	Position   int
	Found      bool
}

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Start   *time.Time
	End     *time.Time
	Country string
	Region  string
	City    string
	// BadDate is set when a query date did not parse.
	BadDate bool
}

// Service defines subscriber operations.
//
// Implementations must normalize input data:
//   - Email: lowercase and trim whitespace
//   - Name, IP address and location: lowercase and trim whitespace
type Service interface {
	Subscribe(ctx context.Context, params SubscribeParams) (*SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) (*UnsubscribeResult, error)
	List(ctx context.Context, filter Filter) ([]Subscriber, error)
}

// Normalize trims and lower-cases a stored text field.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
