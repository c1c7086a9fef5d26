package subscriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/janisto/subscriber-pipeline/internal/platform/lock"
	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
	"github.com/janisto/subscriber-pipeline/internal/platform/metrics"
	"github.com/janisto/subscriber-pipeline/internal/platform/timeutil"
	"github.com/janisto/subscriber-pipeline/internal/service/locator"
	"github.com/janisto/subscriber-pipeline/internal/service/store"
)

const (
	// deleteLockKey serializes row deletes, which shift later positions.
	deleteLockKey   = "store:delete"
	maxReadAttempts = 3
	welcomeTimeout  = 30 * time.Second
)

// errRowMoved signals that a row read after a scan no longer holds the email.
var errRowMoved = errors.New("row moved during read")

// Manager implements Service on a RecordStore.
type Manager struct {
	store    store.RecordStore
	locator  locator.Locator
	locker   lock.Locker
	notifier Notifier
	now      func() time.Time

	wg sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker replaces the default in-process locker.
func WithLocker(l lock.Locker) Option {
	return func(m *Manager) { m.locker = l }
}

// WithNotifier enables the welcome email after each insert.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithClock overrides the clock used for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager. A nil locator disables enrichment.
func NewManager(s store.RecordStore, loc locator.Locator, opts ...Option) *Manager {
	if loc == nil {
		loc = locator.Nop{}
	}
	m := &Manager{
		store:   s,
		locator: loc,
		locker:  lock.NewKeyedMutex(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe stores a new subscriber unless the email is already present.
func (m *Manager) Subscribe(ctx context.Context, params SubscribeParams) (*SubscribeResult, error) {
	email := Normalize(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	ip := Normalize(params.IPAddress)
	ctx = applog.WithFields(ctx, zap.String("subscriber", applog.RedactEmail(email)))

	loc := m.locate(ctx, ip)

	unlock, err := m.locker.Lock(ctx, "subscriber:"+email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer unlock()

	existing, _, err := m.find(ctx, email)
	if err != nil {
		m.auditFailure(ctx, "subscribe", ip, email, err)
		metrics.SubscriptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if existing != nil {
		applog.LogInfo(ctx, "subscriber already present")
		applog.LogAuditEvent(ctx, "subscribe", ip, "subscriber", applog.RedactEmail(email), "success",
			map[string]any{"created": false})
		metrics.SubscriptionsTotal.WithLabelValues("existing").Inc()
		return &SubscribeResult{Subscriber: *existing}, nil
	}

	name := Normalize(params.Name)
	if name == "" {
		name = AnonymousName
	}
	sub := Subscriber{
		Name:      name,
		Email:     email,
		Timestamp: timeutil.FormatRow(m.now()),
		IPAddress: ip,
		Country:   Normalize(loc.Country),
		Region:    Normalize(loc.Region),
		City:      Normalize(loc.City),
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}
	if err := m.store.Append(ctx, sub.record()); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Another instance inserted between scan and append.
			if existing, _, ferr := m.find(ctx, email); ferr == nil && existing != nil {
				metrics.SubscriptionsTotal.WithLabelValues("existing").Inc()
				return &SubscribeResult{Subscriber: *existing}, nil
			}
		}
		m.auditFailure(ctx, "subscribe", ip, email, err)
		metrics.SubscriptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	applog.LogAuditEvent(ctx, "subscribe", ip, "subscriber", applog.RedactEmail(email), "success",
		map[string]any{"created": true, "country": sub.Country})
	metrics.SubscriptionsTotal.WithLabelValues("created").Inc()
	m.welcome(ctx, sub)

	return &SubscribeResult{Subscriber: sub, Created: true}, nil
}

// Unsubscribe deletes the first row holding email.
func (m *Manager) Unsubscribe(ctx context.Context, email string) (*UnsubscribeResult, error) {
	email = Normalize(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	ctx = applog.WithFields(ctx, zap.String("subscriber", applog.RedactEmail(email)))

	unlock, err := m.locker.Lock(ctx, "subscriber:"+email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer unlock()
	unlockStore, err := m.locker.Lock(ctx, deleteLockKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer unlockStore()

	existing, pos, err := m.find(ctx, email)
	if err != nil {
		m.auditFailure(ctx, "unsubscribe", "", email, err)
		metrics.UnsubscriptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if existing == nil {
		metrics.UnsubscriptionsTotal.WithLabelValues("not_found").Inc()
		return &UnsubscribeResult{}, nil
	}
	if err := m.store.DeleteRow(ctx, pos); err != nil {
		m.auditFailure(ctx, "unsubscribe", "", email, err)
		metrics.UnsubscriptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	applog.LogAuditEvent(ctx, "unsubscribe", "", "subscriber", applog.RedactEmail(email), "success",
		map[string]any{"position": pos})
	metrics.UnsubscriptionsTotal.WithLabelValues("deleted").Inc()
	return &UnsubscribeResult{Subscriber: *existing, Position: pos, Found: true}, nil
}

// List returns every stored subscriber passing filter, in row order.
func (m *Manager) List(ctx context.Context, filter Filter) ([]Subscriber, error) {
	rows, err := m.store.Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Subscriber, 0, len(rows))
	for _, r := range rows {
		s := fromRecord(r)
		if filter.Match(s) {
			out = append(out, s)
		}
	}
	if filter.active() {
		applog.LogInfo(ctx, "subscribers filtered", zap.Int("total", len(rows)), zap.Int("matched", len(out)))
	}
	return out, nil
}

// Wait blocks until in-flight welcome emails finish.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// index maps each normalized email to the position of its first row.
func (m *Manager) index(ctx context.Context) (map[string]int, error) {
	col, err := m.store.Column(ctx, store.ColEmail)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(col))
	for i := 1; i < len(col); i++ {
		e := Normalize(col[i])
		if e == "" {
			continue
		}
		if _, seen := idx[e]; !seen {
			idx[e] = i + 1
		}
	}
	return idx, nil
}

// find returns the stored row for email and its position, or nil when absent.
func (m *Manager) find(ctx context.Context, email string) (*Subscriber, int, error) {
	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		idx, err := m.index(ctx)
		if err != nil {
			return nil, 0, err
		}
		pos, ok := idx[email]
		if !ok {
			return nil, 0, nil
		}
		rec, err := m.store.Row(ctx, pos)
		if err != nil && !errors.Is(err, store.ErrRowOutOfRange) {
			return nil, 0, err
		}
		if err == nil && Normalize(rec.Email) == email {
			s := fromRecord(rec)
			return &s, pos, nil
		}
		applog.LogWarn(ctx, "row shifted between scan and read, rescanning", zap.Int("position", pos))
	}
	return nil, 0, fmt.Errorf("%w: %v", store.ErrUnavailable, errRowMoved)
}

func (m *Manager) locate(ctx context.Context, ip string) locator.Location {
	if ip == "" {
		metrics.LocatorLookupsTotal.WithLabelValues("degraded").Inc()
		return locator.Unknown()
	}
	loc, err := m.locator.Locate(ctx, ip)
	if err != nil {
		applog.LogWarn(ctx, "geolocation degraded", zap.Error(err))
		metrics.LocatorLookupsTotal.WithLabelValues("degraded").Inc()
		return locator.Unknown()
	}
	metrics.LocatorLookupsTotal.WithLabelValues("ok").Inc()
	return loc
}

func (m *Manager) welcome(ctx context.Context, sub Subscriber) {
	if m.notifier == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeTimeout)
		defer cancel()
		if err := m.notifier.Welcome(ctx, sub); err != nil {
			applog.LogWarn(ctx, "welcome email failed", zap.Error(err))
			metrics.WelcomeEmailsTotal.WithLabelValues("failed").Inc()
			return
		}
		metrics.WelcomeEmailsTotal.WithLabelValues("sent").Inc()
	}()
}

func (m *Manager) auditFailure(ctx context.Context, action, actor, email string, err error) {
	applog.LogAuditEvent(ctx, action, actor, "subscriber", applog.RedactEmail(email), "failure",
		map[string]any{"error": categorizeError(err)})
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, store.ErrSpreadsheetNotFound):
		return "spreadsheet_not_found"
	case errors.Is(err, store.ErrUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

// Compile-time interface check
var _ Service = (*Manager)(nil)
