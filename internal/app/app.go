// Package app assembles the pipeline from configuration. The HTTP server,
// the cloud function and the sheet CLI all build their dependencies here.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/janisto/subscriber-pipeline/internal/config"
	"github.com/janisto/subscriber-pipeline/internal/http/v1/routes"
	"github.com/janisto/subscriber-pipeline/internal/platform/auth"
	"github.com/janisto/subscriber-pipeline/internal/platform/google"
	"github.com/janisto/subscriber-pipeline/internal/platform/lock"
	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
	"github.com/janisto/subscriber-pipeline/internal/service/campaign"
	"github.com/janisto/subscriber-pipeline/internal/service/locator"
	"github.com/janisto/subscriber-pipeline/internal/service/mailer"
	"github.com/janisto/subscriber-pipeline/internal/service/store"
	"github.com/janisto/subscriber-pipeline/internal/service/subscriber"
	"github.com/janisto/subscriber-pipeline/internal/service/templates"
)

// App is a fully wired pipeline.
type App struct {
	Handler     http.Handler
	Subscribers *subscriber.Manager
	Campaigns   *campaign.Dispatcher

	closers []func() error
}

// New builds every collaborator named by cfg. Anything opened before a
// failure is closed again.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}
	if err := a.build(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.Config) error {
	var clients *google.Clients
	if needsGoogle(cfg) {
		var err error
		if clients, err = a.googleClients(ctx, cfg); err != nil {
			return err
		}
	}

	recordStore, err := a.openStore(ctx, cfg, clients)
	if err != nil {
		return err
	}
	loc, err := a.openLocator(cfg)
	if err != nil {
		return err
	}
	m, err := NewMailer(ctx, cfg)
	if err != nil {
		return err
	}
	loader := templates.NewCachedLoader(newTemplateLoader(cfg, clients), cfg.Templates.CacheTTL)
	renderer := templates.NewRenderer()

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		redisOpts, perr := redis.ParseURL(cfg.Redis.URL)
		if perr != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", perr)
		}
		rdb = redis.NewClient(redisOpts)
		a.closers = append(a.closers, rdb.Close)
	}

	opts := []subscriber.Option{}
	if rdb != nil {
		opts = append(opts, subscriber.WithLocker(lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)))
	}
	if cfg.Welcome.Enabled {
		opts = append(opts, subscriber.WithNotifier(subscriber.NewWelcomeMailer(loader, renderer, m, subscriber.WelcomeConfig{
			Template:      cfg.Welcome.Template,
			Subject:       cfg.Welcome.Subject,
			Advertisement: cfg.Welcome.Advertisement,
		})))
	}
	a.Subscribers = subscriber.NewManager(recordStore, loc, opts...)
	a.Campaigns = campaign.NewDispatcher(recordStore, loader, renderer, m, newLedger(cfg, rdb, clients))

	svc := routes.Services{Subscribers: a.Subscribers, Campaigns: a.Campaigns}
	if cfg.AdminAuthEnabled {
		svc.Verifier = auth.NewFirebaseVerifier(clients.Auth)
	}
	a.Handler = NewRouter(svc, RouterConfig{Version: cfg.Version, Metrics: cfg.MetricsEnabled})

	applog.LogInfo(ctx, "pipeline initialized",
		zap.String("store", cfg.Store),
		zap.String("templates", cfg.Templates.Source),
		zap.String("mail", cfg.Mail.Transport),
		zap.String("locator", cfg.Locator.Backend),
		zap.String("ledger", cfg.Ledger),
		zap.Bool("adminAuth", cfg.AdminAuthEnabled),
	)
	return nil
}

// Close waits for in-flight welcome emails and releases clients.
func (a *App) Close() error {
	if a.Subscribers != nil {
		a.Subscribers.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenRecordStore opens only the configured Record Store. The closer
// releases whatever was opened for it.
func OpenRecordStore(ctx context.Context, cfg *config.Config) (store.RecordStore, func() error, error) {
	a := &App{}
	var clients *google.Clients
	if cfg.Store == config.StoreSheets {
		var err error
		if clients, err = a.googleClients(ctx, cfg); err != nil {
			_ = a.Close()
			return nil, nil, err
		}
	}
	s, err := a.openStore(ctx, cfg, clients)
	if err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	return s, a.Close, nil
}

func needsGoogle(cfg *config.Config) bool {
	return cfg.Store == config.StoreSheets ||
		cfg.Templates.Source == config.TemplatesDrive ||
		cfg.Ledger == config.LedgerFirestore ||
		cfg.AdminAuthEnabled
}

func (a *App) googleClients(ctx context.Context, cfg *config.Config) (*google.Clients, error) {
	source, closeSource, err := CredentialSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeSource != nil {
		a.closers = append(a.closers, closeSource)
	}
	clients, err := google.InitializeClients(ctx, google.Config{
		ProjectID:     cfg.ProjectID,
		Source:        source,
		WithAuth:      cfg.AdminAuthEnabled,
		WithFirestore: cfg.Ledger == config.LedgerFirestore,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, clients.Close)
	return clients, nil
}

// CredentialSource chains the configured credential sources: Vault, then
// Secret Manager, then the local file. The returned closer may be nil.
func CredentialSource(ctx context.Context, cfg *config.Config) (google.Source, func() error, error) {
	var chain google.ChainSource
	var closer func() error
	if cfg.Credentials.Vault != "" {
		v, err := google.NewVaultSource(cfg.Credentials.Vault)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, v)
	}
	if cfg.Credentials.Secret != "" {
		sm, err := google.NewSecretManagerSource(ctx, cfg.ProjectID, cfg.Credentials.Secret)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, sm)
		closer = sm.Close
	}
	if cfg.Credentials.File != "" {
		chain = append(chain, google.FileSource{Path: cfg.Credentials.File})
	}
	return chain, closer, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, clients *google.Clients) (store.RecordStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StorePostgres:
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		return pg, nil
	default:
		return OpenSheetsStore(cfg, clients), nil
	}
}

// OpenSheetsStore binds the subscriber spreadsheet by id, or by name through
// Drive. Name lookup is deferred to the first store call.
func OpenSheetsStore(cfg *config.Config, clients *google.Clients) *store.SheetsStore {
	if cfg.SheetID != "" {
		return store.NewSheetsStore(clients.Sheets, cfg.SheetID)
	}
	return store.NewSheetsStoreByName(clients.Sheets, clients.Drive, cfg.SheetName)
}

func (a *App) openLocator(cfg *config.Config) (locator.Locator, error) {
	switch cfg.Locator.Backend {
	case config.LocatorNone:
		return locator.Nop{}, nil
	case config.LocatorGeoIP:
		g, err := locator.OpenGeoIP(cfg.Locator.GeoIPPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g.Close)
		return g, nil
	default:
		return locator.NewIPAPIClient(&http.Client{},
			locator.WithBaseURL(cfg.Locator.URL),
			locator.WithTimeout(cfg.Locator.Timeout),
		), nil
	}
}

// NewMailer builds the configured transport.
func NewMailer(ctx context.Context, cfg *config.Config) (mailer.Mailer, error) {
	from := mailer.Sender{Email: cfg.Mail.Sender(), Name: cfg.Mail.FromName}
	switch cfg.Mail.Transport {
	case config.MailLog:
		return mailer.LogMailer{}, nil
	case config.MailSES:
		return mailer.NewSESMailer(ctx, mailer.SESConfig{
			Region:    cfg.Mail.SES.Region,
			AccessKey: cfg.Mail.SES.AccessKey,
			SecretKey: cfg.Mail.SES.SecretKey,
		}, from)
	default:
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Mail.SMTP.Server,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
		}, from), nil
	}
}

func newTemplateLoader(cfg *config.Config, clients *google.Clients) templates.Loader {
	if cfg.Templates.Source == config.TemplatesFile {
		return templates.NewFileLoader(cfg.Templates.Dir)
	}
	return templates.NewDriveLoader(clients.Drive, cfg.Templates.Folder)
}

func newLedger(cfg *config.Config, rdb *redis.Client, clients *google.Clients) campaign.Ledger {
	switch cfg.Ledger {
	case config.LedgerMemory:
		return campaign.NewMemoryLedger()
	case config.LedgerRedis:
		return campaign.NewRedisLedger(rdb, 0)
	case config.LedgerFirestore:
		return campaign.NewFirestoreLedger(clients.Firestore)
	default:
		return campaign.NopLedger{}
	}
}
