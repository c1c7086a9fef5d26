// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSheets   = "sheets"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Template sources.
const (
	TemplatesDrive = "drive"
	TemplatesFile  = "file"
)

// Mail transports.
const (
	MailSMTP = "smtp"
	MailSES  = "ses"
	MailLog  = "log"
)

// Locator backends.
const (
	LocatorIPAPI = "ipapi"
	LocatorGeoIP = "geoip"
	LocatorNone  = "none"
)

// Campaign ledger backends.
const (
	LedgerNone      = "none"
	LedgerMemory    = "memory"
	LedgerRedis     = "redis"
	LedgerFirestore = "firestore"
)

// Config is the full process configuration.
type Config struct {
	Port      string `env:"PORT"                 envDefault:"8080"`
	ProjectID string `env:"GOOGLE_CLOUD_PROJECT"`
	Version   string `env:"APP_VERSION"          envDefault:"dev"`

	Store       string `env:"STORE_BACKEND" envDefault:"sheets" validate:"oneof=sheets postgres memory"`
	SheetName   string `env:"GOOGLE_SHEET_NAME" envDefault:"Subscriber List"`
	SheetID     string `env:"GOOGLE_SHEET_ID"`
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=Store postgres"`

	Credentials Credentials `envPrefix:"GOOGLE_CREDENTIALS_"`
	Templates   Templates   `envPrefix:"TEMPLATE_"`
	Mail        Mail
	Locator     Locator     `envPrefix:"LOCATOR_"`
	Welcome     Welcome     `envPrefix:"WELCOME_"`
	Redis       Redis       `envPrefix:"REDIS_"`

	Ledger           string `env:"CAMPAIGN_LEDGER"    envDefault:"none" validate:"oneof=none memory redis firestore"`
	AdminAuthEnabled bool   `env:"ADMIN_AUTH_ENABLED" envDefault:"false"`
	MetricsEnabled   bool   `env:"METRICS_ENABLED"    envDefault:"true"`
}

// Credentials selects where the Google service account JSON comes from.
// Sources are tried in order: Vault, Secret Manager, file.
type Credentials struct {
	File   string `env:"FILE"   envDefault:"google-credentials.json"`
	Secret string `env:"SECRET"`
	Vault  string `env:"VAULT_PATH"`
}

// Templates configures the Template Loader.
type Templates struct {
	Source   string        `env:"SOURCE"    envDefault:"drive" validate:"oneof=drive file"`
	Dir      string        `env:"DIR"       envDefault:"templates"`
	Folder   string        `env:"FOLDER"    envDefault:"Html Templates"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// Mail configures the Mailer.
type Mail struct {
	Transport string `env:"MAIL_TRANSPORT" envDefault:"smtp" validate:"oneof=smtp ses log"`
	FromEmail string `env:"FROM_EMAIL"`
	FromName  string `env:"FROM_NAME"      envDefault:"Subscriber Pipeline"`
	SMTP      SMTP   `envPrefix:"SMTP_"`
	SES       SES    `envPrefix:"SES_"`
}

// SMTP holds STARTTLS relay settings.
type SMTP struct {
	Server   string `env:"SERVER"   envDefault:"smtp.gmail.com"`
	Port     int    `env:"PORT"     envDefault:"587" validate:"min=1,max=65535"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

// SES holds AWS SES settings. Empty keys fall back to the default AWS credential chain.
type SES struct {
	Region    string `env:"REGION"     envDefault:"us-east-1"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

// Locator configures IP geolocation.
type Locator struct {
	Backend   string        `env:"BACKEND"  envDefault:"ipapi" validate:"oneof=ipapi geoip none"`
	URL       string        `env:"URL"      envDefault:"http://ip-api.com/json/"`
	Timeout   time.Duration `env:"TIMEOUT"  envDefault:"3s"`
	GeoIPPath string        `env:"GEOIP_DB" validate:"required_if=Backend geoip"`
}

// Welcome configures the email sent after a new subscription.
type Welcome struct {
	Enabled       bool   `env:"ENABLED"       envDefault:"true"`
	Template      string `env:"TEMPLATE"      envDefault:"subscribed.html"`
	Subject       string `env:"SUBJECT"       envDefault:"Welcome aboard!"`
	Advertisement string `env:"ADVERTISEMENT" envDefault:"<p>Thank you for joining our community!</p>"`
}

// Redis enables the cross-instance lock and the Redis ledger.
type Redis struct {
	URL     string        `env:"URL"`
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"10s"`
}

var validate = validator.New()

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStorage reads the environment for offline tooling. Only the Record
// Store settings are validated.
func LoadStorage() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := validate.StructPartial(&cfg, "Store", "DatabaseURL"); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field rules that tags alone cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Mail.Transport == MailSMTP && (c.Mail.SMTP.Username == "" || c.Mail.SMTP.Password == "") {
		return errors.New("invalid configuration: SMTP_USERNAME and SMTP_PASSWORD are required for the smtp transport")
	}
	if c.Ledger == LedgerRedis && c.Redis.URL == "" {
		return errors.New("invalid configuration: REDIS_URL is required for the redis campaign ledger")
	}
	return nil
}

// Sender returns the From address, defaulting to the SMTP username.
func (m Mail) Sender() string {
	if m.FromEmail != "" {
		return m.FromEmail
	}
	return m.SMTP.Username
}
