package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setSMTP(t *testing.T) {
	t.Helper()
	t.Setenv("SMTP_USERNAME", "news@example.com")
	t.Setenv("SMTP_PASSWORD", "app-password")
}

func TestParseDefaults(t *testing.T) {
	setSMTP(t)

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.Store != StoreSheets || cfg.SheetName != "Subscriber List" {
		t.Errorf("unexpected store defaults: %s / %s", cfg.Store, cfg.SheetName)
	}
	if cfg.Locator.Backend != LocatorIPAPI || cfg.Locator.Timeout != 3*time.Second {
		t.Errorf("unexpected locator defaults: %+v", cfg.Locator)
	}
	if cfg.Locator.URL != "http://ip-api.com/json/" {
		t.Errorf("unexpected locator url %s", cfg.Locator.URL)
	}
	if cfg.Mail.SMTP.Server != "smtp.gmail.com" || cfg.Mail.SMTP.Port != 587 {
		t.Errorf("unexpected smtp defaults: %+v", cfg.Mail.SMTP)
	}
	if cfg.Mail.FromName != "Subscriber Pipeline" {
		t.Errorf("unexpected from name %q", cfg.Mail.FromName)
	}
	if cfg.Mail.Sender() != "news@example.com" {
		t.Errorf("expected sender to fall back to SMTP username, got %q", cfg.Mail.Sender())
	}
	if cfg.Templates.Source != TemplatesDrive || cfg.Templates.Folder != "Html Templates" {
		t.Errorf("unexpected template defaults: %+v", cfg.Templates)
	}
	if cfg.Credentials.File != "google-credentials.json" {
		t.Errorf("unexpected credentials file %q", cfg.Credentials.File)
	}
	if !cfg.Welcome.Enabled || cfg.Welcome.Template != "subscribed.html" {
		t.Errorf("unexpected welcome defaults: %+v", cfg.Welcome)
	}
	if cfg.Ledger != LedgerNone {
		t.Errorf("expected ledger none, got %s", cfg.Ledger)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/subscribers")
	t.Setenv("MAIL_TRANSPORT", "ses")
	t.Setenv("SES_REGION", "eu-west-1")
	t.Setenv("FROM_EMAIL", "hello@example.com")
	t.Setenv("LOCATOR_BACKEND", "geoip")
	t.Setenv("LOCATOR_GEOIP_DB", "/data/GeoLite2-City.mmdb")
	t.Setenv("TEMPLATE_SOURCE", "file")
	t.Setenv("TEMPLATE_DIR", "/srv/templates")
	t.Setenv("CAMPAIGN_LEDGER", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != StorePostgres || cfg.DatabaseURL == "" {
		t.Errorf("unexpected store config: %s %s", cfg.Store, cfg.DatabaseURL)
	}
	if cfg.Mail.Transport != MailSES || cfg.Mail.SES.Region != "eu-west-1" {
		t.Errorf("unexpected mail config: %+v", cfg.Mail)
	}
	if cfg.Mail.Sender() != "hello@example.com" {
		t.Errorf("unexpected sender %q", cfg.Mail.Sender())
	}
	if cfg.Locator.GeoIPPath != "/data/GeoLite2-City.mmdb" {
		t.Errorf("unexpected geoip path %q", cfg.Locator.GeoIPPath)
	}
	if cfg.Templates.Dir != "/srv/templates" {
		t.Errorf("unexpected template dir %q", cfg.Templates.Dir)
	}
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "unknown store", env: map[string]string{"STORE_BACKEND": "excel", "MAIL_TRANSPORT": "log"}, want: "Store"},
		{name: "postgres without url", env: map[string]string{"STORE_BACKEND": "postgres", "MAIL_TRANSPORT": "log"}, want: "DatabaseURL"},
		{name: "smtp without credentials", env: map[string]string{}, want: "SMTP_USERNAME"},
		{name: "geoip without db", env: map[string]string{"LOCATOR_BACKEND": "geoip", "MAIL_TRANSPORT": "log"}, want: "GeoIPPath"},
		{name: "redis ledger without url", env: map[string]string{"CAMPAIGN_LEDGER": "redis", "MAIL_TRANSPORT": "log"}, want: "REDIS_URL"},
		{name: "bad duration", env: map[string]string{"LOCATOR_TIMEOUT": "soon", "MAIL_TRANSPORT": "log"}, want: "Timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MAIL_TRANSPORT=log\nGOOGLE_SHEET_NAME=Launch List\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Chdir(dir)
	t.Cleanup(func() {
		_ = os.Unsetenv("MAIL_TRANSPORT")
		_ = os.Unsetenv("GOOGLE_SHEET_NAME")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SheetName != "Launch List" || cfg.Mail.Transport != MailLog {
		t.Fatalf("expected .env values, got %q / %q", cfg.SheetName, cfg.Mail.Transport)
	}
}

func TestLoadWithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAIL_TRANSPORT", "log")
	if _, err := Load(); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestLoadStorageSkipsMailRules(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := LoadStorage()
	if err != nil {
		t.Fatalf("expected SMTP credentials to be optional, got %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("expected memory store, got %s", cfg.Store)
	}
}

func TestLoadStorageValidatesStore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "postgres")

	if _, err := LoadStorage(); err == nil || !strings.Contains(err.Error(), "DatabaseURL") {
		t.Fatalf("expected DatabaseURL error, got %v", err)
	}
}
