package subscriber

import (
	"context"
	"fmt"

	"github.com/janisto/subscriber-pipeline/internal/service/mailer"
	"github.com/janisto/subscriber-pipeline/internal/service/templates"
)

// Notifier is told about each newly created subscriber.
type Notifier interface {
	Welcome(ctx context.Context, sub Subscriber) error
}

// WelcomeConfig names the template and wrapper of the welcome email.
type WelcomeConfig struct {
	Template      string
	Subject       string
	Advertisement string
}

// WelcomeMailer renders the welcome template for a subscriber and mails it.
type WelcomeMailer struct {
	loader   templates.Loader
	renderer *templates.Renderer
	mailer   mailer.Mailer
	cfg      WelcomeConfig
}

// NewWelcomeMailer creates a Notifier sending cfg.Template.
func NewWelcomeMailer(loader templates.Loader, renderer *templates.Renderer, m mailer.Mailer, cfg WelcomeConfig) *WelcomeMailer {
	return &WelcomeMailer{loader: loader, renderer: renderer, mailer: m, cfg: cfg}
}

func (w *WelcomeMailer) Welcome(ctx context.Context, sub Subscriber) error {
	tpl, err := w.loader.Load(ctx, w.cfg.Template)
	if err != nil {
		return fmt.Errorf("loading welcome template: %w", err)
	}
	body := w.renderer.Render(tpl, templates.Bindings{
		Name:    sub.Name,
		Email:   sub.Email,
		City:    sub.City,
		Country: sub.Country,
	})
	return w.mailer.Send(ctx, mailer.Message{
		ToEmail:       sub.Email,
		ToName:        sub.Name,
		Subject:       w.cfg.Subject,
		HTML:          body,
		Advertisement: w.cfg.Advertisement,
	})
}

// Compile-time interface check
var _ Notifier = (*WelcomeMailer)(nil)
