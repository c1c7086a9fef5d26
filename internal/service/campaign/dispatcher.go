package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/janisto/subscriber-pipeline/internal/platform/auth"
	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
	"github.com/janisto/subscriber-pipeline/internal/platform/metrics"
	"github.com/janisto/subscriber-pipeline/internal/service/mailer"
	"github.com/janisto/subscriber-pipeline/internal/service/store"
	"github.com/janisto/subscriber-pipeline/internal/service/subscriber"
	"github.com/janisto/subscriber-pipeline/internal/service/templates"
)

// Dispatcher implements Service. Sends run sequentially; one recipient's
// failure is counted and never stops the loop.
type Dispatcher struct {
	store    store.RecordStore
	loader   templates.Loader
	renderer *templates.Renderer
	mailer   mailer.Mailer
	ledger   Ledger
}

// NewDispatcher creates a Dispatcher. A nil ledger disables skip-on-retry.
func NewDispatcher(s store.RecordStore, loader templates.Loader, renderer *templates.Renderer, m mailer.Mailer, ledger Ledger) *Dispatcher {
	if ledger == nil {
		ledger = NopLedger{}
	}
	return &Dispatcher{store: s, loader: loader, renderer: renderer, mailer: m, ledger: ledger}
}

// Dispatch loads subscribers, resolves the template and mails every row.
// No subscribers yields a zero Result without touching the template source.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	campaignID := strings.TrimSpace(req.CampaignID)
	if campaignID == "" {
		campaignID = uuid.NewString()
	}
	ctx = applog.WithFields(ctx, zap.String("campaignId", campaignID), zap.String("template", req.TemplateName))
	res := &Result{CampaignID: campaignID, Template: req.TemplateName}

	rows, err := d.store.Rows(ctx)
	if err != nil {
		d.audit(ctx, campaignID, "failure", map[string]any{"error": "store_unavailable"})
		return nil, err
	}
	res.TotalSubscribers = len(rows)
	if len(rows) == 0 {
		applog.LogInfo(ctx, "campaign has no subscribers")
		return res, nil
	}

	tpl, err := d.loader.Load(ctx, req.TemplateName)
	if err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			d.audit(ctx, campaignID, "failure", map[string]any{"error": "template_not_found"})
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, req.TemplateName)
		}
		d.audit(ctx, campaignID, "failure", map[string]any{"error": "template_unavailable"})
		return nil, err
	}

	for _, row := range rows {
		email := subscriber.Normalize(row.Email)
		if email == "" {
			res.Skipped++
			continue
		}
		seen, err := d.ledger.Seen(ctx, campaignID, email)
		if err != nil {
			applog.LogWarn(ctx, "ledger lookup failed", zap.Error(err))
		}
		if seen {
			res.Skipped++
			continue
		}

		body := d.renderer.Render(tpl, templates.Bindings{
			Name:    row.Name,
			Email:   email,
			City:    row.City,
			Country: row.Country,
		})
		err = d.mailer.Send(ctx, mailer.Message{
			ToEmail:       email,
			ToName:        row.Name,
			Subject:       req.Subject,
			HTML:          body,
			Advertisement: req.Advertisement,
		})
		if err != nil {
			res.Failed++
			applog.LogWarn(ctx, "campaign send failed",
				zap.String("recipient", applog.RedactEmail(email)), zap.Error(err))
			continue
		}
		res.Sent++
		if err := d.ledger.Record(ctx, campaignID, email); err != nil {
			applog.LogWarn(ctx, "ledger record failed", zap.Error(err))
		}
	}

	metrics.CampaignEmailsTotal.WithLabelValues("sent").Add(float64(res.Sent))
	metrics.CampaignEmailsTotal.WithLabelValues("failed").Add(float64(res.Failed))
	metrics.CampaignEmailsTotal.WithLabelValues("skipped").Add(float64(res.Skipped))
	d.audit(ctx, campaignID, "success", map[string]any{
		"sent":    res.Sent,
		"failed":  res.Failed,
		"skipped": res.Skipped,
	})
	return res, nil
}

func (d *Dispatcher) audit(ctx context.Context, campaignID, result string, details map[string]any) {
	applog.LogAuditEvent(ctx, "dispatch", auth.Actor(ctx), "campaign", campaignID, result, details)
}

// Compile-time interface check
var _ Service = (*Dispatcher)(nil)
