package campaigns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/subscriber-pipeline/internal/platform/auth"
	"github.com/janisto/subscriber-pipeline/internal/platform/respond"
	campaignsvc "github.com/janisto/subscriber-pipeline/internal/service/campaign"
	"github.com/janisto/subscriber-pipeline/internal/service/store"
)

// Register registers the campaign endpoint. When guarded is true it requires
// an admin token.
func Register(api huma.API, svc campaignsvc.Service, guarded bool) {
	op := huma.Operation{
		OperationID: "send-template-email",
		Method:      http.MethodPost,
		Path:        "/send-template-email",
		Summary:     "Send a templated campaign",
		Description: "Renders the named template for every subscriber and mails it. Individual send failures are counted, not returned.",
		Tags:        []string{"Campaigns"},
	}
	if guarded {
		op.Security = []map[string][]string{{auth.SecurityScheme: {}}}
	}
	huma.Register(api, op, func(ctx context.Context, input *SendInput) (*SendOutput, error) {
		if msg := missingFields(input); msg != "" {
			return nil, huma.Error400BadRequest(msg)
		}

		res, err := svc.Dispatch(ctx, campaignsvc.Request{
			TemplateName:  strings.TrimSpace(input.Body.TemplateName),
			Subject:       input.Body.Subject,
			Advertisement: input.Body.AdvertisementHTML,
			CampaignID:    input.Body.CampaignID,
		})
		if err != nil {
			return nil, mapServiceError(err)
		}
		if res.TotalSubscribers == 0 {
			return nil, huma.Error404NotFound("No subscribers found")
		}

		msg := fmt.Sprintf("Campaign sent to %d of %d subscribers", res.Sent, res.Attempted())
		return &SendOutput{Body: respond.Envelope(ctx, msg, toHTTPReport(res))}, nil
	})
}

func missingFields(input *SendInput) string {
	var missing []string
	if strings.TrimSpace(input.Body.TemplateName) == "" {
		missing = append(missing, "template_name")
	}
	if strings.TrimSpace(input.Body.Subject) == "" {
		missing = append(missing, "subject")
	}
	if len(missing) == 0 {
		return ""
	}
	return strings.Join(missing, " and ") + " required"
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, campaignsvc.ErrValidation):
		return huma.Error400BadRequest("template_name and subject are required")
	case errors.Is(err, campaignsvc.ErrTemplateNotFound):
		return huma.Error404NotFound("Template not found")
	case errors.Is(err, store.ErrSpreadsheetNotFound):
		return huma.Error404NotFound("subscriber spreadsheet not found")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}
