package subscribers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/subscriber-pipeline/internal/platform/auth"
	appmiddleware "github.com/janisto/subscriber-pipeline/internal/platform/middleware"
	"github.com/janisto/subscriber-pipeline/internal/platform/respond"
	"github.com/janisto/subscriber-pipeline/internal/service/store"
	subscribersvc "github.com/janisto/subscriber-pipeline/internal/service/subscriber"
)

// Register registers subscriber endpoints. When guarded is true the listing
// requires an admin token.
func Register(api huma.API, svc subscribersvc.Service, guarded bool) {
	huma.Register(api, huma.Operation{
		OperationID:   "subscribe",
		Method:        http.MethodPost,
		Path:          "/subscribe",
		Summary:       "Subscribe to the newsletter",
		Description:   "Stores a new subscriber enriched with IP geolocation. Subscribing twice returns the stored row with 200.",
		Tags:          []string{"Subscribers"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *SubscribeInput) (*SubscribeOutput, error) {
		if strings.TrimSpace(input.Body.Email) == "" {
			return nil, huma.Error400BadRequest("Email is required")
		}

		res, err := svc.Subscribe(ctx, subscribersvc.SubscribeParams{
			Name:      input.Body.Name,
			Email:     input.Body.Email,
			IPAddress: appmiddleware.ClientIPFromContext(ctx),
		})
		if err != nil {
			return nil, mapServiceError(err)
		}

		out := &SubscribeOutput{Status: http.StatusCreated}
		msg := "Successfully subscribed"
		if !res.Created {
			out.Status = http.StatusOK
			msg = "Email already subscribed"
		}
		out.Body = respond.Envelope(ctx, msg, toHTTPSubscriber(res.Subscriber))
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unsubscribe",
		Method:      http.MethodPost,
		Path:        "/unsubscribe",
		Summary:     "Unsubscribe from the newsletter",
		Description: "Deletes the first row holding the email and returns its content.",
		Tags:        []string{"Subscribers"},
	}, func(ctx context.Context, input *UnsubscribeInput) (*UnsubscribeOutput, error) {
		if strings.TrimSpace(input.Body.Email) == "" {
			return nil, huma.Error400BadRequest("Email is required")
		}

		res, err := svc.Unsubscribe(ctx, input.Body.Email)
		if err != nil {
			return nil, mapServiceError(err)
		}
		if !res.Found {
			return nil, huma.Error404NotFound("Email not found in subscribers list")
		}
		return &UnsubscribeOutput{
			Body: respond.Envelope(ctx, "Successfully unsubscribed", Unsubscribed{
				Subscriber: toHTTPSubscriber(res.Subscriber),
				Row:        res.Position,
			}),
		}, nil
	})

	list := huma.Operation{
		OperationID: "list-subscribers",
		Method:      http.MethodGet,
		Path:        "/subscribers",
		Summary:     "List subscribers",
		Description: "Returns stored subscribers matching every given filter.",
		Tags:        []string{"Subscribers"},
	}
	if guarded {
		list.Security = []map[string][]string{{auth.SecurityScheme: {}}}
	}
	huma.Register(api, list, func(ctx context.Context, input *ListInput) (*ListOutput, error) {
		filter := subscribersvc.ParseFilter(input.StartDate, input.EndDate, input.Country, input.Region, input.City)
		subs, err := svc.List(ctx, filter)
		if err != nil {
			return nil, mapServiceError(err)
		}

		out := SubscriberList{Subscribers: make([]Subscriber, 0, len(subs))}
		for _, s := range subs {
			out.Subscribers = append(out.Subscribers, toHTTPSubscriber(s))
		}
		out.Count = len(out.Subscribers)
		return &ListOutput{Body: respond.Envelope(ctx, "Subscribers retrieved", out)}, nil
	})
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, subscribersvc.ErrValidation):
		return huma.Error400BadRequest(validationMessage(err))
	case errors.Is(err, store.ErrSpreadsheetNotFound):
		return huma.Error404NotFound("subscriber spreadsheet not found")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

func validationMessage(err error) string {
	if errors.Is(err, subscribersvc.ErrEmailRequired) {
		return "Email is required"
	}
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
