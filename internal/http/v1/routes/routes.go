package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/subscriber-pipeline/internal/http/v1/campaigns"
	"github.com/janisto/subscriber-pipeline/internal/http/v1/subscribers"
	"github.com/janisto/subscriber-pipeline/internal/platform/auth"
	campaignsvc "github.com/janisto/subscriber-pipeline/internal/service/campaign"
	subscribersvc "github.com/janisto/subscriber-pipeline/internal/service/subscriber"
)

// Services bundles what the handlers call. A nil Verifier leaves the
// listing and campaign endpoints open.
type Services struct {
	Subscribers subscribersvc.Service
	Campaigns   campaignsvc.Service
	Verifier    auth.Verifier
}

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, svc Services) {
	guarded := svc.Verifier != nil
	if guarded {
		declareBearerScheme(api.OpenAPI())
		api.UseMiddleware(auth.NewAdminMiddleware(api, svc.Verifier))
	}

	subscribers.Register(api, svc.Subscribers, guarded)
	campaigns.Register(api, svc.Campaigns, guarded)
}

func declareBearerScheme(oapi *huma.OpenAPI) {
	if oapi.Components == nil {
		oapi.Components = &huma.Components{}
	}
	if oapi.Components.SecuritySchemes == nil {
		oapi.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oapi.Components.SecuritySchemes[auth.SecurityScheme] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
		Description:  "Firebase ID token carrying the admin custom claim.",
	}
}
