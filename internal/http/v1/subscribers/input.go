package subscribers

// SubscribeInput is the POST /subscribe request. Email is checked by the
// handler so a missing value yields 400 rather than a schema 422.
type SubscribeInput struct {
	Body struct {
		Name  string `json:"name,omitempty"  required:"false" maxLength:"200" doc:"Subscriber name"  example:"Jane Doe"`
		Email string `json:"email,omitempty" required:"false" maxLength:"254" doc:"Email address"    example:"jane@example.com"`
	}
}

// UnsubscribeInput is the POST /unsubscribe request.
type UnsubscribeInput struct {
	Body struct {
		Email string `json:"email,omitempty" required:"false" maxLength:"254" doc:"Email address" example:"jane@example.com"`
	}
}

// ListInput carries the GET /subscribers filters.
type ListInput struct {
	StartDate string `query:"start_date" doc:"Earliest subscription date, inclusive (YYYY-MM-DD)" example:"2024-01-01"`
	EndDate   string `query:"end_date"   doc:"Latest subscription date, inclusive (YYYY-MM-DD)"   example:"2024-12-31"`
	Country   string `query:"country"    doc:"Exact country match"                               example:"united states"`
	Region    string `query:"region"     doc:"Exact region match"                                example:"california"`
	City      string `query:"city"       doc:"Exact city match"                                  example:"mountain view"`
}
