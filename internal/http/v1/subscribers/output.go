package subscribers

import (
	"github.com/janisto/subscriber-pipeline/internal/api"
)

// SubscribeOutput is 201 for a new row and 200 when already subscribed.
type SubscribeOutput struct {
	Status int
	Body   api.Envelope[Subscriber]
}

// UnsubscribeOutput wraps the removed row.
type UnsubscribeOutput struct {
	Body api.Envelope[Unsubscribed]
}

// ListOutput wraps the listing.
type ListOutput struct {
	Body api.Envelope[SubscriberList]
}
