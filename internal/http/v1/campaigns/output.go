package campaigns

import (
	"github.com/janisto/subscriber-pipeline/internal/api"
)

// SendOutput wraps the campaign tally.
type SendOutput struct {
	Body api.Envelope[Report]
}
