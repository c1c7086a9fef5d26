// Package campaign sends a rendered template to every stored subscriber.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service errors
var (
	ErrValidation       = errors.New("validation failed")
	ErrTemplateNotFound = errors.New("template not found")
)

// Request describes one campaign run.
type Request struct {
	TemplateName  string
	Subject       string
	Advertisement string
	// CampaignID keys the delivery ledger. Empty means a fresh id is issued
	// and nothing is skipped.
	CampaignID string
}

func (r Request) validate() error {
	var missing []string
	if strings.TrimSpace(r.TemplateName) == "" {
		missing = append(missing, "template_name")
	}
	if strings.TrimSpace(r.Subject) == "" {
		missing = append(missing, "subject")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, " and "))
	}
	return nil
}

// Result is the aggregate outcome. Sent + Failed equals the number of
// recipients attempted; Skipped counts rows without an email and recipients
// already notified under the same CampaignID.
type Result struct {
	CampaignID       string
	Template         string
	TotalSubscribers int
	Sent             int
	Failed           int
	Skipped          int
}

// Attempted reports how many recipients were handed to the mailer.
func (r Result) Attempted() int {
	return r.Sent + r.Failed
}

// Service defines campaign operations.
type Service interface {
	Dispatch(ctx context.Context, req Request) (*Result, error)
}
