package campaigns

import (
	campaignsvc "github.com/janisto/subscriber-pipeline/internal/service/campaign"
)

// Report is the campaign tally.
type Report struct {
	SentCount        int    `json:"sent_count"        doc:"Emails accepted by the mailer"                 example:"9"`
	FailedCount      int    `json:"failed_count"      doc:"Emails the mailer rejected"                    example:"1"`
	SkippedCount     int    `json:"skipped_count"     doc:"Rows without email or already notified"        example:"0"`
	TotalSubscribers int    `json:"total_subscribers" doc:"Rows in the subscriber list"                   example:"10"`
	TemplateUsed     string `json:"template_used"     doc:"Template that was rendered"                    example:"newsletter.html"`
	CampaignID       string `json:"campaign_id"       doc:"Identifier to pass back when retrying the run" example:"2024-03-newsletter"`
}

func toHTTPReport(r *campaignsvc.Result) Report {
	return Report{
		SentCount:        r.Sent,
		FailedCount:      r.Failed,
		SkippedCount:     r.Skipped,
		TotalSubscribers: r.TotalSubscribers,
		TemplateUsed:     r.Template,
		CampaignID:       r.CampaignID,
	}
}
