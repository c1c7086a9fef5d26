package campaigns

// SendInput is the POST /send-template-email request. Required fields are
// checked by the handler so omissions yield 400.
type SendInput struct {
	Body struct {
		TemplateName      string `json:"template_name,omitempty"      required:"false" maxLength:"200"    doc:"Template file name"                         example:"newsletter.html"`
		Subject           string `json:"subject,omitempty"            required:"false" maxLength:"998"    doc:"Email subject"                              example:"March news"`
		AdvertisementHTML string `json:"advertisement_html,omitempty" required:"false" maxLength:"100000" doc:"HTML fragment appended below the content"   example:"<p>Sponsored</p>"`
		CampaignID        string `json:"campaign_id,omitempty"        required:"false" maxLength:"128"    doc:"Reuse to skip recipients already notified" example:"2024-03-newsletter"`
	}
}
