// Package mailer delivers HTML emails to subscribers.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"
)

// ErrSendFailed wraps any transport failure.
var ErrSendFailed = errors.New("email send failed")

// Message is one outgoing email. HTML is the rendered template body and
// Advertisement is appended below a horizontal rule.
type Message struct {
	ToEmail       string
	ToName        string
	Subject       string
	HTML          string
	Advertisement string
}

// Mailer sends a message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender identifies the From header.
type Sender struct {
	Email string
	Name  string
}

// Address formats the sender for the From header.
func (s Sender) Address() string {
	return formatAddress(s.Name, s.Email)
}

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1; color: #333; margin: 0 auto; padding: 0px;">
%s
<hr style="margin: 30px 0; border: none; border-top: 1px solid #eee;">
%s
</body>
</html>
`

// Document wraps the message content into a complete HTML document.
func (m Message) Document() string {
	return fmt.Sprintf(documentTemplate, html.EscapeString(m.Subject), m.HTML, m.Advertisement)
}

// Recipient formats the To header.
func (m Message) Recipient() string {
	return formatAddress(m.ToName, m.ToEmail)
}

// formatAddress quotes or RFC 2047 encodes the display name, so names from
// user input can never add header lines or extra recipients.
func formatAddress(name, email string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("%w: missing recipient", ErrSendFailed)
	}
	return nil
}
