package notify

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/gomail.v2"
)

var adminAlertBody = template.Must(template.New("adminAlert").Parse(
	`A moderation violation was detected.

Vendor:       {{.VendorName}}
Content type: {{.ContentType}}
Content:      {{.ContentName}}
Reason:       {{.Reason}}
Categories:   {{.CategoryList}}

Review the pending queue in the admin dashboard.
`))

var vendorFlaggedBody = template.Must(template.New("vendorFlagged").Parse(
	`Hi {{.VendorName}},

Your {{.ContentType}} "{{.ContentName}}" was flagged by our automated content
review and will be looked at by our team. It remains visible in the meantime.

Reason: {{.Reason}}

If you believe this is a mistake, no action is needed; our team reviews every
flag.
`))

var vendorHiddenBody = template.Must(template.New("vendorHidden").Parse(
	`Hi {{.VendorName}},

Your {{.ContentType}} "{{.ContentName}}" was removed from public view by our
automated content review due to a severe policy violation.

Reason: {{.Reason}}

Reply to this email to appeal the decision.
`))

// Mailer sends notifications over SMTP.
type Mailer struct {
	dialer     *gomail.Dialer
	from       string
	adminEmail string
}

func NewMailer(host string, port int, username, password, from, adminEmail string) *Mailer {
	return &Mailer{
		dialer:     gomail.NewDialer(host, port, username, password),
		from:       from,
		adminEmail: adminEmail,
	}
}

func (m *Mailer) ModerationAlert(ctx context.Context, e Event) error {
	subject := fmt.Sprintf("[moderation] %s violation: %s", e.ContentType, e.ContentName)
	return m.send(m.adminEmail, subject, adminAlertBody, e)
}

func (m *Mailer) VendorContentFlagged(ctx context.Context, e Event) error {
	subject := fmt.Sprintf("Your %s %q was flagged for review", e.ContentType, e.ContentName)
	return m.send(e.VendorEmail, subject, vendorFlaggedBody, e)
}

func (m *Mailer) VendorContentHidden(ctx context.Context, e Event) error {
	subject := fmt.Sprintf("Your %s %q was hidden", e.ContentType, e.ContentName)
	return m.send(e.VendorEmail, subject, vendorHiddenBody, e)
}

type templateContext struct {
	Event
	CategoryList string
}

func (m *Mailer) send(to, subject string, body *template.Template, e Event) error {
	if to == "" {
		return fmt.Errorf("no recipient for %q", subject)
	}

	var rendered strings.Builder
	err := body.Execute(&rendered, templateContext{
		Event:        e,
		CategoryList: strings.Join(e.Categories, ", "),
	})
	if err != nil {
		return fmt.Errorf("failed to render email: %v", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", rendered.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %v", to, err)
	}
	return nil
}
