// Package notify sends moderation emails. Sends are best-effort: the
// moderation action already applied is the source of truth, a failed email
// never rolls it back.
package notify

import "context"

// Event carries the template context for one moderation notification.
type Event struct {
	VendorName  string
	VendorEmail string
	ContentType string
	ContentName string
	Reason      string
	Categories  []string
}

type Notifier interface {
	// ModerationAlert goes to the platform admin.
	ModerationAlert(ctx context.Context, e Event) error
	// VendorContentFlagged tells the vendor their content was flagged but
	// remains visible.
	VendorContentFlagged(ctx context.Context, e Event) error
	// VendorContentHidden tells the vendor their content was hidden or
	// their store suspended.
	VendorContentHidden(ctx context.Context, e Event) error
}

// Nop drops every notification. Used when SMTP is not configured.
type Nop struct{}

func (Nop) ModerationAlert(ctx context.Context, e Event) error      { return nil }
func (Nop) VendorContentFlagged(ctx context.Context, e Event) error { return nil }
func (Nop) VendorContentHidden(ctx context.Context, e Event) error  { return nil }
