package moderation

// Template names the notification pair sent for an action.
type Template string

const (
	TemplateFlagged Template = "flagged"
	TemplateHidden  Template = "hidden"
)

// Action is the enforcement decision for one moderation result.
type Action struct {
	Flag     bool
	Hide     bool
	Suspend  bool
	Notify   bool
	Template Template
}

// Decide maps a moderation result to an action. Severe violations are
// self-enforcing (auto-hide for products, auto-suspend for stores) since
// admin review may be delayed; moderate violations only flag and notify.
func Decide(kind ContentKind, result *Result) Action {
	if result == nil || !result.IsViolation || result.Severity == SeverityNone {
		return Action{}
	}

	switch kind {
	case KindProduct:
		if result.Severity == SeveritySevere {
			return Action{Hide: true, Notify: true, Template: TemplateHidden}
		}
		return Action{Flag: true, Notify: true, Template: TemplateFlagged}
	case KindStore:
		if result.Severity == SeveritySevere {
			return Action{Suspend: true, Notify: true, Template: TemplateHidden}
		}
		return Action{Notify: true, Template: TemplateFlagged}
	}

	return Action{}
}
