package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide_Table(t *testing.T) {
	tests := []struct {
		name   string
		kind   ContentKind
		result *Result
		want   Action
	}{
		{
			name:   "nil result",
			kind:   KindProduct,
			result: nil,
			want:   Action{},
		},
		{
			name:   "product clean",
			kind:   KindProduct,
			result: &Result{IsViolation: false, Severity: SeverityNone},
			want:   Action{},
		},
		{
			name:   "product violation with severity none",
			kind:   KindProduct,
			result: &Result{IsViolation: true, Severity: SeverityNone},
			want:   Action{},
		},
		{
			name:   "product moderate flags and keeps it live",
			kind:   KindProduct,
			result: &Result{IsViolation: true, Severity: SeverityModerate},
			want:   Action{Flag: true, Notify: true, Template: TemplateFlagged},
		},
		{
			name:   "product severe hides",
			kind:   KindProduct,
			result: &Result{IsViolation: true, Severity: SeveritySevere},
			want:   Action{Hide: true, Notify: true, Template: TemplateHidden},
		},
		{
			name:   "store clean",
			kind:   KindStore,
			result: &Result{IsViolation: false, Severity: SeverityNone},
			want:   Action{},
		},
		{
			name:   "store moderate notifies without mutation",
			kind:   KindStore,
			result: &Result{IsViolation: true, Severity: SeverityModerate},
			want:   Action{Notify: true, Template: TemplateFlagged},
		},
		{
			name:   "store severe suspends",
			kind:   KindStore,
			result: &Result{IsViolation: true, Severity: SeveritySevere},
			want:   Action{Suspend: true, Notify: true, Template: TemplateHidden},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.kind, tt.result))
		})
	}
}

// Severe must always be at least as restrictive as moderate for the same
// target kind.
func TestDecide_SeverityMonotonicity(t *testing.T) {
	for _, kind := range []ContentKind{KindProduct, KindStore} {
		moderate := Decide(kind, &Result{IsViolation: true, Severity: SeverityModerate})
		severe := Decide(kind, &Result{IsViolation: true, Severity: SeveritySevere})

		assert.True(t, severe.Hide || severe.Suspend, "severe must remove %s content from view", kind)
		assert.False(t, moderate.Hide || moderate.Suspend, "moderate must stay advisory for %s", kind)
		if moderate.Notify {
			assert.True(t, severe.Notify, "severe must notify whenever moderate does for %s", kind)
		}
	}
}

func TestParseVerdict(t *testing.T) {
	result, err := parseVerdict(`{"is_violation":true,"severity":"severe","categories":["scam"],"reason":"fake goods","confidence":0.93}`)
	assert.NoError(t, err)
	assert.True(t, result.IsViolation)
	assert.Equal(t, SeveritySevere, result.Severity)
	assert.Equal(t, []string{"scam"}, result.Categories)

	// Fenced output still parses.
	result, err = parseVerdict("```json\n{\"is_violation\":false,\"severity\":\"none\"}\n```")
	assert.NoError(t, err)
	assert.False(t, result.IsViolation)

	// Missing severity defaults to none.
	result, err = parseVerdict(`{"is_violation":false}`)
	assert.NoError(t, err)
	assert.Equal(t, SeverityNone, result.Severity)

	_, err = parseVerdict(`{"severity":"catastrophic"}`)
	assert.Error(t, err)

	_, err = parseVerdict("I cannot help with that")
	assert.Error(t, err)
}

func TestBuildPrompt_StableFieldOrder(t *testing.T) {
	fields := map[string]string{
		"name":        "Widget",
		"description": "A widget",
	}
	first := buildPrompt(KindProduct, fields)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, buildPrompt(KindProduct, fields))
	}
	assert.Contains(t, first, "name: Widget")
	assert.Contains(t, first, "description: A widget")
	assert.Contains(t, first, "product")
}
