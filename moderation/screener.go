package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/henomis/lingoose/llm/anthropic"
	"github.com/henomis/lingoose/thread"
)

// ContentKind identifies what the checked text belongs to.
type ContentKind string

const (
	KindStore   ContentKind = "store"
	KindProduct ContentKind = "product"
)

// Severity tiers returned by the screener.
const (
	SeverityNone     = "none"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// Result is the screener's verdict on a piece of content.
type Result struct {
	IsViolation bool     `json:"is_violation"`
	Severity    string   `json:"severity"`
	Categories  []string `json:"categories"`
	Reason      string   `json:"reason"`
	Confidence  float64  `json:"confidence"`
}

// Screener classifies vendor-submitted text against the content policy.
type Screener interface {
	Screen(ctx context.Context, kind ContentKind, fields map[string]string) (*Result, error)
}

// LLMScreener asks an Anthropic model for a strict-JSON verdict. Transient
// failures are retried with exponential backoff before the caller sees an
// error, so a brief screener outage does not bypass moderation.
type LLMScreener struct {
	ai         *anthropic.Antropic
	maxElapsed time.Duration
}

func NewLLMScreener(model string) *LLMScreener {
	return &LLMScreener{
		ai:         anthropic.New().WithModel(model),
		maxElapsed: 30 * time.Second,
	}
}

func (s *LLMScreener) Screen(ctx context.Context, kind ContentKind, fields map[string]string) (*Result, error) {
	prompt := buildPrompt(kind, fields)

	var raw string
	operation := func() error {
		t := thread.New().AddMessage(
			thread.NewUserMessage().AddContent(
				thread.NewTextContent(prompt),
			),
		)
		if err := s.ai.Generate(ctx, t); err != nil {
			return err
		}
		raw = t.LastMessage().Contents[0].AsString()
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = s.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("moderation screening failed: %w", err)
	}

	return parseVerdict(raw)
}

func buildPrompt(kind ContentKind, fields map[string]string) string {
	// Stable field order keeps the prompt deterministic for a given input.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("You are a marketplace content moderator. Review the following ")
	b.WriteString(string(kind))
	b.WriteString(" listing text for policy violations (illegal goods, hate speech, ")
	b.WriteString("adult content, scams, harassment).\n")
	b.WriteString("Respond with only a JSON object, no prose, in exactly this shape:\n")
	b.WriteString(`{"is_violation": false, "severity": "none", "categories": [], "reason": "", "confidence": 0.0}` + "\n")
	b.WriteString(`"severity" must be one of "none", "moderate" or "severe".` + "\n\n")
	for _, name := range names {
		b.WriteString(name + ": " + fields[name] + "\n")
	}
	return b.String()
}

func parseVerdict(raw string) (*Result, error) {
	// Models occasionally fence the JSON despite instructions.
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("unparseable moderation verdict %q: %v", raw, err)
	}

	switch result.Severity {
	case SeverityNone, SeverityModerate, SeveritySevere:
	case "":
		result.Severity = SeverityNone
	default:
		return nil, fmt.Errorf("unknown moderation severity %q", result.Severity)
	}

	return &result, nil
}
