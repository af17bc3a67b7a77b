// Package safety enforces the content-safety policy on user text before it
// reaches intent classification or routing. A veto is a hard short-circuit
// for the turn, not a retryable failure.
package safety

import (
	"log/slog"
	"strings"
)

// Apology messages substituted for vetoed turns. These are fixed text: tests
// and the conversation log rely on exact equality.
const (
	BlockedTopicApology    = "I'm sorry, but I can't discuss that topic. Is there something else I can help you with?"
	ExplicitContentApology = "I'd rather keep our conversation friendly. What else can I do for you?"
)

// explicitTerms is the fixed term list scanned when explicit content is
// disallowed by policy.
var explicitTerms = []string{
	"explicit",
	"nsfw",
	"porn",
	"sexual",
	"nude",
}

// Policy is the configured content-safety policy. It is mutated only by
// explicit user settings actions and read by the filter on every turn.
type Policy struct {
	ContentFilteringEnabled bool     `json:"contentFilteringEnabled"`
	BlockedTopics           []string `json:"blockedTopics"`
	AllowExplicitContent    bool     `json:"allowExplicitContent"`
	RetentionLimitDays      int      `json:"retentionLimitDays"`
}

// Verdict is the outcome of a safety check. When Allowed is false, TextToShow
// carries the apology substituted for the assistant's reply.
type Verdict struct {
	Allowed    bool
	TextToShow string
}

// Filter applies a Policy to raw user text.
type Filter struct {
	logger *slog.Logger
}

// NewFilter creates a safety Filter.
func NewFilter(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{logger: logger.With("component", "safety_filter")}
}

// Check evaluates text against the policy. When filtering is disabled the
// text always passes unchanged. Otherwise blocked topics are checked first,
// then the explicit-term list when explicit content is disallowed.
func (f *Filter) Check(text string, policy Policy) Verdict {
	if !policy.ContentFilteringEnabled {
		return Verdict{Allowed: true, TextToShow: text}
	}

	lowered := strings.ToLower(text)

	for _, topic := range policy.BlockedTopics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic == "" {
			continue
		}
		if strings.Contains(lowered, topic) {
			f.logger.Info("turn vetoed by blocked topic", "topic", topic)
			return Verdict{Allowed: false, TextToShow: BlockedTopicApology}
		}
	}

	if !policy.AllowExplicitContent {
		for _, term := range explicitTerms {
			if strings.Contains(lowered, term) {
				f.logger.Info("turn vetoed by explicit-content rule", "term", term)
				return Verdict{Allowed: false, TextToShow: ExplicitContentApology}
			}
		}
	}

	return Verdict{Allowed: true, TextToShow: text}
}
