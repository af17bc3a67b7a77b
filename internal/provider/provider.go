// Package provider defines the ResponseSource capability and its
// implementations: a genai-backed remote source and an offline canned
// generator. Both conform to the same timing contract, so the routing logic
// is identical in tests and production.
package provider

import (
	"context"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/intent"
)

// Kind identifies a selectable response provider.
type Kind string

// The closed set of provider kinds.
const (
	KindOpenAI   Kind = "openai"
	KindGemini   Kind = "gemini"
	KindWorkflow Kind = "workflow"
	KindOffline  Kind = "offline"
)

// Settings is the per-provider credential and model-selection record. It is
// read-only input to the router.
type Settings struct {
	Kind       Kind   `json:"kind"`
	APIKey     string `json:"apiKey,omitempty"`
	BaseURL    string `json:"baseUrl,omitempty"`
	Model      string `json:"model,omitempty"`
	WebhookURL string `json:"webhookUrl,omitempty"`
	WorkflowID string `json:"workflowId,omitempty"`
}

// Usable reports whether the provider has enough configuration to attempt a
// remote call: a non-empty credential or endpoint, depending on the kind.
func (s Settings) Usable() bool {
	switch s.Kind {
	case KindOpenAI, KindGemini:
		return s.APIKey != ""
	case KindWorkflow:
		return s.WebhookURL != ""
	case KindOffline:
		return false
	default:
		return false
	}
}

// Tag returns the identifier responses from this provider are tagged with.
func (s Settings) Tag() string {
	if s.Kind == KindWorkflow && s.WorkflowID != "" {
		return string(s.Kind) + ":" + s.WorkflowID
	}
	if s.Model != "" {
		return string(s.Kind) + ":" + s.Model
	}
	return string(s.Kind)
}

// Request carries one turn's sanitized text and its classification to a
// response source.
type Request struct {
	Text   string
	Intent intent.Result
}

// Response is the produced reply, tagged with the provider and model that
// generated it.
type Response struct {
	Text     string
	Provider string
	Model    string
}

// ResponseSource generates a reply for a request. Implementations honor
// context cancellation during their simulated or real latency.
type ResponseSource interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
