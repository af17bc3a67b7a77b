// Package router selects a response source for each turn: a specialized
// agent, the remote provider, or the offline generator, depending on the
// agent catalog, provider configuration, and connectivity state. Nothing in
// this stage is allowed to leave a turn without producing response text.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/agent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/connectivity"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/intent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/notify"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/provider"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/settings"
)

// ResponderKind identifies which persona produced a reply.
type ResponderKind string

// Responder kinds.
const (
	ResponderAssistant ResponderKind = "assistant"
	ResponderAgent     ResponderKind = "agent"
)

// Fixed texts appended or substituted by the router.
const (
	// UnexpectedFailureApology replaces the reply when response generation
	// fails for any reason.
	UnexpectedFailureApology = "I'm so sorry, something went wrong on my end. Could you try that again?"

	// OfflineDisclaimer is appended when the offline generator was used only
	// because the remote provider was skipped, not because the user is
	// genuinely offline.
	OfflineDisclaimer = "\n\n(Note: I couldn't use my online provider, so this is my best offline answer.)"
)

// integrationPrompts map an intent label to the one-line prompt offering to
// connect the corresponding integration.
var integrationPrompts = map[intent.Label]struct {
	integration settings.Integration
	prompt      string
}{
	intent.LabelCalendar: {settings.IntegrationCalendar, "Would you like to connect Google Calendar so I can manage events for you?"},
	intent.LabelEmail:    {settings.IntegrationEmail, "Would you like to connect Gmail so I can handle email for you?"},
	intent.LabelContacts: {settings.IntegrationContacts, "Would you like to connect Google Contacts so I can look people up for you?"},
}

// Request carries one sanitized turn into the router.
type Request struct {
	Text   string
	Intent intent.Result

	// ForcedDomain routes the turn to a specific agent regardless of keyword
	// lookup. Set by the activate-agent operation.
	ForcedDomain agent.Domain
}

// Result is the routed reply.
type Result struct {
	Text        string
	Kind        ResponderKind
	AgentDomain agent.Domain
	Provider    string
}

// IntegrationChecker reports external integration connection state.
type IntegrationChecker interface {
	IntegrationConnected(ctx context.Context, integration settings.Integration) bool
}

// Router chooses a response source and produces response text.
type Router struct {
	monitor      *connectivity.Monitor
	catalog      *agent.Catalog
	remote       provider.ResponseSource
	offline      provider.ResponseSource
	agentSim     *provider.Simulator
	integrations IntegrationChecker
	notifier     notify.Notifier
	logger       *slog.Logger
}

// New creates a Router. remote may be nil when no remote provider is
// configured; the offline source is always required.
func New(
	monitor *connectivity.Monitor,
	catalog *agent.Catalog,
	remote provider.ResponseSource,
	offline provider.ResponseSource,
	agentSim *provider.Simulator,
	integrations IntegrationChecker,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		monitor:      monitor,
		catalog:      catalog,
		remote:       remote,
		offline:      offline,
		agentSim:     agentSim,
		integrations: integrations,
		notifier:     notifier,
		logger:       logger.With("component", "router"),
	}
}

// Respond routes the turn and produces response text. Every failure class is
// recovered locally into a substitute response; Respond never reports an
// error to the caller.
func (r *Router) Respond(ctx context.Context, req Request, active provider.Settings) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "response generation panicked", "panic", rec)
			result = r.failureResult(ctx, fmt.Sprintf("panic: %v", rec))
		}
	}()

	result = r.dispatch(ctx, req, active)
	result.Text = r.appendIntegrationPrompt(ctx, req.Intent.Label, result.Text)
	return result
}

func (r *Router) dispatch(ctx context.Context, req Request, active provider.Settings) Result {
	// 1. Specialized agent path.
	if req.ForcedDomain != agent.DomainNone {
		profile, ok := r.catalog.Get(req.ForcedDomain)
		if !ok {
			r.logger.WarnContext(ctx, "requested agent not available", "domain", req.ForcedDomain)
			return Result{Text: agent.NotFoundApology(req.ForcedDomain), Kind: ResponderAssistant}
		}
		return r.agentResult(ctx, profile, req.Text, active)
	}
	if profile, ok := r.catalog.Lookup(req.Text); ok {
		return r.agentResult(ctx, profile, req.Text, active)
	}

	offlineMode := r.monitor.OfflineMode()

	// 2. Remote provider path.
	if !offlineMode && active.Usable() && r.remote != nil {
		resp, err := r.remote.Generate(ctx, provider.Request{Text: req.Text, Intent: req.Intent})
		if err != nil {
			r.logger.WarnContext(ctx, "remote provider failed", "provider", active.Kind, "error", err)
			return r.failureResult(ctx, err.Error())
		}
		r.monitor.RecordProviderSuccess()
		return Result{Text: resp.Text, Kind: ResponderAssistant, Provider: active.Tag()}
	}

	// 3. Offline generator path.
	resp, err := r.offline.Generate(ctx, provider.Request{Text: req.Text, Intent: req.Intent})
	if err != nil {
		r.logger.WarnContext(ctx, "offline generator failed", "error", err)
		return r.failureResult(ctx, err.Error())
	}

	text := resp.Text
	if !offlineMode {
		// The provider call was skipped because its preconditions were
		// unmet, not because the user is genuinely offline.
		text += OfflineDisclaimer
		r.monitor.RecordProviderFailure()
	}
	return Result{Text: text, Kind: ResponderAssistant, Provider: resp.Provider}
}

func (r *Router) agentResult(ctx context.Context, profile agent.Profile, text string, active provider.Settings) Result {
	if err := r.agentSim.Wait(ctx, text); err != nil {
		r.logger.WarnContext(ctx, "agent thinking interrupted", "domain", profile.Domain, "error", err)
		return r.failureResult(ctx, err.Error())
	}

	online := !r.monitor.OfflineMode() && active.Usable()
	reply := agent.Respond(profile, text, online)

	r.logger.DebugContext(ctx, "agent reply produced", "domain", profile.Domain, "online_templates", online)
	return Result{Text: reply, Kind: ResponderAgent, AgentDomain: profile.Domain}
}

// failureResult converts any failure during response generation into the
// fixed apology, increments the shared failure counter, and surfaces a
// transient notification.
func (r *Router) failureResult(ctx context.Context, detail string) Result {
	r.monitor.RecordProviderFailure()
	r.notifier.Notify(ctx, notify.Notification{
		Title:       "Response error",
		Description: "Something went wrong while generating a response.",
		Severity:    notify.SeverityError,
	})
	r.logger.ErrorContext(ctx, "turn recovered with apology", "detail", detail)
	return Result{Text: UnexpectedFailureApology, Kind: ResponderAssistant}
}

func (r *Router) appendIntegrationPrompt(ctx context.Context, label intent.Label, text string) string {
	entry, ok := integrationPrompts[label]
	if !ok {
		return text
	}
	if r.integrations.IntegrationConnected(ctx, entry.integration) {
		return text
	}
	return text + "\n\n" + entry.prompt
}
