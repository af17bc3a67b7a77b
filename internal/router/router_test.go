package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/agent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/connectivity"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/intent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/notify"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/provider"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/settings"
)

// stubSource returns a scripted response or error; it can also panic.
type stubSource struct {
	resp     provider.Response
	err      error
	panicMsg string
	calls    int
}

func (s *stubSource) Generate(context.Context, provider.Request) (provider.Response, error) {
	s.calls++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.resp, s.err
}

// stubIntegrations reports a fixed set of connected integrations.
type stubIntegrations struct {
	connected map[settings.Integration]bool
}

func (s *stubIntegrations) IntegrationConnected(_ context.Context, i settings.Integration) bool {
	return s.connected[i]
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	seen []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, notification)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.seen)
}

// okProber always measures a fast round-trip.
type okProber struct{}

func (okProber) Probe(context.Context) (time.Duration, error) {
	return 50 * time.Millisecond, nil
}

// failProber always fails.
type failProber struct{}

func (failProber) Probe(context.Context) (time.Duration, error) {
	return 0, errors.New("unreachable")
}

type fixture struct {
	router   *Router
	monitor  *connectivity.Monitor
	remote   *stubSource
	offline  *stubSource
	notifier *recordingNotifier
}

func newFixture(t *testing.T, prober connectivity.Prober) *fixture {
	t.Helper()

	monitor := connectivity.NewMonitor(prober, 3, nil)
	monitor.CheckNow(context.Background())

	remote := &stubSource{resp: provider.Response{Text: "remote reply", Provider: "gemini"}}
	offline := &stubSource{resp: provider.Response{Text: "offline reply", Provider: "offline"}}
	notifier := &recordingNotifier{}
	sim := provider.NewSimulator(0, 0, 0)

	r := New(monitor, agent.NewCatalog(nil), remote, offline, sim,
		&stubIntegrations{connected: map[settings.Integration]bool{}}, notifier, nil)
	return &fixture{router: r, monitor: monitor, remote: remote, offline: offline, notifier: notifier}
}

func geminiSettings() provider.Settings {
	return provider.Settings{Kind: provider.KindGemini, APIKey: "key", Model: "gemini-2.0-flash"}
}

func TestRespondRemotePath(t *testing.T) {
	t.Parallel()

	f := newFixture(t, okProber{})
	f.monitor.RecordProviderFailure()

	got := f.router.Respond(context.Background(), Request{
		Text:   "tell me a fun fact",
		Intent: intent.Result{Label: intent.LabelGeneral},
	}, geminiSettings())

	if got.Text != "remote reply" {
		t.Errorf("Text = %q, want remote reply", got.Text)
	}
	if got.Kind != ResponderAssistant {
		t.Errorf("Kind = %q, want %q", got.Kind, ResponderAssistant)
	}
	if got.Provider != "gemini:gemini-2.0-flash" {
		t.Errorf("Provider = %q, want tag", got.Provider)
	}
	if f.offline.calls != 0 {
		t.Errorf("offline generator called %d times, want 0", f.offline.calls)
	}
	if got := f.monitor.Status().ConsecutiveFailures; got != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0 after remote success", got)
	}
}

func TestRespondRemoteFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, okProber{})
	f.remote.err = errors.New("quota exceeded")

	got := f.router.Respond(context.Background(), Request{
		Text:   "tell me a fun fact",
		Intent: intent.Result{Label: intent.LabelGeneral},
	}, geminiSettings())

	if got.Text != UnexpectedFailureApology {
		t.Errorf("Text = %q, want the fixed apology", got.Text)
	}
	if got := f.monitor.Status().ConsecutiveFailures; got != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", got)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", f.notifier.count())
	}
}

func TestRespondUnusableProviderFallsBackWithDisclaimer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, okProber{})
	noKey := provider.Settings{Kind: provider.KindGemini}

	got := f.router.Respond(context.Background(), Request{
		Text:   "tell me a fun fact",
		Intent: intent.Result{Label: intent.LabelGeneral},
	}, noKey)

	if !strings.HasPrefix(got.Text, "offline reply") {
		t.Errorf("Text = %q, want offline reply prefix", got.Text)
	}
	if !strings.Contains(got.Text, OfflineDisclaimer) {
		t.Errorf("Text = %q, want the offline disclaimer appended", got.Text)
	}
	if f.remote.calls != 0 {
		t.Errorf("remote called %d times, want 0", f.remote.calls)
	}
	if got := f.monitor.Status().ConsecutiveFailures; got != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1 after skipped provider", got)
	}
}

func TestRespondGenuinelyOfflineHasNoDisclaimer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, failProber{})

	got := f.router.Respond(context.Background(), Request{
		Text:   "tell me a fun fact",
		Intent: intent.Result{Label: intent.LabelGeneral},
	}, geminiSettings())

	if got.Text != "offline reply" {
		t.Errorf("Text = %q, want bare offline reply", got.Text)
	}
	if f.remote.calls != 0 {
		t.Errorf("remote called %d times while offline, want 0", f.remote.calls)
	}
	// CheckNow in the fixture already counted the probe failure; the offline
	// path itself must not add another.
	if got := f.monitor.Status().ConsecutiveFailures; got != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", got)
	}
}

func TestRespondAgentPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t, okProber{})

	got := f.router.Respond(context.Background(), Request{
		Text:   "help me debug this function",
		Intent: intent.Result{Label: intent.LabelGeneral},
	}, geminiSettings())

	if got.Kind != ResponderAgent {
		t.Fatalf("Kind = %q, want %q", got.Kind, ResponderAgent)
	}
	if got.AgentDomain != agent.DomainCoding {
		t.Errorf("AgentDomain = %q, want %q", got.AgentDomain, agent.DomainCoding)
	}
	if !strings.HasPrefix(got.Text, "Dev: ") {
		t.Errorf("Text = %q, want the Dev persona", got.Text)
	}
	if strings.Contains(got.Text, agent.DegradedModeNotice) {
		t.Errorf("online agent reply carries degraded notice: %q", got.Text)
	}
	if f.remote.calls != 0 || f.offline.calls != 0 {
		t.Error("agent path must not call the generators")
	}
}

func TestRespondAgentPathOfflineTemplates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, failProber{})

	got := f.router.Respond(context.Background(), Request{
		Text:   "help me debug this function",
		Intent: intent.Result{Label: intent.LabelGeneral},
	}, geminiSettings())

	if got.Kind != ResponderAgent {
		t.Fatalf("Kind = %q, want %q", got.Kind, ResponderAgent)
	}
	if !strings.Contains(got.Text, agent.DegradedModeNotice) {
		t.Errorf("offline agent reply missing degraded notice: %q", got.Text)
	}
}

func TestRespondForcedDomain(t *testing.T) {
	t.Parallel()

	f := newFixture(t, okProber{})

	got := f.router.Respond(context.Background(), Request{
		Text:         "anything at all",
		Intent:       intent.Result{Label: intent.LabelGeneral},
		ForcedDomain: agent.DomainCreative,
	}, geminiSettings())

	if got.Kind != ResponderAgent || got.AgentDomain != agent.DomainCreative {
		t.Errorf("Result = %+v, want forced creative agent", got)
	}
}

func TestRespondForcedDomainNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, okProber{})

	got := f.router.Respond(context.Background(), Request{
		Text:         "anything",
		Intent:       intent.Result{Label: intent.LabelGeneral},
		ForcedDomain: agent.Domain("gardening"),
	}, geminiSettings())

	if got.Kind != ResponderAssistant {
		t.Errorf("Kind = %q, want assistant apology", got.Kind)
	}
	if got.Text != agent.NotFoundApology(agent.Domain("gardening")) {
		t.Errorf("Text = %q, want the not-found apology", got.Text)
	}
}

func TestRespondRecoversFromPanic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, okProber{})
	f.remote.panicMsg = "nil dereference in provider"

	got := f.router.Respond(context.Background(), Request{
		Text:   "tell me a fun fact",
		Intent: intent.Result{Label: intent.LabelGeneral},
	}, geminiSettings())

	if got.Text != UnexpectedFailureApology {
		t.Errorf("Text = %q, want the fixed apology after panic", got.Text)
	}
	if got := f.monitor.Status().ConsecutiveFailures; got != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1 after panic", got)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", f.notifier.count())
	}
}

func TestRespondIntegrationPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		label     intent.Label
		connected bool
		wantHint  string
	}{
		{"calendar unconnected", intent.LabelCalendar, false, "Google Calendar"},
		{"email unconnected", intent.LabelEmail, false, "Gmail"},
		{"contacts unconnected", intent.LabelContacts, false, "Google Contacts"},
		{"calendar connected", intent.LabelCalendar, true, ""},
		{"no prompt for general", intent.LabelGeneral, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			monitor := connectivity.NewMonitor(okProber{}, 3, nil)
			monitor.CheckNow(context.Background())
			remote := &stubSource{resp: provider.Response{Text: "remote reply"}}
			integrations := &stubIntegrations{connected: map[settings.Integration]bool{
				settings.IntegrationCalendar: tt.connected,
				settings.IntegrationEmail:    tt.connected,
				settings.IntegrationContacts: tt.connected,
			}}
			r := New(monitor, agent.NewCatalog(nil), remote, &stubSource{}, provider.NewSimulator(0, 0, 0),
				integrations, &recordingNotifier{}, nil)

			got := r.Respond(context.Background(), Request{
				Text:   "no agent keywords here",
				Intent: intent.Result{Label: tt.label},
			}, geminiSettings())

			hasPrompt := strings.Contains(got.Text, "Would you like to connect")
			if tt.wantHint == "" {
				if hasPrompt {
					t.Errorf("Text = %q, want no integration prompt", got.Text)
				}
				return
			}
			if !hasPrompt || !strings.Contains(got.Text, tt.wantHint) {
				t.Errorf("Text = %q, want a prompt mentioning %q", got.Text, tt.wantHint)
			}
		})
	}
}
