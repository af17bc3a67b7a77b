package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/agent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/connectivity"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/database"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/intent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/mood"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/notify"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/provider"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/router"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/safety"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/settings"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/speech"
)

// memStore is an in-memory Store with the same write-once semantics as the
// SQL implementation.
type memStore struct {
	mu       sync.Mutex
	rows     map[string]*database.Message
	order    []string
	settings map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		rows:     make(map[string]*database.Message),
		settings: make(map[string]string),
	}
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) SaveMessage(_ context.Context, message *database.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *message
	s.rows[row.ID] = &row
	s.order = append(s.order, row.ID)
	return nil
}

func (s *memStore) RecentMessages(_ context.Context, limit int) ([]database.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Message, 0, len(s.order))
	start := 0
	if limit > 0 && len(s.order) > limit {
		start = len(s.order) - limit
	}
	for _, id := range s.order[start:] {
		out = append(out, *s.rows[id])
	}
	return out, nil
}

func (s *memStore) SetFeedbackRating(_ context.Context, messageID string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[messageID]
	if !ok || row.FeedbackRating.Valid {
		return fmt.Errorf("message %s not found or already rated: %w", messageID, database.ErrNotFound)
	}
	row.FeedbackRating.Valid = true
	row.FeedbackRating.Int64 = int64(rating)
	return nil
}

func (s *memStore) MarkReported(_ context.Context, messageID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[messageID]
	if !ok || row.Reported {
		return fmt.Errorf("message %s not found or already reported: %w", messageID, database.ErrNotFound)
	}
	row.Reported = true
	row.ReportReason = reason
	return nil
}

func (s *memStore) DeleteAllMessages(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[string]*database.Message)
	s.order = nil
	return nil
}

func (s *memStore) DeleteMessagesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []string
	var removed int64
	for _, id := range s.order {
		if s.rows[id].Timestamp.Before(cutoff) {
			delete(s.rows, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed, nil
}

func (s *memStore) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.settings[key]
	if !ok {
		return "", fmt.Errorf("setting %q: %w", key, database.ErrNotFound)
	}
	return value, nil
}

func (s *memStore) SaveSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

// stubSource counts Generate calls and returns a fixed reply.
type stubSource struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (s *stubSource) Generate(context.Context, provider.Request) (provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return provider.Response{Text: s.text, Provider: "stub"}, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type okProber struct{}

func (okProber) Probe(context.Context) (time.Duration, error) {
	return 50 * time.Millisecond, nil
}

type silentNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *silentNotifier) Notify(_ context.Context, notification notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, notification.Title)
}

type harness struct {
	svc      *Service
	store    *memStore
	remote   *stubSource
	offline  *stubSource
	notifier *silentNotifier
	timers   *timerStub
}

// timerStub collects scheduled talking-timer callbacks so tests can fire
// them deterministically.
type timerStub struct {
	mu        sync.Mutex
	callbacks []func()
}

func (t *timerStub) afterFunc(_ time.Duration, f func()) *time.Timer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, f)
	return nil
}

func (t *timerStub) fire(i int) {
	t.mu.Lock()
	f := t.callbacks[i]
	t.mu.Unlock()
	f()
}

func (t *timerStub) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.callbacks)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	store := newMemStore()
	notifier := &silentNotifier{}
	remote := &stubSource{text: "remote reply"}
	offline := &stubSource{text: "offline reply"}
	timers := &timerStub{}

	settingsSvc := settings.NewService(store, notifier, settings.Defaults{
		Safety: safety.Policy{
			ContentFilteringEnabled: true,
			BlockedTopics:           []string{"politics"},
			RetentionLimitDays:      30,
		},
		ActiveProvider: provider.KindGemini,
		Providers: map[provider.Kind]provider.Settings{
			provider.KindGemini: {Kind: provider.KindGemini, APIKey: "key", Model: "gemini-2.0-flash"},
		},
		Speech: speech.Options{VoiceID: "default", Rate: 1, Volume: 1},
	}, nil)

	monitor := connectivity.NewMonitor(okProber{}, 3, nil)
	catalog := agent.NewCatalog(nil)
	rt := router.New(monitor, catalog, remote, offline, provider.NewSimulator(0, 0, 0),
		settingsSvc, notifier, nil)

	svc := NewService(ctx, Config{
		WordsPerSecond:   2,
		PunctuationPause: 100 * time.Millisecond,
		Greeting:         "Hi! I'm Bella. How can I help you today?",
		HistoryLimit:     50,
	},
		intent.NewClassifier(nil),
		safety.NewFilter(nil),
		settingsSvc,
		rt,
		monitor,
		catalog,
		store,
		notifier,
		speech.NewLogOutput(nil),
		nil,
		WithAfterFunc(timers.afterFunc),
	)

	return &harness{svc: svc, store: store, remote: remote, offline: offline, notifier: notifier, timers: timers}
}

func TestNewServiceSeedsGreeting(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	msgs := h.svc.Messages()
	if len(msgs) != 1 {
		t.Fatalf("message count = %d, want 1", len(msgs))
	}
	if msgs[0].IsUser || msgs[0].Sender != SenderAssistant {
		t.Errorf("seed message = %+v, want assistant greeting", msgs[0])
	}
	if msgs[0].Content != "Hi! I'm Bella. How can I help you today?" {
		t.Errorf("greeting = %q", msgs[0].Content)
	}
}

func TestSendMessageFullTurn(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	h.svc.SendMessage(ctx, "hello")

	msgs := h.svc.Messages()
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want greeting + user + reply", len(msgs))
	}

	user := msgs[1]
	if !user.IsUser || user.Sender != SenderUser {
		t.Errorf("user message = %+v", user)
	}
	if user.Intent == nil || user.Intent.Label != intent.LabelGreeting {
		t.Errorf("user intent = %+v, want greeting", user.Intent)
	}

	reply := msgs[2]
	if reply.IsUser || reply.Content != "remote reply" {
		t.Errorf("reply = %+v, want the remote stub text", reply)
	}

	if got := h.svc.Mood(); got != mood.Happy {
		t.Errorf("Mood() = %q, want happy after greeting", got)
	}
	if h.svc.IsThinking() {
		t.Error("IsThinking() = true after turn completed")
	}
	if !h.svc.IsTalking() {
		t.Error("IsTalking() = false right after reply")
	}

	// Both turn messages are durable.
	rows, err := h.store.RecentMessages(ctx, 10)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("stored rows = %d, want 3", len(rows))
	}
}

func TestSendMessageEmptyTextIsNoOp(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.svc.SendMessage(context.Background(), "   ")

	if got := len(h.svc.Messages()); got != 1 {
		t.Errorf("message count = %d, want just the greeting", got)
	}
}

func TestSendMessageSafetyVeto(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	h.svc.SendMessage(ctx, "let's talk politics")

	msgs := h.svc.Messages()
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want greeting + user + apology", len(msgs))
	}

	user := msgs[1]
	if user.Content != "let's talk politics" || !user.IsUser {
		t.Errorf("vetoed user message = %+v, want original text stored", user)
	}
	if user.Intent != nil {
		t.Errorf("vetoed user message has intent %+v, want none", user.Intent)
	}

	apology := msgs[2]
	if apology.Content != safety.BlockedTopicApology {
		t.Errorf("apology = %q, want the fixed blocked-topic apology", apology.Content)
	}

	// The veto short-circuits the turn: no generator is consulted.
	if h.remote.callCount() != 0 || h.offline.callCount() != 0 {
		t.Error("a response source was called for a vetoed turn")
	}
}

func TestClearMessages(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	h.svc.SendMessage(ctx, "hello")
	h.svc.ClearMessages(ctx)

	msgs := h.svc.Messages()
	if len(msgs) != 1 {
		t.Fatalf("message count after clear = %d, want 1", len(msgs))
	}
	if msgs[0].Sender != SenderAssistant || msgs[0].IsUser {
		t.Errorf("post-clear message = %+v, want the greeting", msgs[0])
	}

	rows, err := h.store.RecentMessages(ctx, 10)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("stored rows after clear = %d, want 1", len(rows))
	}
}

func TestActivateAgentRunsForcedTurn(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	h.svc.ActivateAgent(ctx, agent.DomainCreative, "a poem about rain")

	msgs := h.svc.Messages()
	last := msgs[len(msgs)-1]
	if last.Sender != SenderAgent {
		t.Errorf("Sender = %q, want agent", last.Sender)
	}
	if last.AgentDomain != agent.DomainCreative {
		t.Errorf("AgentDomain = %q, want creative", last.AgentDomain)
	}
	if !strings.HasPrefix(last.Content, "Muse: ") {
		t.Errorf("reply = %q, want the Muse persona", last.Content)
	}
}

func TestActivateAgentUnknownDomain(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.svc.ActivateAgent(context.Background(), agent.Domain("gardening"), "prune the roses")

	if got := len(h.svc.Messages()); got != 1 {
		t.Errorf("message count = %d, want no turn for unknown domain", got)
	}
	h.notifier.mu.Lock()
	defer h.notifier.mu.Unlock()
	found := false
	for _, title := range h.notifier.titles {
		if title == "Agent unavailable" {
			found = true
		}
	}
	if !found {
		t.Error("no Agent unavailable notification was sent")
	}
}

func TestSubmitFeedbackWriteOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	h.svc.SendMessage(ctx, "hello")
	msgs := h.svc.Messages()
	reply := msgs[len(msgs)-1]

	h.svc.SubmitFeedback(ctx, reply.ID, 5)

	updated := h.svc.Messages()
	if got := updated[len(updated)-1].FeedbackRating; got != 5 {
		t.Fatalf("FeedbackRating = %d, want 5", got)
	}

	// A second rating attempt is ignored.
	h.svc.SubmitFeedback(ctx, reply.ID, 1)
	updated = h.svc.Messages()
	if got := updated[len(updated)-1].FeedbackRating; got != 5 {
		t.Errorf("FeedbackRating after second attempt = %d, want 5", got)
	}
}

func TestReportMessageWriteOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	h.svc.SendMessage(ctx, "hello")
	msgs := h.svc.Messages()
	reply := msgs[len(msgs)-1]

	h.svc.ReportMessage(ctx, reply.ID, "inaccurate")

	updated := h.svc.Messages()
	if !updated[len(updated)-1].Reported {
		t.Fatal("Reported = false after report")
	}

	rows, err := h.store.RecentMessages(ctx, 10)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	last := rows[len(rows)-1]
	if !last.Reported || last.ReportReason != "inaccurate" {
		t.Errorf("stored row = %+v, want reported with reason", last)
	}

	// A second report attempt must not clobber the original reason.
	h.svc.ReportMessage(ctx, reply.ID, "other reason")
	rows, _ = h.store.RecentMessages(ctx, 10)
	if got := rows[len(rows)-1].ReportReason; got != "inaccurate" {
		t.Errorf("ReportReason after second attempt = %q, want the original", got)
	}
}

func TestSpeakingDuration(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	tests := []struct {
		name string
		text string
		want time.Duration
	}{
		{"words only", "one two three four", 2 * time.Second},
		{"punctuation pause", "Hello there, friend.", 1700 * time.Millisecond},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := h.svc.SpeakingDuration(tt.text); got != tt.want {
				t.Errorf("SpeakingDuration(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStaleTalkingTimerIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	h.svc.SendMessage(ctx, "hello")
	h.svc.SendMessage(ctx, "hello again")

	if h.timers.count() != 2 {
		t.Fatalf("scheduled timers = %d, want 2", h.timers.count())
	}

	// The first turn's timer fires after the second turn already started
	// talking; it must not clear the newer flag.
	h.timers.fire(0)
	if !h.svc.IsTalking() {
		t.Error("IsTalking() = false after stale timer fired")
	}

	h.timers.fire(1)
	if h.svc.IsTalking() {
		t.Error("IsTalking() = true after current timer fired")
	}
}

func TestHistoryRestoredAcrossRestart(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.svc.SendMessage(ctx, "hello")

	// A second service over the same store restores instead of reseeding.
	settingsSvc := settings.NewService(h.store, h.notifier, settings.Defaults{}, nil)
	monitor := connectivity.NewMonitor(okProber{}, 3, nil)
	catalog := agent.NewCatalog(nil)
	rt := router.New(monitor, catalog, h.remote, h.offline, provider.NewSimulator(0, 0, 0),
		settingsSvc, h.notifier, nil)

	restored := NewService(ctx, Config{
		WordsPerSecond: 2,
		Greeting:       "unused greeting",
		HistoryLimit:   50,
	},
		intent.NewClassifier(nil), safety.NewFilter(nil), settingsSvc, rt, monitor, catalog,
		h.store, h.notifier, speech.NewLogOutput(nil), nil)

	msgs := restored.Messages()
	if len(msgs) != 3 {
		t.Fatalf("restored message count = %d, want 3", len(msgs))
	}
	if msgs[0].Content == "unused greeting" {
		t.Error("restored log was reseeded with a greeting")
	}
}
