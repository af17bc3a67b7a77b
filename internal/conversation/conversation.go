// Package conversation owns the ordered message log, the thinking/talking
// presentation flags, and the published mood. Its SendMessage pipeline runs
// the full turn: safety check, intent classification, mood derivation,
// connectivity check, routing, and message/timing state management. All
// operations are fire-and-forget: errors are absorbed into substitute
// responses and notifications, never returned to the caller.
package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/agent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/connectivity"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/database"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/intent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/mood"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/notify"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/router"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/safety"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/settings"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/speech"
)

// SenderKind identifies who produced a message.
type SenderKind string

// Sender kinds.
const (
	SenderUser      SenderKind = "user"
	SenderAssistant SenderKind = "assistant"
	SenderAgent     SenderKind = "agent"
)

// Message is one entry in the conversation log. Messages are immutable once
// created except for FeedbackRating and Reported, which are set exactly once
// by review actions.
type Message struct {
	ID          string
	Content     string
	IsUser      bool
	Sender      SenderKind
	AgentDomain agent.Domain
	Timestamp   time.Time
	Intent      *intent.Result

	FeedbackRating int
	Reported       bool
}

// Config controls conversation pacing and canned text.
type Config struct {
	WordsPerSecond   float64
	PunctuationPause time.Duration
	Greeting         string
	HistoryLimit     int
}

// Service is the conversation state store and turn pipeline.
type Service struct {
	cfg Config

	classifier *intent.Classifier
	filter     *safety.Filter
	settings   *settings.Service
	router     *router.Router
	monitor    *connectivity.Monitor
	catalog    *agent.Catalog
	store      database.Store
	notifier   notify.Notifier
	voice      speech.Output
	logger     *slog.Logger

	// turnMu serializes turn pipelines: a second SendMessage issued before
	// the first completes waits rather than interleaving.
	turnMu sync.Mutex

	// mu guards the log, flags, and mood.
	mu       sync.Mutex
	messages []Message
	thinking bool
	talking  bool
	talkGen  int
	mood     mood.Mood

	now       func() time.Time
	newID     func() string
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDFn overrides message id generation for tests.
func WithIDFn(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithAfterFunc overrides the talking timer for tests.
func WithAfterFunc(fn func(d time.Duration, f func()) *time.Timer) Option {
	return func(s *Service) {
		s.afterFunc = fn
	}
}

// NewService creates the conversation service. The log is restored from the
// store; an empty log is seeded with the canonical greeting.
func NewService(
	ctx context.Context,
	cfg Config,
	classifier *intent.Classifier,
	filter *safety.Filter,
	settingsSvc *settings.Service,
	rt *router.Router,
	monitor *connectivity.Monitor,
	catalog *agent.Catalog,
	store database.Store,
	notifier notify.Notifier,
	voice speech.Output,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cfg:        cfg,
		classifier: classifier,
		filter:     filter,
		settings:   settingsSvc,
		router:     rt,
		monitor:    monitor,
		catalog:    catalog,
		store:      store,
		notifier:   notifier,
		voice:      voice,
		logger:     logger.With("component", "conversation"),
		mood:       mood.Neutral,
		now:        time.Now,
		newID:      uuid.NewString,
		afterFunc:  time.AfterFunc,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.restore(ctx)
	return s
}

func (s *Service) restore(ctx context.Context) {
	rows, err := s.store.RecentMessages(ctx, s.cfg.HistoryLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to restore conversation history", "error", err)
	}
	for _, row := range rows {
		s.messages = append(s.messages, fromRow(row))
	}
	if len(s.messages) == 0 {
		s.appendMessage(ctx, Message{
			Content: s.cfg.Greeting,
			IsUser:  false,
			Sender:  SenderAssistant,
		})
	}
	s.logger.InfoContext(ctx, "conversation restored", "messages", len(s.messages))
}

// SendMessage runs one full turn for the given user text. Turns are
// serialized: overlapping calls execute one after another.
func (s *Service) SendMessage(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	s.runTurn(ctx, text, agent.DomainNone)
}

// ActivateAgent selects a specialized agent and, when text is provided, runs
// a turn routed directly to it.
func (s *Service) ActivateAgent(ctx context.Context, domain agent.Domain, text string) {
	if err := s.catalog.SetActive(domain); err != nil {
		s.logger.WarnContext(ctx, "agent activation failed", "domain", domain, "error", err)
		s.notifier.Notify(ctx, notify.Notification{
			Title:       "Agent unavailable",
			Description: agent.NotFoundApology(domain),
			Severity:    notify.SeverityWarning,
		})
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	s.runTurn(ctx, text, domain)
}

func (s *Service) runTurn(ctx context.Context, text string, forced agent.Domain) {
	s.setThinking(true)

	policy := s.settings.SafetyPolicy(ctx)
	verdict := s.filter.Check(text, policy)

	if !verdict.Allowed {
		// Hard short-circuit: the original text and the substitute reply are
		// both stored, but the turn never reaches the router.
		s.appendMessage(ctx, Message{Content: text, IsUser: true, Sender: SenderUser})
		s.finishTurn(ctx, Message{Content: verdict.TextToShow, Sender: SenderAssistant})
		return
	}

	result := s.classifier.Classify(text)
	s.appendMessage(ctx, Message{Content: text, IsUser: true, Sender: SenderUser, Intent: &result})

	s.setMood(mood.Determine(result))

	status := s.monitor.CheckNow(ctx)
	s.logger.DebugContext(ctx, "dispatching turn",
		"intent", result.Label, "online", status.IsOnline, "failures", status.ConsecutiveFailures)

	active := s.settings.ProviderSettings(ctx, s.settings.ActiveProvider(ctx))
	routed := s.router.Respond(ctx, router.Request{
		Text:         verdict.TextToShow,
		Intent:       result,
		ForcedDomain: forced,
	}, active)

	reply := Message{
		Content:     routed.Text,
		Sender:      senderFor(routed.Kind),
		AgentDomain: routed.AgentDomain,
	}
	s.finishTurn(ctx, reply)
}

// finishTurn appends the reply, clears the thinking flag, starts the talking
// timer, and hands the text to the speech output device.
func (s *Service) finishTurn(ctx context.Context, reply Message) {
	s.appendMessage(ctx, reply)
	s.setThinking(false)
	s.startTalking(reply.Content)

	if err := s.voice.Speak(ctx, reply.Content, s.settings.SpeechOptions(ctx)); err != nil {
		s.logger.WarnContext(ctx, "speech output failed", "error", err)
	}
}

// ClearMessages resets the log to a single canned greeting message.
func (s *Service) ClearMessages(ctx context.Context) {
	if err := s.store.DeleteAllMessages(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear stored messages", "error", err)
	}

	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	s.appendMessage(ctx, Message{
		Content: s.cfg.Greeting,
		IsUser:  false,
		Sender:  SenderAssistant,
	})
	s.logger.InfoContext(ctx, "conversation cleared")
}

// SubmitFeedback records a feedback rating for a message. The rating is set
// exactly once; later attempts are ignored with a warning.
func (s *Service) SubmitFeedback(ctx context.Context, messageID string, rating int) {
	if err := s.store.SetFeedbackRating(ctx, messageID, rating); err != nil {
		s.logger.WarnContext(ctx, "feedback not recorded", "message_id", messageID, "error", err)
		return
	}

	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == messageID && s.messages[i].FeedbackRating == 0 {
			s.messages[i].FeedbackRating = rating
			break
		}
	}
	s.mu.Unlock()

	s.notifier.Notify(ctx, notify.Notification{
		Title:       "Feedback received",
		Description: "Thanks for helping Bella improve.",
		Severity:    notify.SeverityInfo,
	})
}

// ReportMessage flags a message for review. The flag is set exactly once;
// later attempts are ignored with a warning.
func (s *Service) ReportMessage(ctx context.Context, messageID string, reason string) {
	if err := s.store.MarkReported(ctx, messageID, reason); err != nil {
		s.logger.WarnContext(ctx, "report not recorded", "message_id", messageID, "error", err)
		return
	}

	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].Reported = true
			break
		}
	}
	s.mu.Unlock()

	s.notifier.Notify(ctx, notify.Notification{
		Title:       "Message reported",
		Description: "The message was flagged for review.",
		Severity:    notify.SeverityInfo,
	})
}

// Messages returns a copy of the ordered message log.
func (s *Service) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// IsThinking reports whether a turn is being processed.
func (s *Service) IsThinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thinking
}

// IsTalking reports whether the talking timer is running.
func (s *Service) IsTalking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.talking
}

// Mood returns the currently published mood.
func (s *Service) Mood() mood.Mood {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mood
}

// ConnectionStatus returns the monitor's current snapshot.
func (s *Service) ConnectionStatus() connectivity.Status {
	return s.monitor.Status()
}

// SpeakingDuration estimates how long the assistant speaks the given text:
// word count over the speaking rate plus a fixed pause per punctuation mark.
func (s *Service) SpeakingDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	punctuation := strings.Count(text, ".") + strings.Count(text, ",") +
		strings.Count(text, "!") + strings.Count(text, "?") + strings.Count(text, ";")

	seconds := float64(words) / s.cfg.WordsPerSecond
	return time.Duration(seconds*float64(time.Second)) + time.Duration(punctuation)*s.cfg.PunctuationPause
}

func (s *Service) appendMessage(ctx context.Context, msg Message) Message {
	msg.ID = s.newID()
	msg.Timestamp = s.now()

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if err := s.store.SaveMessage(ctx, toRow(msg)); err != nil {
		s.logger.WarnContext(ctx, "failed to persist message", "message_id", msg.ID, "error", err)
	}
	return msg
}

func (s *Service) setThinking(v bool) {
	s.mu.Lock()
	s.thinking = v
	s.mu.Unlock()
}

func (s *Service) setMood(m mood.Mood) {
	s.mu.Lock()
	changed := s.mood != m
	s.mood = m
	s.mu.Unlock()
	if changed {
		s.logger.Debug("mood changed", "mood", m)
	}
}

// startTalking sets the talking flag and schedules it to clear after the
// speaking duration. The generation counter keeps a stale timer from a
// previous turn from clearing a newer turn's flag.
func (s *Service) startTalking(text string) {
	duration := s.SpeakingDuration(text)

	s.mu.Lock()
	s.talking = true
	s.talkGen++
	gen := s.talkGen
	s.mu.Unlock()

	s.afterFunc(duration, func() {
		s.mu.Lock()
		if s.talkGen == gen {
			s.talking = false
		}
		s.mu.Unlock()
	})
}

func senderFor(kind router.ResponderKind) SenderKind {
	switch kind {
	case router.ResponderAgent:
		return SenderAgent
	case router.ResponderAssistant:
		return SenderAssistant
	default:
		return SenderAssistant
	}
}

func toRow(msg Message) *database.Message {
	row := &database.Message{
		ID:          msg.ID,
		Content:     msg.Content,
		IsUser:      msg.IsUser,
		SenderKind:  string(msg.Sender),
		AgentDomain: string(msg.AgentDomain),
		Timestamp:   msg.Timestamp.UTC(),
		Reported:    msg.Reported,
	}
	if msg.Intent != nil {
		row.IntentLabel = string(msg.Intent.Label)
	}
	return row
}

func fromRow(row database.Message) Message {
	msg := Message{
		ID:          row.ID,
		Content:     row.Content,
		IsUser:      row.IsUser,
		Sender:      SenderKind(row.SenderKind),
		AgentDomain: agent.Domain(row.AgentDomain),
		Timestamp:   row.Timestamp,
		Reported:    row.Reported,
	}
	if row.FeedbackRating.Valid {
		msg.FeedbackRating = int(row.FeedbackRating.Int64)
	}
	return msg
}
