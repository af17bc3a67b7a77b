package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/intent"
)

// OfflineSource is the intent-based canned generator. Its responses are
// tagged "offline" and its simulated latency scales with word count.
type OfflineSource struct {
	sim    *Simulator
	logger *slog.Logger
	now    func() time.Time
}

// OfflineOption configures an OfflineSource.
type OfflineOption func(*OfflineSource)

// WithClock overrides the source's clock, pinning the time-of-day greeting
// in tests.
func WithClock(now func() time.Time) OfflineOption {
	return func(s *OfflineSource) {
		s.now = now
	}
}

// NewOfflineSource creates the offline generator.
func NewOfflineSource(sim *Simulator, logger *slog.Logger, opts ...OfflineOption) *OfflineSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &OfflineSource{
		sim:    sim,
		logger: logger.With("component", "offline_source"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces a canned reply for the request's intent after the
// simulated latency.
func (s *OfflineSource) Generate(ctx context.Context, req Request) (Response, error) {
	if err := s.sim.Wait(ctx, req.Text); err != nil {
		return Response{}, fmt.Errorf("offline generation interrupted: %w", err)
	}

	text := s.replyFor(req)
	s.logger.DebugContext(ctx, "offline reply generated", "intent", req.Intent.Label)
	return Response{Text: text, Provider: string(KindOffline)}, nil
}

func (s *OfflineSource) replyFor(req Request) string {
	switch req.Intent.Label {
	case intent.LabelGreeting:
		return fmt.Sprintf("Good %s! It's lovely to hear from you. What can I do for you?", dayPart(s.now()))
	case intent.LabelFarewell:
		return "Goodbye! I'll be right here whenever you need me."
	case intent.LabelCalendar:
		return "I've noted the details of your event. " + recapEntities(req.Intent)
	case intent.LabelEmail:
		return "I can help you draft that message. What would you like it to say?"
	case intent.LabelContacts:
		return "I can look through your contacts once they're connected."
	case intent.LabelReminder:
		return "Okay, I'll keep that reminder in mind. " + recapEntities(req.Intent)
	case intent.LabelWeather:
		return "I can't reach the forecast right now, but I'd suggest checking before heading out."
	case intent.LabelTime:
		return fmt.Sprintf("It's currently %s.", s.now().Format("3:04 PM on Monday, January 2"))
	case intent.LabelSearch:
		return "That's a good question. Here's what I know off the top of my head, though I couldn't search for the latest details."
	case intent.LabelHelp:
		return "I can chat, keep track of events and reminders, and hand you off to my specialist agents. Just tell me what you need."
	default:
		return "I see. Tell me more, and I'll do my best to help."
	}
}

// dayPart returns the time-of-day-appropriate greeting term.
func dayPart(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func recapEntities(res intent.Result) string {
	if title, ok := res.Entities[intent.EntityEventTitle]; ok && len(title) > 0 {
		recap := fmt.Sprintf("A %s", title[0])
		if date, ok := res.Entities[intent.EntityDate]; ok && len(date) > 0 {
			recap += " " + date[0]
		}
		if at, ok := res.Entities[intent.EntityTime]; ok && len(at) > 0 {
			recap += " at " + at[0]
		}
		return recap + ", got it."
	}
	return "I'll remember that."
}
