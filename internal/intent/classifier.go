// Package intent implements rule-based intent classification for user text.
// Classification is intentionally keyword-driven: an ordered rule table is
// scanned and the first label with a matching trigger phrase wins. Entity
// extraction, emotion detection, and contextual-memory capture run over the
// same normalized text. Absence of a match degrades to defaults, never to an
// error.
package intent

import (
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
)

// Label is the coarse category of a user request.
type Label string

// Known intent labels. LabelGeneral is the fallback when no rule matches.
const (
	LabelGeneral  Label = "general"
	LabelGreeting Label = "greeting"
	LabelFarewell Label = "farewell"
	LabelCalendar Label = "calendar"
	LabelEmail    Label = "email"
	LabelContacts Label = "contacts"
	LabelWeather  Label = "weather"
	LabelTime     Label = "time"
	LabelReminder Label = "reminder"
	LabelSearch   Label = "search"
	LabelHelp     Label = "help"
)

// EntityType identifies a typed span of text extracted in support of an intent.
type EntityType string

// Known entity types.
const (
	EntityDate         EntityType = "date"
	EntityTime         EntityType = "time"
	EntityPerson       EntityType = "person"
	EntityLocation     EntityType = "location"
	EntityEventTitle   EntityType = "event_title"
	EntityEmailAddress EntityType = "email_address"
	EntityDuration     EntityType = "duration"
)

// Emotion is a coarse emotion label detected from keywords. The zero value
// means no emotion was detected.
type Emotion string

// Known emotion labels.
const (
	EmotionNone     Emotion = ""
	EmotionHappy    Emotion = "happy"
	EmotionSad      Emotion = "sad"
	EmotionAngry    Emotion = "angry"
	EmotionExcited  Emotion = "excited"
	EmotionConfused Emotion = "confused"
	EmotionCurious  Emotion = "curious"
)

// ContextualMemory carries naively inferred preferences and the topics seen
// in the current turn. It is advisory context, not durable state.
type ContextualMemory struct {
	PreferredTopic string
	DarkMode       *bool
	VoiceOutput    *bool
	RecentTopics   []string
}

// Result is the outcome of classifying one user turn. It is produced fresh
// per turn and never mutated afterwards.
type Result struct {
	NormalizedText string
	Label          Label
	Confidence     float64
	Entities       map[EntityType][]string
	PrimaryEmotion Emotion
	Memory         ContextualMemory
}

// Confidence constants. A matched label receives floor plus jitter; the
// jitter models classifier uncertainty, not a true probability.
const (
	matchedConfidenceFloor  = 0.70
	matchedConfidenceJitter = 0.25
	generalConfidence       = 0.40
)

// intentRule binds a label to its trigger phrases. Rules are evaluated in
// declaration order and the first matching trigger wins; this ordering is the
// documented tie-break, so more specific intents come first.
type intentRule struct {
	label    Label
	triggers []string
}

var intentRules = []intentRule{
	{LabelCalendar, []string{"schedule", "meeting", "appointment", "calendar", "book a", "remind me about the event"}},
	{LabelEmail, []string{"email", "send a message to", "inbox", "compose"}},
	{LabelContacts, []string{"contact", "phone number", "address book", "call "}},
	{LabelReminder, []string{"remind me", "reminder", "don't let me forget"}},
	{LabelWeather, []string{"weather", "forecast", "temperature outside", "raining", "sunny"}},
	{LabelTime, []string{"what time", "current time", "what's the date", "what day is"}},
	{LabelSearch, []string{"search for", "look up", "find out", "what is", "who is", "tell me about"}},
	{LabelHelp, []string{"help", "what can you do", "how do i"}},
	{LabelFarewell, []string{"goodbye", "bye", "see you later", "good night"}},
	{LabelGreeting, []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}},
}

// entityRule binds an entity type to a pattern. Every rule is scanned
// independently of the matched intent, so multiple entity types may fire per
// turn; matches accumulate per type and are not deduplicated.
type entityRule struct {
	entityType EntityType
	pattern    *regexp.Regexp
}

var entityRules = []entityRule{
	{EntityEventTitle, regexp.MustCompile(`\b(meeting|appointment|call|lunch|dinner|event|interview|standup)\b`)},
	{EntityDate, regexp.MustCompile(`\b(today|tomorrow|tonight|yesterday|monday|tuesday|wednesday|thursday|friday|saturday|sunday|next week|next month|\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)},
	{EntityTime, regexp.MustCompile(`\b(\d{1,2}(?::\d{2})?\s?(?:am|pm)|noon|midnight)\b`)},
	{EntityPerson, regexp.MustCompile(`\b(mom|dad|mother|father|wife|husband|boss|doctor|dentist)\b`)},
	{EntityLocation, regexp.MustCompile(`\b(home|office|work|school|airport|downtown|gym)\b`)},
	{EntityEmailAddress, regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`)},
	{EntityDuration, regexp.MustCompile(`\b\d+\s?(?:minutes?|hours?|days?|weeks?)\b`)},
}

// emotionRule binds an emotion to its keywords; first match wins.
type emotionRule struct {
	emotion  Emotion
	keywords []string
}

var emotionRules = []emotionRule{
	{EmotionExcited, []string{"excited", "can't wait", "amazing news"}},
	{EmotionHappy, []string{"great", "awesome", "wonderful", "happy", "love it"}},
	{EmotionSad, []string{"sad", "unhappy", "depressed", "lonely", "miss you"}},
	{EmotionAngry, []string{"angry", "furious", "annoyed", "frustrated", "hate"}},
	{EmotionConfused, []string{"confused", "don't understand", "makes no sense"}},
	{EmotionCurious, []string{"curious", "wondering", "i wonder"}},
}

var preferencePattern = regexp.MustCompile(`\bi (?:like|prefer|want|love)\s+([^.!?,]+)`)

// Classifier maps raw user text to an intent Result.
type Classifier struct {
	logger *slog.Logger
	randFn func() float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRandFn overrides the jitter source, letting tests pin confidence values.
func WithRandFn(fn func() float64) Option {
	return func(c *Classifier) {
		c.randFn = fn
	}
}

// NewClassifier creates a Classifier with the default jitter source.
func NewClassifier(logger *slog.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		logger: logger.With("component", "intent_classifier"),
		randFn: rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify maps raw user text to an intent label, extracted entities, an
// optional emotion, and contextual memory. It never fails; unmatched text
// yields the general label with a fixed low confidence.
func (c *Classifier) Classify(text string) Result {
	normalized := strings.ToLower(strings.TrimSpace(text))

	result := Result{
		NormalizedText: normalized,
		Label:          LabelGeneral,
		Confidence:     generalConfidence,
		Entities:       make(map[EntityType][]string),
	}

	for _, rule := range intentRules {
		if matchesAny(normalized, rule.triggers) {
			result.Label = rule.label
			result.Confidence = matchedConfidenceFloor + c.randFn()*matchedConfidenceJitter
			break
		}
	}

	firedTypes := make([]EntityType, 0, len(entityRules))
	for _, rule := range entityRules {
		matches := rule.pattern.FindAllString(normalized, -1)
		if len(matches) > 0 {
			result.Entities[rule.entityType] = append(result.Entities[rule.entityType], matches...)
			firedTypes = append(firedTypes, rule.entityType)
		}
	}

	for _, rule := range emotionRules {
		if matchesAny(normalized, rule.keywords) {
			result.PrimaryEmotion = rule.emotion
			break
		}
	}

	result.Memory = captureMemory(normalized, result.Label, firedTypes)

	c.logger.Debug("classified user turn",
		"label", result.Label,
		"confidence", result.Confidence,
		"entity_types", len(result.Entities),
		"emotion", result.PrimaryEmotion,
	)
	return result
}

func matchesAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// captureMemory performs the naive preference capture: "I like/prefer/want X"
// stores X as the preferred topic, explicit dark-mode and voice-output
// mentions become boolean toggles, and the recent-topic list is seeded from
// the matched intent plus every entity type that fired.
func captureMemory(normalized string, label Label, firedTypes []EntityType) ContextualMemory {
	memory := ContextualMemory{}

	if m := preferencePattern.FindStringSubmatch(normalized); m != nil {
		memory.PreferredTopic = strings.TrimSpace(m[1])
	}

	if strings.Contains(normalized, "dark mode") {
		enabled := !containsAny(normalized, "off", "disable", "turn off")
		memory.DarkMode = &enabled
	}
	if strings.Contains(normalized, "voice output") || strings.Contains(normalized, "read aloud") {
		enabled := !containsAny(normalized, "off", "disable", "mute", "stop")
		memory.VoiceOutput = &enabled
	}

	memory.RecentTopics = append(memory.RecentTopics, string(label))
	for _, entityType := range firedTypes {
		memory.RecentTopics = append(memory.RecentTopics, string(entityType))
	}

	return memory
}

func containsAny(text string, substrings ...string) bool {
	for _, s := range substrings {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
